package saga

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/boms/internal/domain"
	"github.com/vladislavdragonenkov/boms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/boms/internal/service/catalog"
	"github.com/vladislavdragonenkov/boms/internal/storage/memory"
)

// OrderLifecycleTestSuite прогоняет полный жизненный цикл заказа через
// оркестратор, имитируя асинхронные ответы внешних сервисов.
type OrderLifecycleTestSuite struct {
	suite.Suite
	repo     domain.OrderRepository
	timeline domain.TimelineRepository
	bus      *stubPublisher
	catalog  *catalog.MockService
	saga     Orchestrator
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах

	s.repo = memory.NewOrderRepository()
	s.timeline = memory.NewTimelineRepository()
	s.bus = &stubPublisher{}
	s.catalog = catalog.NewMockService()
	s.catalog.Beers["0631234200036"] = domain.Beer{
		ID:         "beer-1",
		UPC:        "0631234200036",
		Name:       "Mango Bobs",
		Style:      "IPA",
		PriceMinor: 1299,
	}

	s.saga = NewOrchestratorWithoutMetrics(
		s.repo,
		s.timeline,
		s.bus,
		s.catalog,
		baseLogger.WithField("component", "lifecycle-test"),
	)
}

func (s *OrderLifecycleTestSuite) createOrder() domain.Order {
	created, err := s.saga.CreateOrder(domain.Order{
		CustomerRef: "customer-1",
		Lines: []domain.OrderLine{
			{UPC: "0631234200036", OrderQuantity: 6},
		},
	})
	require.NoError(s.T(), err)
	return created
}

func (s *OrderLifecycleTestSuite) allocationResultFor(orderID string, allocated int32) kafka.OrderDTO {
	order, err := s.repo.Get(orderID)
	require.NoError(s.T(), err)

	lines := make([]kafka.OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, kafka.OrderLineDTO{
			ID:                line.ID,
			UPC:               line.UPC,
			OrderQuantity:     line.OrderQuantity,
			QuantityAllocated: allocated,
		})
	}
	return kafka.OrderDTO{ID: order.ID, CustomerRef: order.CustomerRef, Lines: lines}
}

func (s *OrderLifecycleTestSuite) TestHappyPathToPickup() {
	created := s.createOrder()
	require.Equal(s.T(), domain.OrderStatusValidationPending, created.Status)

	// Валидатор отвечает успехом: заказ сразу уходит в аллокацию.
	s.saga.HandleValidationResult(created.ID, true)
	order, err := s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusAllocationPending, order.Status)

	// Склад резервирует всё.
	s.saga.HandleAllocationResult(s.allocationResultFor(created.ID, 6), false, false)
	order, err = s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusAllocated, order.Status)
	require.True(s.T(), order.FullyAllocated())

	s.saga.HandlePickup(created.ID)
	order, err = s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusPickedUp, order.Status)

	// Два исходящих запроса: валидация и аллокация.
	require.Len(s.T(), s.bus.byTopic(kafka.TopicValidateOrder), 1)
	require.Len(s.T(), s.bus.byTopic(kafka.TopicAllocateOrder), 1)
	require.Equal(s.T(), 2, s.bus.total())

	// Позиции в исходящих запросах обогащены данными каталога.
	allocReq := s.bus.byTopic(kafka.TopicAllocateOrder)[0].Event.(kafka.AllocateOrderRequest)
	require.Equal(s.T(), "Mango Bobs", allocReq.Order.Lines[0].BeerName)
	require.Equal(s.T(), int64(1299), allocReq.Order.Lines[0].PriceMinor)

	// История переходов полна и хронологична.
	events, err := s.timeline.List(created.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), events, 5)
	require.Equal(s.T(), string(domain.OrderStatusValidationPending), events[0].Status)
	require.Equal(s.T(), string(domain.OrderStatusPickedUp), events[4].Status)
}

func (s *OrderLifecycleTestSuite) TestCancelAfterAllocationReleasesStock() {
	created := s.createOrder()
	s.saga.HandleValidationResult(created.ID, true)
	s.saga.HandleAllocationResult(s.allocationResultFor(created.ID, 6), false, false)

	s.saga.HandleCancel(created.ID)

	order, err := s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusCancelled, order.Status)

	dealloc := s.bus.byTopic(kafka.TopicDeallocateOrder)
	require.Len(s.T(), dealloc, 1)
	req := dealloc[0].Event.(kafka.DeallocateOrderRequest)
	require.Equal(s.T(), created.ID, req.Order.ID)
	require.Equal(s.T(), "customer-1", req.Order.CustomerRef)

	// Повторная отмена гасится таблицей переходов.
	s.saga.HandleCancel(created.ID)
	require.Len(s.T(), s.bus.byTopic(kafka.TopicDeallocateOrder), 1)
}

func (s *OrderLifecycleTestSuite) TestValidationFailureParksOrder() {
	created := s.createOrder()

	s.saga.HandleValidationResult(created.ID, false)

	order, err := s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusValidationException, order.Status)

	// Кроме исходного запроса валидации ничего не публиковалось.
	require.Equal(s.T(), 1, s.bus.total())

	// Терминальный статус: поздний успешный ответ уже ничего не меняет.
	s.saga.HandleValidationResult(created.ID, true)
	order, err = s.repo.Get(created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), domain.OrderStatusValidationException, order.Status)
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}
