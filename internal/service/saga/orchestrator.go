package saga

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
	"github.com/vladislavdragonenkov/boms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/boms/internal/metrics"
	"github.com/vladislavdragonenkov/boms/internal/statemachine"
)

// Orchestrator управляет сагой пивного заказа: создание и обработка
// асинхронных результатов валидации, аллокации, выдачи и отмены.
type Orchestrator interface {
	CreateOrder(order domain.Order) (domain.Order, error)
	HandleValidationResult(orderID string, valid bool)
	HandleAllocationResult(order kafka.OrderDTO, allocationError, pendingInventory bool)
	HandlePickup(orderID string)
	HandleCancel(orderID string)
}

// orchestrator пересобирает state machine из персистентного статуса
// перед каждым событием и фиксирует новый статус синхронно, внутри того
// же вызова. Долгоживущих ссылок на заказ нет: каждый шаг перечитывает
// его из репозитория.
type orchestrator struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	bus      domain.EventPublisher
	catalog  domain.CatalogService
	machine  *statemachine.Machine
	logger   *log.Entry
	metrics  *metrics.SagaMetrics
}

// NewOrchestrator создаёт рабочий экземпляр оркестратора.
func NewOrchestrator(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	bus domain.EventPublisher,
	catalog domain.CatalogService,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		orders:   orders,
		timeline: timeline,
		bus:      bus,
		catalog:  catalog,
		machine:  statemachine.NewOrderMachine(),
		logger:   logger,
		metrics:  metrics.NewSagaMetrics(),
	}
}

// NewOrchestratorWithoutMetrics создаёт оркестратор без метрик (для тестов).
func NewOrchestratorWithoutMetrics(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	bus domain.EventPublisher,
	catalog domain.CatalogService,
	logger *log.Entry,
) Orchestrator {
	if logger == nil {
		logger = log.New().WithField("component", "saga")
	}
	return &orchestrator{
		orders:   orders,
		timeline: timeline,
		bus:      bus,
		catalog:  catalog,
		machine:  statemachine.NewOrderMachine(),
		logger:   logger,
		metrics:  nil, // Отключаем метрики для тестов
	}
}

// CreateOrder присваивает заказу новую identity, форсирует статус NEW,
// сохраняет и синхронно запускает валидацию. Возвращает ErrNotPersisted,
// если запись не удалось сохранить.
func (o *orchestrator) CreateOrder(order domain.Order) (domain.Order, error) {
	now := time.Now().UTC()
	order.ID = uuid.NewString()
	order.Status = o.machine.Initial()
	order.Version = 0
	order.CreatedAt = now
	order.UpdatedAt = now
	for i := range order.Lines {
		if order.Lines[i].ID == "" {
			order.Lines[i].ID = uuid.NewString()
		}
		order.Lines[i].QuantityAllocated = 0
		order.Lines[i].CreatedAt = now
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		o.logger.WithField("errors", errs).Warn("order rejected by invariants")
		return domain.Order{}, errs[0]
	}

	if err := o.orders.Create(order); err != nil {
		o.logger.WithError(err).WithField("order_id", order.ID).Error("order create failed")
		return domain.Order{}, fmt.Errorf("%w: %v", domain.ErrNotPersisted, err)
	}

	if o.metrics != nil {
		o.metrics.RecordOrderCreated()
	}

	// Машина стартует из initial state, rehydration свежему заказу не нужна.
	updated, _, err := o.sendEvent(order, domain.EventValidateOrder)
	if err != nil {
		return updated, err
	}
	return updated, nil
}

// HandleValidationResult обрабатывает асинхронный ответ валидатора.
// Отсутствие заказа не фатально: при at-least-once доставке дубликаты и
// опоздавшие сообщения ожидаемы.
func (o *orchestrator) HandleValidationResult(orderID string, valid bool) {
	order, err := o.orders.Get(orderID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("order not found for validation result")
		return
	}

	event := domain.EventValidationFailed
	if valid {
		event = domain.EventValidationPassed
	}

	updated, applied, err := o.sendEvent(order, event)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Error("validation result failed")
		return
	}

	if valid && applied {
		// sendEvent возвращает перечитанное после коммита состояние,
		// поэтому аллокацию можно запускать сразу, без ожидания.
		if _, _, err := o.sendEvent(updated, domain.EventAllocateOrder); err != nil {
			o.logger.WithError(err).WithField("order_id", orderID).Error("allocate dispatch failed")
		}
	}
}

// HandleAllocationResult обрабатывает асинхронный ответ склада и, если
// переход применился, переносит фактические quantity_allocated в
// сохранённые позиции заказа.
func (o *orchestrator) HandleAllocationResult(result kafka.OrderDTO, allocationError, pendingInventory bool) {
	order, err := o.orders.Get(result.ID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", result.ID).Warn("order not found for allocation result")
		return
	}

	// Приоритет исходов: ошибка > нехватка стока > успех.
	event := domain.EventAllocationSuccess
	switch {
	case allocationError:
		event = domain.EventAllocationFailed
	case pendingInventory:
		event = domain.EventAllocationNoInventory
	}

	updated, applied, err := o.sendEvent(order, event)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", result.ID).Error("allocation result failed")
		return
	}
	if !applied {
		return
	}

	if err := o.mergeAllocatedQuantities(result, updated.Status); err != nil {
		o.logger.WithError(err).WithField("order_id", result.ID).Error("failed to persist allocated quantities")
	}
}

// HandlePickup фиксирует выдачу заказа.
func (o *orchestrator) HandlePickup(orderID string) {
	order, err := o.orders.Get(orderID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("order not found for pickup")
		return
	}
	if _, _, err := o.sendEvent(order, domain.EventBeerOrderPickedUp); err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Error("pickup failed")
	}
}

// HandleCancel отменяет заказ. Событие всегда оценивается против живого
// персистентного статуса; из нерасторжимых статусов оно гасится таблицей.
func (o *orchestrator) HandleCancel(orderID string) {
	order, err := o.orders.Get(orderID)
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("order not found for cancel")
		return
	}
	if _, _, err := o.sendEvent(order, domain.EventCancelOrder); err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Error("cancel failed")
	}
}

// sendEvent — единая точка диспетчеризации: rehydrate из персистентного
// статуса, поиск перехода, синхронная фиксация нового статуса, запуск
// действия. Возвращает перечитанное состояние заказа и признак того, что
// переход применился.
func (o *orchestrator) sendEvent(order domain.Order, event domain.OrderEvent) (domain.Order, bool, error) {
	start := time.Now()

	inst := o.machine.Rehydrate(order.Status)
	tr, ok := inst.Fire(event)
	if !ok {
		o.logger.WithFields(log.Fields{
			"order_id": order.ID,
			"status":   order.Status,
			"event":    event,
		}).Debug("event not defined for current status, ignoring")
		if o.metrics != nil {
			o.metrics.RecordInvalidEvent()
		}
		return order, false, nil
	}

	o.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"event":    event,
		"from":     tr.From,
		"to":       tr.To,
	}).Debug("applying transition")

	updated, applied, err := o.applyTransition(order.ID, tr.From, tr.To)
	if err != nil {
		// Сбой персистентности фатален для этой операции: статус не
		// зафиксирован, сообщение должно уйти на redelivery.
		return order, false, err
	}
	if !applied {
		// Параллельное событие успело увести заказ из исходного статуса;
		// наш переход устарел и гасится так же, как неопределённое событие.
		if o.metrics != nil {
			o.metrics.RecordInvalidEvent()
		}
		return updated, false, nil
	}

	o.appendTimeline(updated.ID, event, tr.To)

	if err := o.runAction(tr.Action, updated); err != nil {
		o.logger.WithError(err).WithFields(log.Fields{
			"order_id": updated.ID,
			"action":   tr.Action,
		}).Error("transition action failed")
	}

	if o.metrics != nil {
		o.metrics.RecordTransition(event, tr.To, time.Since(start))
	}

	return updated, true, nil
}

// applyTransition — персистер переходов: перечитывает заказ, ставит
// целевой статус и сохраняет. Конфликт optimistic lock с параллельным
// событием того же заказа разрешается перечитыванием и повтором.
// Переход применяется только пока перечитанный статус совпадает с
// исходным: если параллельный коммит уже сдвинул заказ, переход устарел
// и не сохраняется (applied=false).
func (o *orchestrator) applyTransition(orderID string, from, target domain.OrderStatus) (domain.Order, bool, error) {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := o.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("reload order %s: %w", orderID, err)
		}

		if current.Status != from {
			o.logger.WithFields(log.Fields{
				"order_id": orderID,
				"expected": from,
				"actual":   current.Status,
				"target":   target,
			}).Debug("status changed concurrently, dropping stale transition")
			return current, false, nil
		}

		current.Status = target
		current.UpdatedAt = time.Now().UTC()

		if err := o.orders.Save(current); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxAttempts {
				o.logger.WithFields(log.Fields{
					"order_id": orderID,
					"attempt":  attempt,
				}).Debug("version conflict on status save, retrying")
				continue
			}
			return domain.Order{}, false, fmt.Errorf("persist status %s for order %s: %w", target, orderID, err)
		}

		// Возвращаем зафиксированное состояние, а не локальную копию.
		committed, err := o.orders.Get(orderID)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("reload order %s: %w", orderID, err)
		}
		return committed, true, nil
	}

	return domain.Order{}, false, domain.ErrOrderVersionConflict
}

// mergeAllocatedQuantities переносит quantity_allocated из результата в
// сохранённые позиции. Строки сопоставляются по id; позиции без пары в
// результате не трогаются. Конфликт версии разрешается перечитыванием и
// повтором; если статус успел уйти от зафиксированного переходом, merge
// гасится — поверх чужого коммита количества не пишем.
func (o *orchestrator) mergeAllocatedQuantities(result kafka.OrderDTO, expected domain.OrderStatus) error {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order, err := o.orders.Get(result.ID)
		if err != nil {
			return fmt.Errorf("reload order %s: %w", result.ID, err)
		}

		if order.Status != expected {
			o.logger.WithFields(log.Fields{
				"order_id": result.ID,
				"expected": expected,
				"actual":   order.Status,
			}).Debug("status changed concurrently, skipping quantities merge")
			return nil
		}

		for i := range order.Lines {
			for _, lineDTO := range result.Lines {
				if order.Lines[i].ID == lineDTO.ID {
					order.Lines[i].QuantityAllocated = lineDTO.QuantityAllocated
				}
			}
		}
		order.UpdatedAt = time.Now().UTC()

		if err := o.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxAttempts {
				o.logger.WithFields(log.Fields{
					"order_id": result.ID,
					"attempt":  attempt,
				}).Debug("version conflict on quantities merge, retrying")
				continue
			}
			return fmt.Errorf("save allocated quantities: %w", err)
		}
		return nil
	}

	return domain.ErrOrderVersionConflict
}

// appendTimeline добавляет событие в историю заказа; сбой не фатален.
func (o *orchestrator) appendTimeline(orderID string, event domain.OrderEvent, status domain.OrderStatus) {
	if o.timeline == nil {
		return
	}
	err := o.timeline.Append(domain.TimelineEvent{
		OrderID:  orderID,
		Event:    string(event),
		Status:   string(status),
		Occurred: time.Now().UTC(),
	})
	if err != nil {
		o.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
	}
}
