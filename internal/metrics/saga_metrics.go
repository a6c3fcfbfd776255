package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

// SagaMetrics содержит метрики жизненного цикла пивных заказов.
type SagaMetrics struct {
	// Счётчики исходов
	ordersCreated        prometheus.Counter
	validationsPassed    prometheus.Counter
	validationsFailed    prometheus.Counter
	ordersAllocated      prometheus.Counter
	ordersPendingStock   prometheus.Counter
	allocationsFailed    prometheus.Counter
	ordersCancelled      prometheus.Counter
	ordersPickedUp       prometheus.Counter

	// Дубликаты и устаревшие сообщения, погашенные таблицей переходов.
	invalidEvents prometheus.Counter

	// Гистограмма времени применения перехода (load + save + action).
	transitionDuration *prometheus.HistogramVec

	// Gauge заказов, ещё не дошедших до терминального статуса.
	ordersInFlight prometheus.Gauge
}

// NewSagaMetrics создаёт метрики, зарегистрированные в default registry.
func NewSagaMetrics() *SagaMetrics {
	return newSagaMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newSagaMetricsWithRegisterer(registerer prometheus.Registerer) *SagaMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &SagaMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_orders_created_total",
			Help: "Total number of beer orders created",
		}),
		validationsPassed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_validations_passed_total",
			Help: "Total number of beer orders that passed validation",
		}),
		validationsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_validations_failed_total",
			Help: "Total number of beer orders that failed validation",
		}),
		ordersAllocated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_orders_allocated_total",
			Help: "Total number of beer orders fully allocated",
		}),
		ordersPendingStock: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_orders_pending_inventory_total",
			Help: "Total number of beer orders parked waiting for inventory",
		}),
		allocationsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_allocations_failed_total",
			Help: "Total number of beer orders with failed allocation",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_orders_cancelled_total",
			Help: "Total number of beer orders cancelled",
		}),
		ordersPickedUp: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_orders_picked_up_total",
			Help: "Total number of beer orders picked up",
		}),
		invalidEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "boms_invalid_events_total",
			Help: "Total number of events rejected by the transition table",
		}),
		transitionDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "boms_transition_duration_seconds",
			Help:    "Duration of state transitions in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),
		ordersInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "boms_orders_in_flight",
			Help: "Number of beer orders not yet in a terminal status",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *SagaMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.ordersInFlight.Inc()
}

// RecordInvalidEvent увеличивает счётчик погашенных событий.
func (m *SagaMetrics) RecordInvalidEvent() {
	m.invalidEvents.Inc()
}

// RecordTransition записывает применённый переход: длительность и исход.
func (m *SagaMetrics) RecordTransition(event domain.OrderEvent, target domain.OrderStatus, duration time.Duration) {
	m.transitionDuration.WithLabelValues(string(event)).Observe(duration.Seconds())

	switch target {
	case domain.OrderStatusValidated:
		m.validationsPassed.Inc()
	case domain.OrderStatusValidationException:
		m.validationsFailed.Inc()
	case domain.OrderStatusAllocated:
		m.ordersAllocated.Inc()
	case domain.OrderStatusPendingInventory:
		m.ordersPendingStock.Inc()
	case domain.OrderStatusAllocationException:
		m.allocationsFailed.Inc()
	case domain.OrderStatusCancelled:
		m.ordersCancelled.Inc()
	case domain.OrderStatusPickedUp:
		m.ordersPickedUp.Inc()
	}

	if target.Terminal() {
		m.ordersInFlight.Dec()
	}
}
