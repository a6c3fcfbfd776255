package statemachine

import (
	"github.com/vladislavdragonenkov/boms/internal/domain"
)

// Action идентифицирует исходящее действие, срабатывающее на входе в
// целевой статус. Сами действия живут в саге; таблица знает только имя.
type Action string

const (
	ActionNone                    Action = ""
	ActionSendValidationRequest   Action = "send_validation_request"
	ActionSendAllocationRequest   Action = "send_allocation_request"
	ActionNotifyAllocationFailure Action = "notify_allocation_failure"
	ActionLogValidationFailure    Action = "log_validation_failure"
	ActionSendDeallocationRequest Action = "send_deallocation_request"
)

// Transition — одна строка таблицы переходов.
type Transition struct {
	From   domain.OrderStatus
	Event  domain.OrderEvent
	To     domain.OrderStatus
	Action Action
}

type transitionKey struct {
	from  domain.OrderStatus
	event domain.OrderEvent
}

// Machine интерпретирует таблицу переходов заказа. Сама таблица
// иммутабельна; изменяемое состояние живёт только в Instance.
type Machine struct {
	initial domain.OrderStatus
	table   map[transitionKey]Transition
}

// NewOrderMachine строит state machine жизненного цикла пивного заказа.
// Любая пара (статус, событие), которой нет в таблице, отклоняется.
func NewOrderMachine() *Machine {
	transitions := []Transition{
		{domain.OrderStatusNew, domain.EventValidateOrder, domain.OrderStatusValidationPending, ActionSendValidationRequest},

		{domain.OrderStatusValidationPending, domain.EventValidationPassed, domain.OrderStatusValidated, ActionNone},
		{domain.OrderStatusValidationPending, domain.EventValidationFailed, domain.OrderStatusValidationException, ActionLogValidationFailure},
		{domain.OrderStatusValidationPending, domain.EventCancelOrder, domain.OrderStatusCancelled, ActionNone},

		{domain.OrderStatusValidated, domain.EventAllocateOrder, domain.OrderStatusAllocationPending, ActionSendAllocationRequest},

		{domain.OrderStatusAllocationPending, domain.EventAllocationSuccess, domain.OrderStatusAllocated, ActionNone},
		{domain.OrderStatusAllocationPending, domain.EventAllocationNoInventory, domain.OrderStatusPendingInventory, ActionNone},
		{domain.OrderStatusAllocationPending, domain.EventAllocationFailed, domain.OrderStatusAllocationException, ActionNotifyAllocationFailure},
		{domain.OrderStatusAllocationPending, domain.EventCancelOrder, domain.OrderStatusCancelled, ActionNone},

		{domain.OrderStatusAllocated, domain.EventBeerOrderPickedUp, domain.OrderStatusPickedUp, ActionNone},
		{domain.OrderStatusAllocated, domain.EventCancelOrder, domain.OrderStatusCancelled, ActionSendDeallocationRequest},

		{domain.OrderStatusPendingInventory, domain.EventCancelOrder, domain.OrderStatusCancelled, ActionSendDeallocationRequest},
	}

	table := make(map[transitionKey]Transition, len(transitions))
	for _, tr := range transitions {
		table[transitionKey{from: tr.From, event: tr.Event}] = tr
	}

	return &Machine{
		initial: domain.OrderStatusNew,
		table:   table,
	}
}

// Initial возвращает стартовый статус машины.
func (m *Machine) Initial() domain.OrderStatus {
	return m.initial
}

// Next возвращает переход для пары (from, event) или false, если событие
// в этом статусе не определено.
func (m *Machine) Next(from domain.OrderStatus, event domain.OrderEvent) (Transition, bool) {
	tr, ok := m.table[transitionKey{from: from, event: event}]
	return tr, ok
}

// Instance — одноразовая проекция машины для конкретного заказа.
// Создаётся из персистентного статуса перед каждым событием и
// выбрасывается после обработки; авторитетом не является.
type Instance struct {
	machine *Machine
	current domain.OrderStatus
}

// New возвращает экземпляр в начальном статусе (для свежесозданных заказов).
func (m *Machine) New() *Instance {
	return &Instance{machine: m, current: m.initial}
}

// Rehydrate восстанавливает экземпляр из персистентного статуса заказа.
func (m *Machine) Rehydrate(status domain.OrderStatus) *Instance {
	return &Instance{machine: m, current: status}
}

// Current возвращает текущий статус экземпляра.
func (in *Instance) Current() domain.OrderStatus {
	return in.current
}

// Fire применяет событие. Для неопределённого события возвращает false и
// не меняет состояние: дубликаты и устаревшие сообщения превращаются в no-op.
func (in *Instance) Fire(event domain.OrderEvent) (Transition, bool) {
	tr, ok := in.machine.Next(in.current, event)
	if !ok {
		return Transition{}, false
	}
	in.current = tr.To
	return tr, true
}
