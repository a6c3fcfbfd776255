package domain

import "time"

// OrderStatus описывает жизненный цикл пивного заказа в саге.
type OrderStatus string

const (
	// OrderStatusNew — заказ создан, валидация ещё не запущена.
	OrderStatusNew OrderStatus = "NEW"
	// OrderStatusValidationPending — запрос на валидацию отправлен, ждём ответа.
	OrderStatusValidationPending OrderStatus = "VALIDATION_PENDING"
	// OrderStatusValidated — валидация прошла успешно.
	OrderStatusValidated OrderStatus = "VALIDATED"
	// OrderStatusValidationException — валидация отклонила заказ; нужен оператор.
	OrderStatusValidationException OrderStatus = "VALIDATION_EXCEPTION"
	// OrderStatusAllocationPending — запрос на резервирование отправлен, ждём ответа.
	OrderStatusAllocationPending OrderStatus = "ALLOCATION_PENDING"
	// OrderStatusAllocated — все позиции зарезервированы на складе.
	OrderStatusAllocated OrderStatus = "ALLOCATED"
	// OrderStatusPendingInventory — склад зарезервировал не всё; ждём ручного решения.
	OrderStatusPendingInventory OrderStatus = "PENDING_INVENTORY"
	// OrderStatusAllocationException — резервирование завершилось ошибкой; нужен оператор.
	OrderStatusAllocationException OrderStatus = "ALLOCATION_EXCEPTION"
	// OrderStatusPickedUp — заказ забрали, цикл завершён.
	OrderStatusPickedUp OrderStatus = "PICKED_UP"
	// OrderStatusCancelled — заказ отменён до завершения цикла.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal сообщает, что из статуса нет автоматических переходов.
// Exception-статусы тоже терминальные: выход из них возможен только
// внешним вмешательством.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusPickedUp, OrderStatusCancelled,
		OrderStatusValidationException, OrderStatusAllocationException:
		return true
	default:
		return false
	}
}

// OrderEvent — событие state machine заказа.
type OrderEvent string

const (
	EventValidateOrder         OrderEvent = "VALIDATE_ORDER"
	EventValidationPassed      OrderEvent = "VALIDATION_PASSED"
	EventValidationFailed      OrderEvent = "VALIDATION_FAILED"
	EventAllocateOrder         OrderEvent = "ALLOCATE_ORDER"
	EventAllocationSuccess     OrderEvent = "ALLOCATION_SUCCESS"
	EventAllocationNoInventory OrderEvent = "ALLOCATION_NO_INVENTORY"
	EventAllocationFailed      OrderEvent = "ALLOCATION_FAILED"
	EventBeerOrderPickedUp     OrderEvent = "BEER_ORDER_PICKED_UP"
	EventCancelOrder           OrderEvent = "CANCEL_ORDER"
)

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для сопоставления строк в асинхронных результатах аллокации.
	ID string
	// BeerID — внешний идентификатор пива в каталоге.
	BeerID string
	// UPC — товарный код, по которому обогащаем позицию данными каталога.
	UPC string
	// OrderQuantity — заказанное количество.
	OrderQuantity int32
	// QuantityAllocated — сколько фактически зарезервировал склад.
	QuantityAllocated int32
	// Денормализованные данные каталога; заполняются при чтении,
	// источником истины не являются.
	BeerName   string
	BeerStyle  string
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние пивного заказа и его позиции.
// Персистентный Status — единственный источник истины о положении
// заказа в саге; in-memory state machine всегда пересобирается из него
// и после обработки события выбрасывается.
type Order struct {
	ID string
	// CustomerRef — внешняя ссылка клиента; должна проходить через все
	// round-trip'ы сообщений без изменений.
	CustomerRef string
	Status      OrderStatus
	Lines       []OrderLine
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}

	for _, line := range o.Lines {
		if line.UPC == "" {
			errs = append(errs, ErrLineUPCRequired)
		}
		if line.OrderQuantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.QuantityAllocated < 0 || line.QuantityAllocated > line.OrderQuantity {
			errs = append(errs, ErrLineAllocatedInvalid)
		}
	}

	return errs
}

// FullyAllocated сообщает, что склад зарезервировал все позиции полностью.
func (o *Order) FullyAllocated() bool {
	if len(o.Lines) == 0 {
		return false
	}
	for _, line := range o.Lines {
		if line.QuantityAllocated != line.OrderQuantity {
			return false
		}
	}
	return true
}

// CloneLines возвращает глубокую копию позиций, чтобы репозитории не
// делили слайсы с вызывающим кодом.
func (o *Order) CloneLines() []OrderLine {
	if o.Lines == nil {
		return nil
	}
	lines := make([]OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	return lines
}
