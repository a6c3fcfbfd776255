package domain

import "errors"

var (
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка отсутствующего UPC в позиции.
	ErrLineUPCRequired = errors.New("line upc is required")
	// Ошибка при некорректном заказанном количестве (<= 0).
	ErrLineQtyInvalid = errors.New("line order quantity must be greater than zero")
	// Ошибка, если зарезервированное количество вне диапазона [0, заказано].
	ErrLineAllocatedInvalid = errors.New("line allocated quantity out of range")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrNotPersisted возвращается из CreateOrder, если запись заказа не удалось сохранить.
	ErrNotPersisted = errors.New("order not persisted")
	// ErrBeerNotFound — каталог не знает такой UPC/ID.
	ErrBeerNotFound = errors.New("beer not found in catalog")
	// ErrPublishFailed — сообщение не удалось опубликовать в шину.
	ErrPublishFailed = errors.New("publish to message bus failed")
)

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
