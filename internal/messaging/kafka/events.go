package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Топики шины: пары запрос/результат для внешних валидатора и склада.
const (
	TopicValidateOrder       = "boms.validate-order"
	TopicValidateOrderResult = "boms.validate-order.result"
	TopicAllocateOrder       = "boms.allocate-order"
	TopicAllocateOrderResult = "boms.allocate-order.result"
	TopicAllocationFailure   = "boms.allocation-failure"
	TopicDeallocateOrder     = "boms.deallocate-order"
	TopicDeadLetterQueue     = "boms.dlq"
)

// Kafka headers.
const (
	// HeaderOrderID — correlation header: к какому заказу относится сообщение.
	HeaderOrderID = "x-order-id"
	// Headers для retry/DLQ логики.
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// OrderLineDTO — позиция заказа в wire-формате.
type OrderLineDTO struct {
	ID                string `json:"id"`
	BeerID            string `json:"beer_id,omitempty"`
	UPC               string `json:"upc"`
	BeerName          string `json:"beer_name,omitempty"`
	BeerStyle         string `json:"beer_style,omitempty"`
	PriceMinor        int64  `json:"price_minor,omitempty"`
	OrderQuantity     int32  `json:"order_quantity"`
	QuantityAllocated int32  `json:"quantity_allocated"`
}

// OrderDTO — заказ в wire-формате: полный набор позиций плюс customer ref.
type OrderDTO struct {
	ID          string         `json:"id"`
	CustomerRef string         `json:"customer_ref"`
	Lines       []OrderLineDTO `json:"lines"`
}

// ValidateOrderRequest — запрос внешнему валидатору.
type ValidateOrderRequest struct {
	Order OrderDTO `json:"order"`
}

// ValidationResult — асинхронный ответ валидатора.
type ValidationResult struct {
	OrderID string `json:"order_id"`
	Valid   bool   `json:"valid"`
}

// AllocateOrderRequest — запрос внешнему складу на резервирование.
type AllocateOrderRequest struct {
	Order OrderDTO `json:"order"`
}

// AllocationResult — асинхронный ответ склада. Позиции несут фактически
// зарезервированное количество.
type AllocationResult struct {
	Order            OrderDTO `json:"order"`
	AllocationError  bool     `json:"allocation_error"`
	PendingInventory bool     `json:"pending_inventory"`
}

// AllocationFailureEvent — уведомление downstream-потребителям о сбое резервирования.
type AllocationFailureEvent struct {
	OrderID    string    `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// DeallocateOrderRequest — компенсация: снять резерв по отменённому заказу.
type DeallocateOrderRequest struct {
	Order OrderDTO `json:"order"`
}

// ParseValidationResult парсит ValidationResult из сообщения.
func ParseValidationResult(message *sarama.ConsumerMessage) (*ValidationResult, error) {
	var result ValidationResult
	if err := json.Unmarshal(message.Value, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation result: %w", err)
	}
	return &result, nil
}

// ParseAllocationResult парсит AllocationResult из сообщения.
func ParseAllocationResult(message *sarama.ConsumerMessage) (*AllocationResult, error) {
	var result AllocationResult
	if err := json.Unmarshal(message.Value, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal allocation result: %w", err)
	}
	return &result, nil
}
