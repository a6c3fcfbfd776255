package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// OrderResultHandler — часть саги, принимающая асинхронные результаты
// валидации и аллокации. Реализуется оркестратором.
type OrderResultHandler interface {
	HandleValidationResult(orderID string, valid bool)
	HandleAllocationResult(order OrderDTO, allocationError, pendingInventory bool)
}

// ResultListener превращает сообщения топиков результатов в вызовы саги.
// Аналог входных listener'ов на стороне брокера: по одному на топик,
// маршрутизация — по имени топика.
type ResultListener struct {
	handler OrderResultHandler
	logger  *log.Entry
}

// NewResultListener создаёт listener для обоих топиков результатов.
func NewResultListener(handler OrderResultHandler) *ResultListener {
	return &ResultListener{
		handler: handler,
		logger:  log.WithField("component", "result-listener"),
	}
}

// Topics возвращает список топиков, которые должен читать consumer.
func (l *ResultListener) Topics() []string {
	return []string{TopicValidateOrderResult, TopicAllocateOrderResult}
}

// Handle реализует MessageHandler. Ошибка возвращается только при
// неразбираемом payload: тогда сообщение уходит по retry/DLQ-пути.
// Бизнес-исходы (не найден заказ, дубликат) сага гасит сама.
func (l *ResultListener) Handle(_ context.Context, message *sarama.ConsumerMessage) error {
	switch message.Topic {
	case TopicValidateOrderResult:
		result, err := ParseValidationResult(message)
		if err != nil {
			return err
		}
		l.logger.WithFields(log.Fields{
			"order_id": result.OrderID,
			"valid":    result.Valid,
		}).Debug("validation result received")
		l.handler.HandleValidationResult(result.OrderID, result.Valid)
		return nil

	case TopicAllocateOrderResult:
		result, err := ParseAllocationResult(message)
		if err != nil {
			return err
		}
		l.logger.WithFields(log.Fields{
			"order_id":          result.Order.ID,
			"allocation_error":  result.AllocationError,
			"pending_inventory": result.PendingInventory,
		}).Debug("allocation result received")
		l.handler.HandleAllocationResult(result.Order, result.AllocationError, result.PendingInventory)
		return nil

	default:
		return fmt.Errorf("unexpected topic %q", message.Topic)
	}
}
