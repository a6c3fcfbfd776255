package saga

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
	"github.com/vladislavdragonenkov/boms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/boms/internal/statemachine"
)

// runAction выполняет исходящее действие перехода. Действия никогда не
// меняют статус заказа: это дело персистера. Payload всегда строится из
// только что перечитанного состояния.
func (o *orchestrator) runAction(action statemachine.Action, order domain.Order) error {
	switch action {
	case statemachine.ActionNone:
		return nil

	case statemachine.ActionSendValidationRequest:
		return o.bus.Publish(kafka.TopicValidateOrder, order.ID, kafka.ValidateOrderRequest{
			Order: o.toOrderDTO(order),
		})

	case statemachine.ActionSendAllocationRequest:
		return o.bus.Publish(kafka.TopicAllocateOrder, order.ID, kafka.AllocateOrderRequest{
			Order: o.toOrderDTO(order),
		})

	case statemachine.ActionNotifyAllocationFailure:
		return o.bus.Publish(kafka.TopicAllocationFailure, order.ID, kafka.AllocationFailureEvent{
			OrderID:    order.ID,
			OccurredAt: time.Now().UTC(),
		})

	case statemachine.ActionLogValidationFailure:
		// Компенсация валидации — только запись в лог: внешних шагов,
		// которые нужно было бы откатывать, к этому моменту ещё нет.
		o.logger.WithField("order_id", order.ID).Error("compensating transaction: order validation failed")
		return nil

	case statemachine.ActionSendDeallocationRequest:
		return o.bus.Publish(kafka.TopicDeallocateOrder, order.ID, kafka.DeallocateOrderRequest{
			Order: o.toOrderDTO(order),
		})

	default:
		return errors.New("unknown transition action " + string(action))
	}
}

// toOrderDTO собирает wire-представление заказа, обогащая позиции данными
// каталога. Каталог — best effort: при ошибке позиция уходит как есть.
func (o *orchestrator) toOrderDTO(order domain.Order) kafka.OrderDTO {
	lines := make([]kafka.OrderLineDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		dto := kafka.OrderLineDTO{
			ID:                line.ID,
			BeerID:            line.BeerID,
			UPC:               line.UPC,
			BeerName:          line.BeerName,
			BeerStyle:         line.BeerStyle,
			PriceMinor:        line.PriceMinor,
			OrderQuantity:     line.OrderQuantity,
			QuantityAllocated: line.QuantityAllocated,
		}
		if o.catalog != nil {
			if beer, err := o.catalog.GetByUPC(context.Background(), line.UPC); err == nil {
				dto.BeerID = beer.ID
				dto.BeerName = beer.Name
				dto.BeerStyle = beer.Style
				dto.PriceMinor = beer.PriceMinor
			} else {
				o.logger.WithError(err).WithFields(log.Fields{
					"order_id": order.ID,
					"upc":      line.UPC,
				}).Debug("catalog lookup failed, sending line without enrichment")
			}
		}
		lines = append(lines, dto)
	}

	return kafka.OrderDTO{
		ID:          order.ID,
		CustomerRef: order.CustomerRef,
		Lines:       lines,
	}
}
