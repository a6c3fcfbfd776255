package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

func newMockedProducer(t *testing.T) (*Producer, *mocks.SyncProducer) {
	t.Helper()
	mockProducer := mocks.NewSyncProducer(t, nil)
	return &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}, mockProducer
}

func TestProducer_Publish(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	// Проверяем payload и ключ сообщения: ключ равен id заказа, чтобы
	// события одного заказа шли в одну партицию.
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "order-123" {
			return errors.New("unexpected message key: " + string(key))
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var result ValidationResult
		if err := json.Unmarshal(value, &result); err != nil {
			return err
		}
		if result.OrderID != "order-123" || !result.Valid {
			return errors.New("unexpected payload")
		}

		for _, h := range msg.Headers {
			if string(h.Key) == HeaderOrderID && string(h.Value) == "order-123" {
				return nil
			}
		}
		return errors.New("missing correlation header")
	})

	err := producer.Publish(TopicValidateOrderResult, "order-123", ValidationResult{
		OrderID: "order-123",
		Valid:   true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishError(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.Publish(TopicValidateOrder, "order-123", ValidateOrderRequest{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, domain.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishUnmarshalableEvent(t *testing.T) {
	producer, mockProducer := newMockedProducer(t)

	// Каналы не сериализуются в JSON; сообщение не должно уйти в брокер.
	err := producer.Publish(TopicValidateOrder, "order-123", make(chan int))
	if err == nil {
		t.Fatal("expected marshal error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}
