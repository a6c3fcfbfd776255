package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func resultMessage(topic, orderID string, retryCount string) *sarama.ConsumerMessage {
	msg := &sarama.ConsumerMessage{
		Topic:     topic,
		Partition: 1,
		Offset:    42,
		Value:     []byte(`{not parseable`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte(HeaderOrderID), Value: []byte(orderID)},
		},
	}
	if retryCount != "" {
		msg.Headers = append(msg.Headers, &sarama.RecordHeader{
			Key:   []byte(HeaderRetryCount),
			Value: []byte(retryCount),
		})
	}
	return msg
}

func TestConsumer_RetryCountFromHeaders(t *testing.T) {
	c := &Consumer{logger: log.WithField("test", "consumer")}

	if got := c.retryCount(resultMessage(TopicValidateOrderResult, "order-1", "")); got != 0 {
		t.Fatalf("expected 0 without header, got %d", got)
	}
	if got := c.retryCount(resultMessage(TopicValidateOrderResult, "order-1", "2")); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := c.retryCount(resultMessage(TopicValidateOrderResult, "order-1", "junk")); got != 0 {
		t.Fatalf("expected 0 for unparsable header, got %d", got)
	}
}

func TestOrderIDFromHeaders(t *testing.T) {
	if got := OrderIDFromHeaders(resultMessage(TopicValidateOrderResult, "order-7", "")); got != "order-7" {
		t.Fatalf("expected order-7, got %q", got)
	}
	if got := OrderIDFromHeaders(&sarama.ConsumerMessage{}); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestConsumer_RedeliveryBeforeMaxRetries(t *testing.T) {
	handlerErr := errors.New("transient failure")
	c := &Consumer{
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return handlerErr },
		logger:     log.WithField("test", "consumer"),
		maxRetries: 3,
	}

	// До исчерпания попыток ошибка возвращается наружу: offset не
	// двигается, брокер доставит сообщение повторно.
	err := c.handleWithRedelivery(context.Background(), resultMessage(TopicValidateOrderResult, "order-1", "1"))
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestConsumer_PoisonMessageGoesToDLQ(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return errors.New("unexpected topic " + msg.Topic)
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var payload map[string]any
		if err := json.Unmarshal(value, &payload); err != nil {
			return err
		}
		if payload["order_id"] != "order-1" || payload["original_topic"] != TopicValidateOrderResult {
			return errors.New("dlq payload missing failure context")
		}
		return nil
	})

	dlq := &Producer{producer: mockProducer, logger: log.WithField("test", "dlq")}
	c := &Consumer{
		handler:     func(context.Context, *sarama.ConsumerMessage) error { return errors.New("poison") },
		logger:      log.WithField("test", "consumer"),
		dlqProducer: dlq,
		maxRetries:  3,
	}

	// Попытки исчерпаны: сообщение уходит в DLQ, ошибка гасится.
	err := c.handleWithRedelivery(context.Background(), resultMessage(TopicValidateOrderResult, "order-1", "3"))
	if err != nil {
		t.Fatalf("expected nil after DLQ handoff, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestConsumer_NoDLQConfigured(t *testing.T) {
	handlerErr := errors.New("poison")
	c := &Consumer{
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return handlerErr },
		logger:     log.WithField("test", "consumer"),
		maxRetries: 1,
	}

	err := c.handleWithRedelivery(context.Background(), resultMessage(TopicValidateOrderResult, "order-1", "1"))
	if !errors.Is(err, handlerErr) {
		t.Fatalf("expected handler error without DLQ, got %v", err)
	}
}
