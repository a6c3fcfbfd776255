package app

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/messaging/kafka"
)

const consumerMaxRetries = 3

// initKafkaProducer инициализирует producer. Возвращает ошибку, если
// broker'ы недоступны: без шины сага не работает.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		return nil, err
	}
	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// startResultConsumer подписывает listener результатов на его топики.
func startResultConsumer(
	ctx context.Context,
	cfg Config,
	listener *kafka.ResultListener,
	dlqProducer *kafka.Producer,
	logger *log.Entry,
) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumerWithDLQ(
		cfg.BrokerList(),
		cfg.KafkaGroupID,
		listener.Topics(),
		listener.Handle,
		dlqProducer,
		consumerMaxRetries,
	)
	if err != nil {
		return nil, err
	}

	if err := consumer.Start(ctx); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"group_id": cfg.KafkaGroupID,
		"topics":   listener.Topics(),
	}).Info("result consumer started")
	return consumer, nil
}

// closeKafka закрывает producer, если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
