package saga

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

// RetryConfig конфигурация повторов публикации в шину.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryingPublisher оборачивает EventPublisher повторами с backoff.
// Временные сбои брокера не должны ронять переход, статус которого уже
// зафиксирован; задержки ограничены, чтобы не подвесить вызывающий поток.
type RetryingPublisher struct {
	next   domain.EventPublisher
	config RetryConfig
	logger *log.Entry
}

// NewRetryingPublisher создаёт публикатор с retry логикой.
func NewRetryingPublisher(next domain.EventPublisher, config RetryConfig, logger *log.Entry) *RetryingPublisher {
	if logger == nil {
		logger = log.New().WithField("component", "retrying-publisher")
	}
	return &RetryingPublisher{
		next:   next,
		config: config,
		logger: logger,
	}
}

// Publish передаёт событие дальше, повторяя до MaxAttempts раз.
func (rp *RetryingPublisher) Publish(topic, orderID string, event any) error {
	var lastErr error
	delay := rp.config.InitialDelay

	for attempt := 1; attempt <= rp.config.MaxAttempts; attempt++ {
		err := rp.next.Publish(topic, orderID, event)
		if err == nil {
			if attempt > 1 {
				rp.logger.WithFields(log.Fields{
					"topic":    topic,
					"order_id": orderID,
					"attempt":  attempt,
				}).Info("publish succeeded after retry")
			}
			return nil
		}

		lastErr = err
		if attempt == rp.config.MaxAttempts {
			break
		}

		rp.logger.WithError(err).WithFields(log.Fields{
			"topic":    topic,
			"order_id": orderID,
			"attempt":  attempt,
		}).Warn("publish failed, will retry")

		time.Sleep(delay)
		delay = time.Duration(float64(delay) * rp.config.BackoffFactor)
		if delay > rp.config.MaxDelay {
			delay = rp.config.MaxDelay
		}
	}

	rp.logger.WithError(lastErr).WithFields(log.Fields{
		"topic":    topic,
		"order_id": orderID,
		"attempts": rp.config.MaxAttempts,
	}).Error("publish failed after all retries")

	if lastErr == nil {
		lastErr = errors.New("publish failed")
	}
	return lastErr
}

var _ domain.EventPublisher = (*RetryingPublisher)(nil)
