package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/boms/internal/health"
	"github.com/vladislavdragonenkov/boms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/boms/internal/service/saga"
	"github.com/vladislavdragonenkov/boms/internal/version"
)

// Run собирает зависимости, запускает consumer результатов и HTTP-сервер
// метрик/health, и блокируется до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return errors.New("BOMS_KAFKA_BROKERS is required: the saga cannot run without a message bus")
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	producer, err := initKafkaProducer(brokers, logger)
	if err != nil {
		return err
	}
	defer closeKafka(producer, logger)

	publisher := saga.NewRetryingPublisher(
		producer,
		saga.DefaultRetryConfig(),
		log.WithField("component", "publisher"),
	)

	orchestrator := saga.NewOrchestrator(
		deps.Orders,
		deps.Timeline,
		publisher,
		deps.Catalog,
		log.WithField("component", "saga"),
	)

	listener := kafka.NewResultListener(orchestrator)
	consumer, err := startResultConsumer(ctx, cfg, listener, producer, logger)
	if err != nil {
		return err
	}

	healthHandler := healthcheck.NewHandler(version.Service, version.String())
	if deps.Store != nil {
		healthHandler.Register("postgres", deps.Store.Ping)
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger, healthHandler)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")

	if err := consumer.Stop(); err != nil {
		logger.WithError(err).Warn("failed to stop kafka consumer")
	}
	shutdownHTTP(metricsSrv, logger)

	return ctx.Err()
}

// startMetricsServer поднимает HTTP-обработчики /metrics и health probes.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
