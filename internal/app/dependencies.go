package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
	"github.com/vladislavdragonenkov/boms/internal/service/catalog"
	"github.com/vladislavdragonenkov/boms/internal/storage/memory"
	"github.com/vladislavdragonenkov/boms/internal/storage/postgres"
)

// Dependencies содержит хранилище и каталог, выбранные по конфигурации.
type Dependencies struct {
	Orders   domain.OrderRepository
	Timeline domain.TimelineRepository
	Catalog  domain.CatalogService
	Store    *postgres.Store // nil при in-memory хранилище
	Logger   *log.Entry
}

// NewDependencies выбирает Postgres при непустом DSN, иначе in-memory
// репозитории. Каталог: HTTP-клиент при непустом BOMS_CATALOG_URL,
// иначе mock.
// NOTE: mock каталога предназначен для разработки и демо; в production
// окружении указывайте адрес реального beer-service.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Orders = memory.NewOrderRepository()
		deps.Timeline = memory.NewTimelineRepository()
		logger.Info("using in-memory storage")
	}

	if cfg.CatalogBaseURL != "" {
		deps.Catalog = catalog.NewClient(cfg.CatalogBaseURL)
		logger.WithField("base_url", cfg.CatalogBaseURL).Info("using http beer catalog")
	} else {
		deps.Catalog = catalog.NewMockService()
		logger.Info("using mock beer catalog")
	}

	return deps, nil
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() {
	if d == nil || d.Store == nil {
		return
	}
	if err := d.Store.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
