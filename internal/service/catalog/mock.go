package catalog

import (
	"context"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

// MockService — конфигурируемая заглушка CatalogService для разработки и тестов.
type MockService struct {
	Beers map[string]domain.Beer
	Err   error

	LookupCalls int
}

// NewMockService возвращает mock, отвечающий ErrBeerNotFound на любой UPC.
func NewMockService() *MockService {
	return &MockService{Beers: make(map[string]domain.Beer)}
}

// GetByUPC возвращает заранее настроенную карточку или ошибку и считает вызовы.
func (m *MockService) GetByUPC(_ context.Context, upc string) (domain.Beer, error) {
	m.LookupCalls++
	if m.Err != nil {
		return domain.Beer{}, m.Err
	}
	beer, ok := m.Beers[upc]
	if !ok {
		return domain.Beer{}, domain.ErrBeerNotFound
	}
	return beer, nil
}

var _ domain.CatalogService = (*MockService)(nil)
