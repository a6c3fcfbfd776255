package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

const (
	defaultRequestTimeout = 3 * time.Second
	beerByUPCPath         = "/api/v1/beerupc/"
)

// Client — HTTP-клиент каталога пива. Используется только для обогащения
// позиций заказа денормализованными данными при чтении.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Entry
}

// NewClient создаёт клиент каталога с ограниченным таймаутом запросов.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		logger:  log.WithField("component", "catalog-client"),
	}
}

// beerPayload — wire-формат ответа каталога.
type beerPayload struct {
	ID         string `json:"id"`
	UPC        string `json:"upc"`
	BeerName   string `json:"beer_name"`
	BeerStyle  string `json:"beer_style"`
	PriceMinor int64  `json:"price_minor"`
}

// GetByUPC возвращает карточку пива по товарному коду.
func (c *Client) GetByUPC(ctx context.Context, upc string) (domain.Beer, error) {
	endpoint := c.baseURL + beerByUPCPath + url.PathEscape(upc)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Beer{}, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.Beer{}, domain.ErrBeerNotFound
	default:
		return domain.Beer{}, fmt.Errorf("catalog responded with status %d", resp.StatusCode)
	}

	var payload beerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Beer{}, fmt.Errorf("decode catalog response: %w", err)
	}

	return domain.Beer{
		ID:         payload.ID,
		UPC:        payload.UPC,
		Name:       payload.BeerName,
		Style:      payload.BeerStyle,
		PriceMinor: payload.PriceMinor,
	}, nil
}

var _ domain.CatalogService = (*Client)(nil)
