package domain

import (
	"context"
	"time"
)

// EventPublisher — абстракция шины сообщений для исходящих действий саги.
// Ядро не знает деталей транспорта: только топик, ключ корреляции и payload.
type EventPublisher interface {
	// Publish сериализует event и отправляет его в указанный топик.
	// Ключ — идентификатор заказа; он же уходит в correlation header.
	Publish(topic, orderID string, event any) error
}

// Beer — карточка пива из каталога.
type Beer struct {
	ID         string
	UPC        string
	Name       string
	Style      string
	PriceMinor int64
}

// CatalogService отдаёт данные каталога для обогащения позиций заказа
// при чтении. Денормализованные поля позиций не персистятся как истина.
type CatalogService interface {
	// GetByUPC возвращает карточку пива или ErrBeerNotFound.
	GetByUPC(ctx context.Context, upc string) (Beer, error)
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// TimelineEvent описывает одно событие в жизненном цикле заказа:
// какой переход случился и почему.
type TimelineEvent struct {
	OrderID  string
	Event    string
	Status   string
	Occurred time.Time
}
