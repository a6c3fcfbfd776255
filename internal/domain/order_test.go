package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/boms/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          "order-1",
		CustomerRef: "customer-1",
		Status:      domain.OrderStatusNew,
		Lines: []domain.OrderLine{
			{
				ID:            "line-1",
				BeerID:        "beer-1",
				UPC:           "0631234200036",
				OrderQuantity: 5,
				CreatedAt:     now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
			},
		},
		{
			name: "missing upc",
			mut: func(o *domain.Order) {
				o.Lines[0].UPC = ""
			},
		},
		{
			name: "zero quantity",
			mut: func(o *domain.Order) {
				o.Lines[0].OrderQuantity = 0
			},
		},
		{
			name: "allocated above ordered",
			mut: func(o *domain.Order) {
				o.Lines[0].QuantityAllocated = o.Lines[0].OrderQuantity + 1
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			if errs := order.ValidateInvariants(); len(errs) == 0 {
				t.Fatal("expected validation errors, got none")
			}
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	terminal := []domain.OrderStatus{
		domain.OrderStatusPickedUp,
		domain.OrderStatusCancelled,
		domain.OrderStatusValidationException,
		domain.OrderStatusAllocationException,
	}
	for _, status := range terminal {
		if !status.Terminal() {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	active := []domain.OrderStatus{
		domain.OrderStatusNew,
		domain.OrderStatusValidationPending,
		domain.OrderStatusValidated,
		domain.OrderStatusAllocationPending,
		domain.OrderStatusAllocated,
		domain.OrderStatusPendingInventory,
	}
	for _, status := range active {
		if status.Terminal() {
			t.Errorf("expected %s to be non-terminal", status)
		}
	}
}

func TestOrderFullyAllocated(t *testing.T) {
	order := makeOrder()
	if order.FullyAllocated() {
		t.Fatal("fresh order must not be fully allocated")
	}

	order.Lines[0].QuantityAllocated = order.Lines[0].OrderQuantity
	if !order.FullyAllocated() {
		t.Fatal("expected order to be fully allocated")
	}

	order.Lines = nil
	if order.FullyAllocated() {
		t.Fatal("order without lines must not be fully allocated")
	}
}

func TestOrderCloneLines(t *testing.T) {
	order := makeOrder()
	lines := order.CloneLines()

	lines[0].QuantityAllocated = 99
	if order.Lines[0].QuantityAllocated == 99 {
		t.Fatal("CloneLines must not alias the original slice")
	}
}
