package orders

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateStock(t *testing.T) {
	t.Run("passes when every line fits available stock", func(t *testing.T) {
		lines := []CheckoutLine{
			{ProductID: "p1", Quantity: 2, Stock: 5},
			{ProductID: "p2", Quantity: 1, Stock: 1},
		}

		if err := ValidateStock(lines); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("passes for an empty snapshot", func(t *testing.T) {
		if err := ValidateStock(nil); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})

	t.Run("names the offending product", func(t *testing.T) {
		lines := []CheckoutLine{
			{ProductID: "p1", ProductName: "Widget", Quantity: 2, Stock: 5},
			{ProductID: "p2", ProductName: "Gadget", Quantity: 3, Stock: 2},
		}

		err := ValidateStock(lines)
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if stockErr.ProductID != "p2" {
			t.Errorf("expected product p2, got %s", stockErr.ProductID)
		}
		if stockErr.ProductName != "Gadget" {
			t.Errorf("expected product name Gadget, got %s", stockErr.ProductName)
		}
		if !strings.Contains(stockErr.Error(), "Gadget") || !strings.Contains(stockErr.Error(), "p2") {
			t.Errorf("expected message to carry product name and id, got %q", stockErr.Error())
		}
	})

	t.Run("reports only the first shortfall", func(t *testing.T) {
		lines := []CheckoutLine{
			{ProductID: "p1", Quantity: 10, Stock: 0},
			{ProductID: "p2", Quantity: 10, Stock: 0},
		}

		err := ValidateStock(lines)
		var stockErr *InsufficientStockError
		if !errors.As(err, &stockErr) {
			t.Fatalf("expected InsufficientStockError, got %v", err)
		}
		if stockErr.ProductID != "p1" {
			t.Errorf("expected first offending product p1, got %s", stockErr.ProductID)
		}
	})

	t.Run("exact stock is sufficient", func(t *testing.T) {
		lines := []CheckoutLine{{ProductID: "p1", Quantity: 3, Stock: 3}}

		if err := ValidateStock(lines); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	})
}
