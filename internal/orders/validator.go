package orders

import "fmt"

// CheckoutLine pairs a captured cart line with the referenced product's
// live stock, as read by the checkout snapshot.
type CheckoutLine struct {
	ProductID   string
	ProductName string
	Variant     string
	Quantity    int
	Price       int64
	Stock       int
}

type InsufficientStockError struct {
	ProductID   string
	ProductName string
}

// Error names the product so the message is usable as-is in a checkout
// rejection shown to the buyer.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s)", e.ProductName, e.ProductID)
}

// ValidateStock checks every requested quantity against available stock,
// failing fast on the first shortfall. It reports exactly one offending
// product per rejection and has no side effects.
func ValidateStock(lines []CheckoutLine) error {
	for _, line := range lines {
		if line.Quantity > line.Stock {
			return &InsufficientStockError{ProductID: line.ProductID, ProductName: line.ProductName}
		}
	}
	return nil
}
