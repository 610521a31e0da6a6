package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart validation.
var (
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrCorruptSnapshot = errors.New("corrupt cart snapshot")
)

// NotInCatalogError indicates an add of a product the catalog does not know.
type NotInCatalogError struct {
	ProductID int64
}

func (e *NotInCatalogError) Error() string {
	return fmt.Sprintf("product %d not found in catalog", e.ProductID)
}

// NotInCartError indicates a remove or update of a product that is not in
// the cart.
type NotInCartError struct {
	ProductID int64
}

func (e *NotInCartError) Error() string {
	return fmt.Sprintf("product %d is not in the cart", e.ProductID)
}

// OutOfStockError indicates the requested total quantity exceeds the stock
// available at the time of the check.
type OutOfStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %d: requested %d but only %d in stock",
		e.ProductID, e.Requested, e.Available)
}
