// Package errs holds the errors the sale engine can reject an operation with.
// Every one of them is recoverable: show the message and let the user retry.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStock          = errors.New("insufficient stock")
	ErrInsufficientLoyaltyBalance = errors.New("insufficient loyalty balance")
	ErrPaymentExceedsBalance      = errors.New("payment exceeds balance")
	ErrInvalidDiscount            = errors.New("invalid discount")
	ErrInvalidInput               = errors.New("invalid input")
	ErrNotFound                   = errors.New("not found")
	ErrSaleClosed                 = errors.New("sale can no longer be changed")
)

// StockError reports which product could not cover a sale.
type StockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// Code returns a stable machine-readable name for err, or "internal".
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInsufficientLoyaltyBalance):
		return "insufficient_loyalty_balance"
	case errors.Is(err, ErrPaymentExceedsBalance):
		return "payment_exceeds_balance"
	case errors.Is(err, ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSaleClosed):
		return "sale_closed"
	default:
		return "internal"
	}
}
