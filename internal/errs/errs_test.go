package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStockErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("create sale: %w", &StockError{ProductID: "p1", Name: "Chain", Requested: 3, Available: 1})

	assert.True(t, errors.Is(err, ErrInsufficientStock))

	var stock *StockError
	assert.True(t, errors.As(err, &stock))
	assert.Equal(t, "p1", stock.ProductID)
	assert.Contains(t, err.Error(), "requested 3, available 1")
}

func TestCode(t *testing.T) {
	assert.Equal(t, "insufficient_stock", Code(&StockError{}))
	assert.Equal(t, "payment_exceeds_balance", Code(fmt.Errorf("x: %w", ErrPaymentExceedsBalance)))
	assert.Equal(t, "sale_closed", Code(ErrSaleClosed))
	assert.Equal(t, "internal", Code(errors.New("disk full")))
}
