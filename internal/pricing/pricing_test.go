package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCalculateShopExample(t *testing.T) {
	in := Input{
		Lines: []models.CartLine{{
			Item:      models.CatalogItem("A"),
			Name:      "Item A",
			UnitPrice: d("1000"),
			Quantity:  2,
			Discount:  models.PercentDiscount(d("10")),
		}},
		LaborCharge:     d("200"),
		OverallDiscount: models.PercentDiscount(d("5")),
	}

	b := Calculate(in)

	assert.True(t, b.Subtotal.Equal(d("2000")))
	assert.True(t, b.TotalItemDiscounts.Equal(d("200")))
	assert.True(t, b.SubtotalAfterItemDiscounts.Equal(d("1800")))
	assert.True(t, b.SubtotalWithCharges.Equal(d("2000")))
	assert.True(t, b.OverallDiscountAmount.Equal(d("100")))
	assert.True(t, b.PreLoyaltyTotal.Equal(d("1900")))
	require.Len(t, b.Lines, 1)
	assert.True(t, b.Lines[0].FinalUnitPrice.Equal(d("900")))
}

func TestCalculateFixedDiscountsAndOutsideServices(t *testing.T) {
	in := Input{
		Lines: []models.CartLine{
			{Item: models.CatalogItem("A"), UnitPrice: d("300"), Quantity: 3, Discount: models.FixedDiscount(d("50"))},
			{Item: models.ManualItem("Wash"), UnitPrice: d("100"), Quantity: 1},
		},
		TuningCharge:    d("150"),
		LaborCharge:     d("50"),
		OutsideServices: []models.OutsideService{{Description: "Welding", Amount: d("400")}},
		OverallDiscount: models.FixedDiscount(d("75")),
	}

	b := Calculate(in)

	assert.True(t, b.Subtotal.Equal(d("1000")))
	assert.True(t, b.TotalItemDiscounts.Equal(d("150")))
	assert.True(t, b.SubtotalWithCharges.Equal(d("1050")))
	assert.True(t, b.OutsideServicesTotal.Equal(d("400")))
	// 1050 - 75 + 400
	assert.True(t, b.PreLoyaltyTotal.Equal(d("1375")))
}

func TestCalculateEmptyCart(t *testing.T) {
	b := Calculate(Input{LaborCharge: d("100")})
	assert.True(t, b.PreLoyaltyTotal.Equal(d("100")))
	assert.Empty(t, b.Lines)
}

func TestValidateRejectsOversizedDiscounts(t *testing.T) {
	cases := map[string]Input{
		"fixed over unit price": {Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1, Discount: models.FixedDiscount(d("101"))}}},
		"percent over 100":      {Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1, Discount: models.PercentDiscount(d("120"))}}},
		"negative discount":     {Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1, Discount: models.FixedDiscount(d("-1"))}}},
		"overall over bill":     {Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1}}, OverallDiscount: models.FixedDiscount(d("500"))},
		"unknown kind":          {Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1, Discount: models.Discount{Kind: "bogus", Value: d("1")}}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(in)
			assert.True(t, errors.Is(err, errs.ErrInvalidDiscount), "got %v", err)
		})
	}
}

func TestValidateRejectsBadQuantities(t *testing.T) {
	err := Validate(Input{Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 0}}})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	err = Validate(Input{LaborCharge: d("-5")})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestValidateAcceptsFullDiscount(t *testing.T) {
	in := Input{Lines: []models.CartLine{{UnitPrice: d("100"), Quantity: 1, Discount: models.PercentDiscount(d("100"))}}}
	require.NoError(t, Validate(in))
	assert.True(t, Calculate(in).PreLoyaltyTotal.IsZero())
}
