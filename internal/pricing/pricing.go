// Package pricing turns a cart plus charges and discounts into the money
// breakdown of a sale. Everything here is pure arithmetic.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Input is everything that feeds the bill before loyalty.
type Input struct {
	Lines           []models.CartLine
	TuningCharge    decimal.Decimal
	LaborCharge     decimal.Decimal
	OutsideServices []models.OutsideService
	OverallDiscount models.Discount
}

// LinePrice is the priced version of one cart line.
type LinePrice struct {
	DiscountAmount decimal.Decimal
	FinalUnitPrice decimal.Decimal
}

// Breakdown is the bill before any loyalty redemption.
type Breakdown struct {
	Lines                      []LinePrice
	Subtotal                   decimal.Decimal
	TotalItemDiscounts         decimal.Decimal
	SubtotalAfterItemDiscounts decimal.Decimal
	Charges                    decimal.Decimal
	SubtotalWithCharges        decimal.Decimal
	OverallDiscountAmount      decimal.Decimal
	OutsideServicesTotal       decimal.Decimal
	PreLoyaltyTotal            decimal.Decimal
}

// Calculate prices the cart in the fixed order: line discounts, subtotal,
// tuning and labor, overall discount, then outside services.
func Calculate(in Input) Breakdown {
	var b Breakdown
	b.Lines = make([]LinePrice, len(in.Lines))

	for i, line := range in.Lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		discount := line.Discount.AmountOf(line.UnitPrice)
		b.Lines[i] = LinePrice{
			DiscountAmount: discount,
			FinalUnitPrice: line.UnitPrice.Sub(discount),
		}
		b.Subtotal = b.Subtotal.Add(line.UnitPrice.Mul(qty))
		b.TotalItemDiscounts = b.TotalItemDiscounts.Add(discount.Mul(qty))
	}

	b.SubtotalAfterItemDiscounts = b.Subtotal.Sub(b.TotalItemDiscounts)
	b.Charges = in.TuningCharge.Add(in.LaborCharge)
	b.SubtotalWithCharges = b.SubtotalAfterItemDiscounts.Add(b.Charges)
	b.OverallDiscountAmount = in.OverallDiscount.AmountOf(b.SubtotalWithCharges)

	for _, svc := range in.OutsideServices {
		b.OutsideServicesTotal = b.OutsideServicesTotal.Add(svc.Amount)
	}

	b.PreLoyaltyTotal = b.SubtotalWithCharges.Sub(b.OverallDiscountAmount).Add(b.OutsideServicesTotal)
	return b
}

// Validate rejects inputs Calculate would price into nonsense: negative
// quantities or charges, and discounts bigger than what they apply to.
func Validate(in Input) error {
	for i, line := range in.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: line %d quantity must be positive", errs.ErrInvalidInput, i)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d unit price is negative", errs.ErrInvalidInput, i)
		}
		if err := checkDiscount(line.Discount, line.UnitPrice); err != nil {
			return fmt.Errorf("line %d (%s): %w", i, line.Name, err)
		}
	}
	if in.TuningCharge.IsNegative() || in.LaborCharge.IsNegative() {
		return fmt.Errorf("%w: charges must not be negative", errs.ErrInvalidInput)
	}
	for _, svc := range in.OutsideServices {
		if svc.Amount.IsNegative() {
			return fmt.Errorf("%w: outside service %q is negative", errs.ErrInvalidInput, svc.Description)
		}
	}

	b := Calculate(in)
	if err := checkDiscount(in.OverallDiscount, b.SubtotalWithCharges); err != nil {
		return fmt.Errorf("overall discount: %w", err)
	}
	return nil
}

func checkDiscount(d models.Discount, base decimal.Decimal) error {
	switch d.Kind {
	case "":
		if !d.Value.IsZero() {
			return fmt.Errorf("%w: discount value without a kind", errs.ErrInvalidDiscount)
		}
		return nil
	case models.DiscountFixed, models.DiscountPercentage:
	default:
		return fmt.Errorf("%w: unknown kind %q", errs.ErrInvalidDiscount, d.Kind)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: value is negative", errs.ErrInvalidDiscount)
	}
	if d.Kind == models.DiscountPercentage && d.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: more than 100%%", errs.ErrInvalidDiscount)
	}
	if d.AmountOf(base).GreaterThan(base) {
		return fmt.Errorf("%w: %s exceeds %s", errs.ErrInvalidDiscount, d.AmountOf(base).StringFixed(2), base.StringFixed(2))
	}
	return nil
}
