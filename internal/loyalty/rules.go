// Package loyalty holds the points arithmetic of the shop: which earning band
// and promotion apply, what a redemption is worth, which tier a customer has
// reached, how many points are about to lapse, and how the ledger records it.
package loyalty

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

var hundred = decimal.NewFromInt(100)

// SelectEarningRule returns the band that contains spend. Overlapping bands
// resolve to the one with the highest MinSpend.
func SelectEarningRule(rules []models.EarningRule, spend decimal.Decimal) (models.EarningRule, bool) {
	var (
		best  models.EarningRule
		found bool
	)
	for _, r := range rules {
		if !r.Contains(spend) {
			continue
		}
		if !found || r.MinSpend.GreaterThan(best.MinSpend) {
			best, found = r, true
		}
	}
	return best, found
}

// ActivePromotion returns the promotion running on the day of now. When more
// than one covers the day, the latest start wins, then the higher multiplier.
func ActivePromotion(promos []models.Promotion, now time.Time) (models.Promotion, bool) {
	var active []models.Promotion
	for _, p := range promos {
		if p.Covers(now) {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return models.Promotion{}, false
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].StartDate != active[j].StartDate {
			return active[i].StartDate > active[j].StartDate
		}
		if active[i].Multiplier != active[j].Multiplier {
			return active[i].Multiplier > active[j].Multiplier
		}
		return active[i].Name < active[j].Name
	})
	return active[0], true
}

// NetItemRevenue is the item share of the bill after the overall and loyalty
// discounts are split between items and charges by their share of the gross.
func NetItemRevenue(itemSubtotal, charges, overallDiscount, loyaltyDiscount decimal.Decimal) decimal.Decimal {
	gross := itemSubtotal.Add(charges)
	if !gross.IsPositive() {
		return decimal.Zero
	}
	ratio := itemSubtotal.Div(gross)
	itemDiscount := overallDiscount.Add(loyaltyDiscount).Mul(ratio)
	return itemSubtotal.Sub(itemDiscount)
}

// PointsEarned applies the matching band and multipliers to net item revenue.
// Zero or negative revenue earns nothing.
func PointsEarned(rules []models.EarningRule, netItemRevenue decimal.Decimal, tierMultiplier, promoMultiplier float64) int {
	if !netItemRevenue.IsPositive() {
		return 0
	}
	rule, ok := SelectEarningRule(rules, netItemRevenue)
	if !ok {
		return 0
	}
	rate := decimal.NewFromFloat(rule.PointsPerHundred).
		Mul(multiplier(tierMultiplier)).
		Mul(multiplier(promoMultiplier))
	points := netItemRevenue.Div(hundred).Mul(rate).Floor()
	if points.IsNegative() {
		return 0
	}
	return int(points.IntPart())
}

func multiplier(m float64) decimal.Decimal {
	if m <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(m)
}

// CheckRedemption rejects redeeming more points than the customer holds.
func CheckRedemption(points, balance int) error {
	if points < 0 {
		return fmt.Errorf("%w: cannot redeem negative points", errs.ErrInvalidInput)
	}
	if points > balance {
		return fmt.Errorf("%w: requested %d, available %d", errs.ErrInsufficientLoyaltyBalance, points, balance)
	}
	return nil
}

// RedemptionValue is the discount points buy against totalBeforeLoyalty,
// clamped to [0, totalBeforeLoyalty].
func RedemptionValue(rule models.RedemptionRule, points int, totalBeforeLoyalty decimal.Decimal) decimal.Decimal {
	if points <= 0 || rule.Points <= 0 || !totalBeforeLoyalty.IsPositive() {
		return decimal.Zero
	}
	units := decimal.NewFromInt(int64(points)).Div(decimal.NewFromInt(int64(rule.Points)))

	var value decimal.Decimal
	switch rule.Method {
	case models.RedeemFixedValue:
		value = units.Mul(rule.Value)
	case models.RedeemPercentage:
		value = totalBeforeLoyalty.Mul(units.Mul(rule.Value)).Div(hundred)
	}

	if value.IsNegative() {
		return decimal.Zero
	}
	if value.GreaterThan(totalBeforeLoyalty) {
		return totalBeforeLoyalty
	}
	return value.Round(2)
}
