package loyalty

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-ledger/internal/models"
)

// TierProgress is what a tier check counted for one candidate tier.
type TierProgress struct {
	Visits int             `json:"visits"`
	Spend  decimal.Decimal `json:"spend"`
}

// EvaluateTier returns the highest-ranked tier whose visit and spend
// requirements the customer meets inside that tier's rolling window. The rank
// 0 tier is the fallback. sales may hold other customers' sales; they are
// ignored.
func EvaluateTier(customer models.Customer, sales []models.Sale, tiers []models.CustomerTier, now time.Time) models.CustomerTier {
	ranked := append([]models.CustomerTier(nil), tiers...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank > ranked[j].Rank })

	for _, tier := range ranked {
		if tier.Rank == 0 {
			continue
		}
		p := Progress(customer, sales, tier, now)
		if p.Visits >= tier.MinVisits && p.Spend.GreaterThanOrEqual(tier.MinSpend) {
			return tier
		}
	}
	return BaseTier(tiers)
}

// Progress counts the customer's visits and spend inside tier's window.
func Progress(customer models.Customer, sales []models.Sale, tier models.CustomerTier, now time.Time) TierProgress {
	cutoff := tier.Period.Before(now)
	p := TierProgress{Visits: customer.ManualVisitAdjustment}
	for _, s := range sales {
		if s.Customer.WalkIn || s.Customer.ID != customer.ID {
			continue
		}
		if s.SaleTime.Before(cutoff) {
			continue
		}
		p.Visits++
		p.Spend = p.Spend.Add(s.AmountPaid)
	}
	return p
}

// BaseTier returns the rank 0 tier, or a 1x placeholder if the catalog has none.
func BaseTier(tiers []models.CustomerTier) models.CustomerTier {
	for _, t := range tiers {
		if t.Rank == 0 {
			return t
		}
	}
	return models.CustomerTier{ID: "standard", Name: "Standard", PointsMultiplier: 1}
}

// FindTier looks a tier up by id.
func FindTier(tiers []models.CustomerTier, id string) (models.CustomerTier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}
	return models.CustomerTier{}, false
}
