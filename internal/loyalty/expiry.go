package loyalty

import (
	"time"

	"go-pos-ledger/internal/models"
)

// ExpiringSoon estimates how many of the customer's unspent points lapse
// within the reminder window. Points are spent oldest first. Nothing is
// removed from the ledger.
func ExpiringSoon(customer models.Customer, ledger []models.LoyaltyTransaction, policy models.ExpiryPolicy, now time.Time) int {
	if !policy.Enabled || customer.LoyaltyPoints <= 0 {
		return 0
	}
	if customer.LastSeen.Before(policy.InactivityPeriod.Before(now)) {
		return 0
	}

	var credits []models.LoyaltyTransaction
	debits := 0
	for _, tx := range ledger {
		if tx.CustomerID != customer.ID {
			continue
		}
		if tx.Type.IsCredit() {
			credits = append(credits, tx)
		} else {
			debits += tx.Points
		}
	}
	models.SortLedger(credits)

	horizon := policy.ReminderPeriod.After(now)
	expiring := 0
	for _, credit := range credits {
		unspent := credit.Points
		if debits > 0 {
			used := min(debits, unspent)
			debits -= used
			unspent -= used
		}
		if unspent <= 0 {
			continue
		}
		expiry := policy.PointsLifespan.After(credit.Timestamp)
		if expiry.After(now) && !expiry.After(horizon) {
			expiring += unspent
		}
	}
	return expiring
}
