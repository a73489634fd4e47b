package loyalty

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

// NewID generates ledger entry ids. Tests may swap it.
var NewID = uuid.NewString

// SaleEntries records what a sale did to a balance of before points: at most
// one earned entry at seq, then at most one redeemed entry at seq+1.
func SaleEntries(customerID, saleID string, seq int64, before, earned, redeemed int, at time.Time, actor string) []models.LoyaltyTransaction {
	var out []models.LoyaltyTransaction
	balance := before
	if earned > 0 {
		out = append(out, models.LoyaltyTransaction{
			ID:           NewID(),
			CustomerID:   customerID,
			Type:         models.LedgerEarned,
			Points:       earned,
			Timestamp:    at,
			Seq:          seq,
			SaleID:       saleID,
			PointsBefore: balance,
			PointsAfter:  balance + earned,
			Actor:        actor,
		})
		balance += earned
	}
	if redeemed > 0 {
		out = append(out, models.LoyaltyTransaction{
			ID:           NewID(),
			CustomerID:   customerID,
			Type:         models.LedgerRedeemed,
			Points:       redeemed,
			Timestamp:    at,
			Seq:          seq + 1,
			SaleID:       saleID,
			PointsBefore: balance,
			PointsAfter:  balance - redeemed,
			Actor:        actor,
		})
	}
	return out
}

// ManualEntry records a hand adjustment of delta points (positive adds,
// negative subtracts). It refuses to take the balance below zero.
func ManualEntry(customerID string, balance, delta int, reason string, at time.Time, actor string) (models.LoyaltyTransaction, error) {
	if delta == 0 {
		return models.LoyaltyTransaction{}, fmt.Errorf("%w: adjustment must not be zero", errs.ErrInvalidInput)
	}
	tx := models.LoyaltyTransaction{
		ID:           NewID(),
		CustomerID:   customerID,
		Type:         models.LedgerManualAdd,
		Points:       delta,
		Timestamp:    at,
		Reason:       reason,
		PointsBefore: balance,
		PointsAfter:  balance + delta,
		Actor:        actor,
	}
	if delta < 0 {
		if balance+delta < 0 {
			return models.LoyaltyTransaction{}, fmt.Errorf("%w: cannot subtract %d from %d", errs.ErrInsufficientLoyaltyBalance, -delta, balance)
		}
		tx.Type = models.LedgerManualSubtract
		tx.Points = -delta
	}
	return tx, nil
}

// Rechain recomputes before/after snapshots by replaying entries in
// chronological order from opening. It returns the closing balance.
func Rechain(entries []models.LoyaltyTransaction, opening int) int {
	models.SortLedger(entries)
	balance := opening
	for i := range entries {
		entries[i].PointsBefore = balance
		balance += entries[i].Type.Signed(entries[i].Points)
		entries[i].PointsAfter = balance
	}
	return balance
}

// Shortfall is how far the lowest snapshot of a chained ledger sits below
// zero, or 0 when the balance never goes negative.
func Shortfall(entries []models.LoyaltyTransaction) int {
	short := 0
	for _, tx := range entries {
		short = max(short, -tx.PointsAfter)
	}
	return short
}

// Verify replays entries as recorded and reports the first break in the
// chain, or a closing balance different from want.
func Verify(entries []models.LoyaltyTransaction, want int) error {
	sorted := append([]models.LoyaltyTransaction(nil), entries...)
	models.SortLedger(sorted)
	if len(sorted) == 0 {
		return nil
	}
	balance := sorted[0].PointsBefore
	for _, tx := range sorted {
		if tx.Points <= 0 {
			return fmt.Errorf("entry %s: points must be a positive magnitude, got %d", tx.ID, tx.Points)
		}
		if tx.PointsBefore != balance {
			return fmt.Errorf("entry %s: points before %d, running balance %d", tx.ID, tx.PointsBefore, balance)
		}
		balance += tx.Type.Signed(tx.Points)
		if tx.PointsAfter != balance {
			return fmt.Errorf("entry %s: points after %d, expected %d", tx.ID, tx.PointsAfter, balance)
		}
		if balance < 0 {
			return fmt.Errorf("entry %s: balance drops to %d", tx.ID, balance)
		}
	}
	if balance != want {
		return fmt.Errorf("ledger closes at %d, customer holds %d", balance, want)
	}
	return nil
}
