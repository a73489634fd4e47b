package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/loyalty"
	"go-pos-ledger/internal/models"
)

// CustomerSummary is the account view shown at the till.
type CustomerSummary struct {
	Customer     models.Customer             `json:"customer"`
	Tier         models.CustomerTier         `json:"tier"`
	NextTier     *models.CustomerTier        `json:"next_tier,omitempty"`
	Progress     loyalty.TierProgress        `json:"progress"`
	ExpiringSoon int                         `json:"expiring_soon"`
	Sales        []models.Sale               `json:"sales"`
	Ledger       []models.LoyaltyTransaction `json:"ledger"`
	Payments     []models.Payment            `json:"payments"`
}

// CustomerSummary returns the account summary for a bike number.
func (e *Engine) CustomerSummary(ctx context.Context, id string) (*CustomerSummary, error) {
	var out CustomerSummary
	err := e.view(ctx, func(st *models.State, now time.Time) error {
		c, err := customer(st, id)
		if err != nil {
			return err
		}
		settings := e.settingsOf(st)
		sales := st.CustomerSales(c.ID)
		ledger := st.CustomerLedger(c.ID)

		out = CustomerSummary{
			Customer:     c,
			Tier:         loyalty.EvaluateTier(c, sales, settings.Tiers, now),
			ExpiringSoon: loyalty.ExpiringSoon(c, ledger, settings.Expiry, now),
			Sales:        sales,
			Ledger:       ledger,
		}
		if next, ok := nextTier(settings.Tiers, out.Tier); ok {
			out.NextTier = &next
			out.Progress = loyalty.Progress(c, sales, next, now)
		}
		for _, p := range st.Payments {
			if p.CustomerID == c.ID {
				out.Payments = append(out.Payments, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func nextTier(tiers []models.CustomerTier, current models.CustomerTier) (models.CustomerTier, bool) {
	var (
		next  models.CustomerTier
		found bool
	)
	for _, t := range tiers {
		if t.Rank <= current.Rank {
			continue
		}
		if !found || t.Rank < next.Rank {
			next, found = t, true
		}
	}
	return next, found
}

// AdjustPoints adds (delta > 0) or removes (delta < 0) points by hand.
func (e *Engine) AdjustPoints(ctx context.Context, customerID string, delta int, reason string) (*models.LoyaltyTransaction, error) {
	actor := actorName(ctx)
	var tx models.LoyaltyTransaction
	err := e.mutate(ctx, "adjust points", func(st *models.State, now time.Time) error {
		c, err := customer(st, customerID)
		if err != nil {
			return err
		}
		tx, err = loyalty.ManualEntry(c.ID, c.LoyaltyPoints, delta, reason, now, actor)
		if err != nil {
			return err
		}
		tx.Seq = st.NextLedgerSeq()
		st.Ledger = append(st.Ledger, tx)
		c.LoyaltyPoints = tx.PointsAfter
		st.Customers[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("points adjusted",
		zap.String("customer_id", tx.CustomerID),
		zap.String("type", string(tx.Type)),
		zap.Int("points", tx.Points),
		zap.String("reason", reason))
	return &tx, nil
}

// RecordPayment settles part or all of an outstanding balance.
func (e *Engine) RecordPayment(ctx context.Context, customerID string, amount decimal.Decimal, notes string) (*models.Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment must be positive", errs.ErrInvalidInput)
	}
	actor := actorName(ctx)
	var pay models.Payment
	err := e.mutate(ctx, "record payment", func(st *models.State, now time.Time) error {
		c, err := customer(st, customerID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(c.Balance) {
			return fmt.Errorf("%w: paying %s against %s", errs.ErrPaymentExceedsBalance, amount.StringFixed(2), c.Balance.StringFixed(2))
		}
		pay = models.Payment{
			ID:         uuid.NewString(),
			CustomerID: c.ID,
			Amount:     amount,
			Timestamp:  now,
			Notes:      notes,
			Actor:      actor,
		}
		st.Payments = append(st.Payments, pay)
		c.Balance = c.Balance.Sub(amount)
		st.Customers[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("payment recorded",
		zap.String("customer_id", pay.CustomerID),
		zap.String("amount", pay.Amount.StringFixed(2)))
	return &pay, nil
}

// AdjustVisits sets the manual visit count added to a customer's tier
// progress, then re-evaluates the tier.
func (e *Engine) AdjustVisits(ctx context.Context, customerID string, adjustment int) (*models.Customer, error) {
	var out models.Customer
	err := e.mutate(ctx, "adjust visits", func(st *models.State, now time.Time) error {
		c, err := customer(st, customerID)
		if err != nil {
			return err
		}
		c.ManualVisitAdjustment = adjustment
		c.TierID = loyalty.EvaluateTier(c, st.CustomerSales(c.ID), e.settingsOf(st).Tiers, now).ID
		st.Customers[c.ID] = c
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
