package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/loyalty"
	"go-pos-ledger/internal/models"
	"go-pos-ledger/internal/pricing"
)

// PartialReturnWarning is attached to every partial reversal.
const PartialReturnWarning = "partial return: loyalty points and customer balance were not recalculated; adjust them manually if needed"

// spentPointsWarning is attached to a full reversal whose earned points had
// already been spent. It takes the number of points credited back.
const spentPointsWarning = "full return: %d points earned by this sale were already spent and were credited back as a manual adjustment"

// ReversalResult reports what a reversal did. Sale is nil when the whole sale
// was removed.
type ReversalResult struct {
	SaleID        string           `json:"sale_id"`
	Full          bool             `json:"full"`
	ReturnedLines []int            `json:"returned_lines"`
	Sale          *models.Sale     `json:"sale,omitempty"`
	Customer      *models.Customer `json:"customer,omitempty"`
	Warning       string           `json:"warning,omitempty"`
}

// ReverseSale returns lines of a sale to stock. With no line positions, or
// with every position, the sale is undone completely: stock, points and
// balance go back to where they were. Returning only some lines reprices the
// remaining cart and closes the sale to further edits.
func (e *Engine) ReverseSale(ctx context.Context, saleID string, lines []int) (*ReversalResult, error) {
	actor := actorName(ctx)
	var res ReversalResult
	err := e.mutate(ctx, "reverse sale", func(st *models.State, now time.Time) error {
		sale, ok := st.Sales[saleID]
		if !ok {
			return fmt.Errorf("%w: sale %s", errs.ErrNotFound, saleID)
		}
		if sale.Status == models.SalePartiallyReversed {
			return fmt.Errorf("%w: sale %s was already partially returned", errs.ErrSaleClosed, saleID)
		}

		returned, err := returnedPositions(len(sale.Lines), lines)
		if err != nil {
			return err
		}
		res = ReversalResult{SaleID: saleID, ReturnedLines: returned}

		var back, kept []models.SaleLine
		for i, line := range sale.Lines {
			if slices.Contains(returned, i) {
				back = append(back, line)
			} else {
				kept = append(kept, line)
			}
		}
		restoreStock(st.Products, back)

		if len(kept) == 0 {
			res.Full = true
			return e.undoSale(st, sale, now, actor, &res)
		}

		sale = repriced(sale, kept)
		sale.Status = models.SalePartiallyReversed
		sale.UpdatedAt = &now
		st.Sales[saleID] = sale

		res.Sale = &sale
		res.Warning = PartialReturnWarning
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("sale reversed",
		zap.String("sale_id", saleID),
		zap.Bool("full", res.Full),
		zap.Ints("lines", res.ReturnedLines))
	return &res, nil
}

// undoSale removes sale and rolls its effects off the customer account.
// When later activity already spent the points the sale earned, the gap is
// credited back with a manual_add entry in the sale's slot, so the ledger
// never dips below zero and still closes at the customer's points.
func (e *Engine) undoSale(st *models.State, sale models.Sale, now time.Time, actor string, res *ReversalResult) error {
	delete(st.Sales, sale.ID)
	if sale.Customer.WalkIn {
		return nil
	}
	cust, ok := st.Customers[sale.Customer.ID]
	if !ok {
		return nil
	}

	opening := ledgerOpening(st, cust)
	st.RemoveSaleLedger(sale.ID)
	entries := st.CustomerLedger(cust.ID)
	loyalty.Rechain(entries, opening)
	cust.LoyaltyPoints = max(0, cust.LoyaltyPoints-sale.PointsEarned+sale.PointsRedeemed)

	if short := loyalty.Shortfall(entries); short > 0 {
		reason := fmt.Sprintf("reversal of sale %s: points already spent", sale.ID)
		credit, err := loyalty.ManualEntry(cust.ID, 0, short, reason, sale.SaleTime, actor)
		if err != nil {
			return err
		}
		credit.SaleID = sale.ID
		credit.Seq = sale.LedgerSeq
		entries = append(entries, credit)
		cust.LoyaltyPoints = loyalty.Rechain(entries, opening)
		res.Warning = fmt.Sprintf(spentPointsWarning, short)
	}
	st.ReplaceCustomerLedger(cust.ID, entries)
	added := sale.BalanceDue.Sub(sale.PriorBalance)
	cust.Balance = decimal.Max(decimal.Zero, cust.Balance.Sub(added))

	ids := cust.SaleIDs[:0:0]
	for _, id := range cust.SaleIDs {
		if id != sale.ID {
			ids = append(ids, id)
		}
	}
	cust.SaleIDs = ids
	cust.TierID = loyalty.EvaluateTier(cust, st.CustomerSales(cust.ID), e.settingsOf(st).Tiers, now).ID
	st.Customers[cust.ID] = cust

	res.Customer = &cust
	return nil
}

// repriced recomputes the money fields of sale over the kept lines. Loyalty,
// payment and balance fields are left as settled.
func repriced(sale models.Sale, kept []models.SaleLine) models.Sale {
	cart := make([]models.CartLine, len(kept))
	for i, l := range kept {
		cart[i] = l.CartLine()
	}
	in := pricing.Input{
		Lines:           cart,
		TuningCharge:    sale.TuningCharge,
		LaborCharge:     sale.LaborCharge,
		OutsideServices: sale.OutsideServices,
		OverallDiscount: sale.OverallDiscount,
	}
	b := pricing.Calculate(in)

	// A fixed overall discount may now be larger than what is left.
	overall := decimal.Min(b.OverallDiscountAmount, b.SubtotalWithCharges)
	pre := b.SubtotalWithCharges.Sub(overall).Add(b.OutsideServicesTotal)

	for i := range kept {
		kept[i].Position = i
		kept[i].DiscountedUnitPrice = b.Lines[i].FinalUnitPrice
	}
	sale.Lines = kept
	sale.Subtotal = b.Subtotal
	sale.ItemDiscountTotal = b.TotalItemDiscounts
	sale.OverallDiscountAmount = overall
	sale.Total = pre.Sub(decimal.Min(sale.LoyaltyDiscount, pre))
	return sale
}

func returnedPositions(n int, lines []int) ([]int, error) {
	if len(lines) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	seen := make(map[int]bool, len(lines))
	for _, i := range lines {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: line %d out of range (sale has %d)", errs.ErrInvalidInput, i, n)
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: line %d listed twice", errs.ErrInvalidInput, i)
		}
		seen[i] = true
	}
	return lines, nil
}
