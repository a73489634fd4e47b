package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/loyalty"
	"go-pos-ledger/internal/models"
	"go-pos-ledger/internal/pricing"
)

// SaleInput is a cart ready to be committed.
type SaleInput struct {
	Customer        models.CustomerRef      `json:"customer"`
	CustomerName    string                  `json:"customer_name"`
	CustomerPhone   string                  `json:"customer_phone"`
	Lines           []models.CartLine       `json:"lines"`
	TuningCharge    decimal.Decimal         `json:"tuning_charge"`
	LaborCharge     decimal.Decimal         `json:"labor_charge"`
	OutsideServices []models.OutsideService `json:"outside_services"`
	OverallDiscount models.Discount         `json:"overall_discount"`
	RedeemPoints    int                     `json:"redeem_points"`
	AmountPaid      decimal.Decimal         `json:"amount_paid"`
}

func (in SaleInput) pricingInput() pricing.Input {
	return pricing.Input{
		Lines:           in.Lines,
		TuningCharge:    in.TuningCharge,
		LaborCharge:     in.LaborCharge,
		OutsideServices: in.OutsideServices,
		OverallDiscount: in.OverallDiscount,
	}
}

func (in SaleInput) validate() error {
	if !in.Customer.WalkIn && in.Customer.ID == "" {
		return fmt.Errorf("%w: customer id is required unless the sale is walk-in", errs.ErrInvalidInput)
	}
	if len(in.Lines) == 0 && in.TuningCharge.IsZero() && in.LaborCharge.IsZero() && len(in.OutsideServices) == 0 {
		return fmt.Errorf("%w: sale has nothing to charge for", errs.ErrInvalidInput)
	}
	if in.AmountPaid.IsNegative() {
		return fmt.Errorf("%w: amount paid must not be negative", errs.ErrInvalidInput)
	}
	if in.Customer.WalkIn && in.RedeemPoints > 0 {
		return fmt.Errorf("%w: walk-in customers have no points to redeem", errs.ErrInvalidInput)
	}
	for i, line := range in.Lines {
		if line.Item.ProductID == "" && line.Item.ManualLabel == "" {
			return fmt.Errorf("%w: line %d references no product", errs.ErrInvalidInput, i)
		}
	}
	return nil
}

// multipliers is the tier and promotion a sale is settled under.
type multipliers struct {
	tierName  string
	tier      float64
	promoName string
	promo     float64
}

func currentMultipliers(settings models.LoyaltySettings, tier models.CustomerTier, now time.Time) multipliers {
	m := multipliers{tierName: tier.Name, tier: tier.PointsMultiplier, promo: 1}
	if m.tier <= 0 {
		m.tier = 1
	}
	if p, ok := loyalty.ActivePromotion(settings.Promotions, now); ok {
		m.promoName, m.promo = p.Name, p.Multiplier
	}
	return m
}

// settlement is the money and points outcome of a cart.
type settlement struct {
	breakdown       pricing.Breakdown
	loyaltyDiscount decimal.Decimal
	total           decimal.Decimal
	balanceDue      decimal.Decimal
	status          models.PaymentStatus
	earned          int
	redeemed        int
	mult            multipliers
}

// settle prices the cart, applies the redemption against pointsAvailable and
// works out points earned and what is still owed on top of priorBalance.
func settle(settings models.LoyaltySettings, in SaleInput, pointsAvailable int, priorBalance decimal.Decimal, mult multipliers) (settlement, error) {
	p := in.pricingInput()
	if err := pricing.Validate(p); err != nil {
		return settlement{}, err
	}
	if err := loyalty.CheckRedemption(in.RedeemPoints, pointsAvailable); err != nil {
		return settlement{}, err
	}

	s := settlement{breakdown: pricing.Calculate(p), redeemed: in.RedeemPoints, mult: mult}
	s.loyaltyDiscount = loyalty.RedemptionValue(settings.Redemption, in.RedeemPoints, s.breakdown.PreLoyaltyTotal)
	s.total = s.breakdown.PreLoyaltyTotal.Sub(s.loyaltyDiscount)

	payable := s.total.Round(0).Add(priorBalance)
	if in.AmountPaid.GreaterThan(payable) {
		return settlement{}, fmt.Errorf("%w: paid %s, payable %s", errs.ErrPaymentExceedsBalance, in.AmountPaid.StringFixed(2), payable.StringFixed(2))
	}
	if in.Customer.WalkIn && in.AmountPaid.LessThan(payable) {
		return settlement{}, fmt.Errorf("%w: walk-in sales must be paid in full (%s)", errs.ErrInvalidInput, payable.StringFixed(2))
	}
	s.balanceDue = payable.Sub(in.AmountPaid)
	s.status = paymentStatus(s.balanceDue, in.AmountPaid)

	if !in.Customer.WalkIn {
		b := s.breakdown
		net := loyalty.NetItemRevenue(
			b.SubtotalAfterItemDiscounts,
			b.Charges.Add(b.OutsideServicesTotal),
			b.OverallDiscountAmount,
			s.loyaltyDiscount,
		)
		s.earned = loyalty.PointsEarned(settings.EarningRules, net, mult.tier, mult.promo)
	}
	return s, nil
}

func paymentStatus(balanceDue, paid decimal.Decimal) models.PaymentStatus {
	switch {
	case !balanceDue.IsPositive():
		return models.PaymentPaid
	case paid.IsPositive():
		return models.PaymentPartial
	default:
		return models.PaymentUnpaid
	}
}

// buildSale writes a settlement into a sale record.
func buildSale(id string, in SaleInput, s settlement) models.Sale {
	b := s.breakdown
	lines := make([]models.SaleLine, len(in.Lines))
	for i, line := range in.Lines {
		lines[i] = models.SaleLine{
			SaleID:              id,
			Position:            i,
			Item:                line.Item,
			Name:                line.Name,
			Quantity:            line.Quantity,
			UnitPrice:           line.UnitPrice,
			Discount:            line.Discount,
			DiscountedUnitPrice: b.Lines[i].FinalUnitPrice,
		}
	}
	return models.Sale{
		ID:                    id,
		Customer:              in.Customer,
		Lines:                 lines,
		Subtotal:              b.Subtotal,
		ItemDiscountTotal:     b.TotalItemDiscounts,
		TuningCharge:          in.TuningCharge,
		LaborCharge:           in.LaborCharge,
		OutsideServices:       append([]models.OutsideService(nil), in.OutsideServices...),
		OutsideServicesTotal:  b.OutsideServicesTotal,
		OverallDiscount:       in.OverallDiscount,
		OverallDiscountAmount: b.OverallDiscountAmount,
		LoyaltyDiscount:       s.loyaltyDiscount,
		Total:                 s.total,
		AmountPaid:            in.AmountPaid,
		PaymentStatus:         s.status,
		BalanceDue:            s.balanceDue,
		PointsEarned:          s.earned,
		PointsRedeemed:        s.redeemed,
		TierName:              s.mult.tierName,
		TierMultiplier:        s.mult.tier,
		PromotionName:         s.mult.promoName,
		PromotionMultiplier:   s.mult.promo,
	}
}

// nextSaleID is the minute stamp YYMMDDHHmm, suffixed -1, -2, ... when that
// id already names a sale or is referenced from the ledger.
func nextSaleID(st *models.State, now time.Time) string {
	base := now.Format("0601021504")
	if !st.SaleIDInUse(base) {
		return base
	}
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s-%d", base, n)
		if !st.SaleIDInUse(id) {
			return id
		}
	}
}

func normalizeRef(ref models.CustomerRef) models.CustomerRef {
	if ref.WalkIn {
		return models.WalkIn()
	}
	return models.Identified(ref.ID)
}

// CreateSale commits a new sale.
func (e *Engine) CreateSale(ctx context.Context, in SaleInput) (*models.Sale, error) {
	in.Customer = normalizeRef(in.Customer)
	if err := in.validate(); err != nil {
		return nil, err
	}
	actor := actorName(ctx)

	var sale models.Sale
	err := e.mutate(ctx, "create sale", func(st *models.State, now time.Time) error {
		settings := e.settingsOf(st)

		lines, err := fillFromCatalog(st.Products, in.Lines)
		if err != nil {
			return err
		}
		in.Lines = lines

		cust, known := st.Customers[in.Customer.ID]
		if in.Customer.WalkIn {
			cust, known = models.Customer{}, false
		}

		tier := loyalty.BaseTier(settings.Tiers)
		if !in.Customer.WalkIn {
			tier = loyalty.EvaluateTier(cust, st.CustomerSales(cust.ID), settings.Tiers, now)
		}

		s, err := settle(settings, in, cust.LoyaltyPoints, cust.Balance, currentMultipliers(settings, tier, now))
		if err != nil {
			return err
		}
		if err := deductStock(st.Products, in.Lines); err != nil {
			return err
		}

		id := nextSaleID(st, now)
		sale = buildSale(id, in, s)
		sale.PriorBalance = cust.Balance
		sale.Status = models.SaleCommitted
		sale.SaleTime = now
		sale.CreatedBy = actor

		if in.Customer.WalkIn {
			st.Sales[id] = sale
			return nil
		}
		sale.LedgerSeq = st.NextLedgerSeq()

		if !known {
			cust = models.Customer{ID: in.Customer.ID, FirstSeen: now}
		}
		if in.CustomerName != "" {
			cust.Name = in.CustomerName
		}
		if in.CustomerPhone != "" {
			cust.Phone = in.CustomerPhone
		}

		entries := loyalty.SaleEntries(cust.ID, id, sale.LedgerSeq, cust.LoyaltyPoints, s.earned, s.redeemed, now, actor)
		st.Ledger = append(st.Ledger, entries...)

		cust.SaleIDs = append(cust.SaleIDs, id)
		cust.LoyaltyPoints = cust.LoyaltyPoints + s.earned - s.redeemed
		cust.Balance = s.balanceDue
		cust.LastSeen = now
		sale.PointsBalance = cust.LoyaltyPoints

		st.Sales[id] = sale
		cust.TierID = loyalty.EvaluateTier(cust, st.CustomerSales(cust.ID), settings.Tiers, now).ID
		st.Customers[cust.ID] = cust
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("customer_id", sale.Customer.ID),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("points_earned", sale.PointsEarned),
		zap.Int("points_redeemed", sale.PointsRedeemed))
	return &sale, nil
}

// UpdateSale replaces a sale's cart and settlement. The sale keeps its id,
// time, customer and carried-forward balance; the customer's points and
// balance move by the difference between the old and new settlement.
func (e *Engine) UpdateSale(ctx context.Context, saleID string, in SaleInput) (*models.Sale, error) {
	in.Customer = normalizeRef(in.Customer)
	if err := in.validate(); err != nil {
		return nil, err
	}
	actor := actorName(ctx)

	var sale models.Sale
	err := e.mutate(ctx, "update sale", func(st *models.State, now time.Time) error {
		settings := e.settingsOf(st)

		old, ok := st.Sales[saleID]
		if !ok {
			return fmt.Errorf("%w: sale %s", errs.ErrNotFound, saleID)
		}
		if old.Status == models.SalePartiallyReversed {
			return fmt.Errorf("%w: sale %s was partially returned", errs.ErrSaleClosed, saleID)
		}
		if old.Customer != in.Customer {
			return fmt.Errorf("%w: a sale cannot be moved to another customer", errs.ErrInvalidInput)
		}

		restoreStock(st.Products, old.Lines)
		lines, err := fillFromCatalog(st.Products, in.Lines)
		if err != nil {
			return err
		}
		in.Lines = lines
		if err := deductStock(st.Products, in.Lines); err != nil {
			return err
		}

		cust := st.Customers[in.Customer.ID]
		oldDelta := old.PointsEarned - old.PointsRedeemed
		available := max(0, cust.LoyaltyPoints-oldDelta)

		mult := multipliers{tierName: old.TierName, tier: old.TierMultiplier, promoName: old.PromotionName, promo: old.PromotionMultiplier}
		if in.Customer.WalkIn {
			available = 0
		}
		s, err := settle(settings, in, available, old.PriorBalance, mult)
		if err != nil {
			return err
		}

		sale = buildSale(saleID, in, s)
		sale.PriorBalance = old.PriorBalance
		sale.SaleTime = old.SaleTime
		sale.CreatedBy = old.CreatedBy
		sale.Status = models.SaleUpdated
		sale.UpdatedAt = &now
		sale.LedgerSeq = old.LedgerSeq

		if in.Customer.WalkIn {
			st.Sales[saleID] = sale
			return nil
		}
		if sale.LedgerSeq == 0 {
			sale.LedgerSeq = st.NextLedgerSeq()
		}

		// The new entries take the old ones' slot in the chain. The replay
		// must not go below zero anywhere after it.
		opening := ledgerOpening(st, cust)
		st.RemoveSaleLedger(saleID)
		entries := append(st.CustomerLedger(cust.ID),
			loyalty.SaleEntries(cust.ID, saleID, sale.LedgerSeq, 0, s.earned, s.redeemed, old.SaleTime, actor)...)
		loyalty.Rechain(entries, opening)
		points := cust.LoyaltyPoints + s.earned - s.redeemed - oldDelta
		if short := max(loyalty.Shortfall(entries), -points); short > 0 {
			return fmt.Errorf("%w: %d points of this sale were already spent", errs.ErrInsufficientLoyaltyBalance, short)
		}
		st.ReplaceCustomerLedger(cust.ID, entries)

		cust.LoyaltyPoints = points
		cust.Balance = decimal.Max(decimal.Zero, cust.Balance.Add(s.balanceDue).Sub(old.BalanceDue))
		if in.CustomerName != "" {
			cust.Name = in.CustomerName
		}
		if in.CustomerPhone != "" {
			cust.Phone = in.CustomerPhone
		}
		sale.PointsBalance = cust.LoyaltyPoints

		st.Sales[saleID] = sale
		cust.TierID = loyalty.EvaluateTier(cust, st.CustomerSales(cust.ID), settings.Tiers, now).ID
		st.Customers[cust.ID] = cust
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("sale updated",
		zap.String("sale_id", sale.ID),
		zap.String("customer_id", sale.Customer.ID),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("points_earned", sale.PointsEarned),
		zap.Int("points_redeemed", sale.PointsRedeemed))
	return &sale, nil
}

// Sale returns one sale by id.
func (e *Engine) Sale(ctx context.Context, id string) (*models.Sale, error) {
	var out models.Sale
	err := e.view(ctx, func(st *models.State, _ time.Time) error {
		s, ok := st.Sales[id]
		if !ok {
			return fmt.Errorf("%w: sale %s", errs.ErrNotFound, id)
		}
		out = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ledgerOpening is the balance the customer's ledger starts from.
func ledgerOpening(st *models.State, c models.Customer) int {
	entries := st.CustomerLedger(c.ID)
	if len(entries) == 0 {
		return c.LoyaltyPoints
	}
	return entries[0].PointsBefore
}
