package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ledger/internal/errs"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestDiscountAmountOf(t *testing.T) {
	assert.True(t, FixedDiscount(d("50")).AmountOf(d("1000")).Equal(d("50")))
	assert.True(t, PercentDiscount(d("10")).AmountOf(d("1000")).Equal(d("100")))
	assert.True(t, Discount{}.AmountOf(d("1000")).IsZero())
	assert.True(t, Discount{}.IsZero())
}

func TestNormalizeCustomerID(t *testing.T) {
	assert.Equal(t, "AB12-34", NormalizeCustomerID(" ab 12-34 "))
	assert.Equal(t, "KA01X9", Identified("ka01 x9").ID)
	assert.True(t, WalkIn().WalkIn)
	assert.True(t, ManualItem("Puncture repair").IsManual())
	assert.False(t, CatalogItem("p1").IsManual())
}

func TestEarningRuleContains(t *testing.T) {
	upper := d("500")
	band := EarningRule{MinSpend: d("0"), MaxSpend: &upper}
	assert.True(t, band.Contains(d("0")))
	assert.True(t, band.Contains(d("499.99")))
	assert.False(t, band.Contains(d("500")))

	open := EarningRule{MinSpend: d("500")}
	assert.True(t, open.Contains(d("100000")))
	assert.False(t, open.Contains(d("10")))
}

func TestPromotionCoversInclusiveDays(t *testing.T) {
	p := Promotion{Name: "Diwali", StartDate: "2026-10-10", EndDate: "2026-10-12", Multiplier: 2}
	loc := time.FixedZone("IST", 5*3600+1800)

	assert.True(t, p.Covers(time.Date(2026, 10, 10, 0, 0, 0, 0, loc)))
	assert.True(t, p.Covers(time.Date(2026, 10, 12, 23, 59, 0, 0, loc)))
	assert.False(t, p.Covers(time.Date(2026, 10, 13, 0, 1, 0, 0, loc)))
	assert.False(t, Promotion{StartDate: "bad", EndDate: "2026-10-12"}.Covers(time.Now()))
}

func TestPeriodArithmetic(t *testing.T) {
	base := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 24, 12, 0, 0, 0, time.UTC), Period{1, PeriodWeeks}.Before(base))
	assert.Equal(t, time.Date(2027, 3, 31, 12, 0, 0, 0, time.UTC), Period{1, PeriodYears}.After(base))
	assert.Equal(t, time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC), Period{10, PeriodDays}.Before(base))
}

func TestValidateSettings(t *testing.T) {
	require.NoError(t, DefaultLoyaltySettings().Validate())

	noBase := DefaultLoyaltySettings()
	noBase.Tiers[0].Rank = 1
	assert.Error(t, noBase.Validate())

	badPromo := DefaultLoyaltySettings()
	badPromo.Promotions = []Promotion{{Name: "x", StartDate: "2026-01-01", EndDate: "2026-01-02", Multiplier: 1}}
	assert.Error(t, badPromo.Validate())

	dupRank := DefaultLoyaltySettings()
	dupRank.Tiers = append(dupRank.Tiers, CustomerTier{ID: "gold", Name: "Gold", PointsMultiplier: 2, Rank: 0})
	assert.Error(t, dupRank.Validate())

	badRedeem := DefaultLoyaltySettings()
	badRedeem.Redemption.Points = 0
	assert.Error(t, badRedeem.Validate())

	zeroWindow := DefaultLoyaltySettings()
	zeroWindow.Tiers = append(zeroWindow.Tiers, CustomerTier{ID: "gold", Name: "Gold", MinVisits: 3,
		PointsMultiplier: 2, Rank: 1, Period: Period{Value: 0, Unit: PeriodYears}})
	assert.Error(t, zeroWindow.Validate())

	expiry := DefaultLoyaltySettings()
	expiry.Expiry = ExpiryPolicy{
		Enabled:          true,
		PointsLifespan:   Period{1, PeriodYears},
		ReminderPeriod:   Period{30, PeriodDays},
		InactivityPeriod: Period{18, PeriodMonths},
	}
	require.NoError(t, expiry.Validate())
	expiry.Expiry.InactivityPeriod = Period{0, PeriodMonths}
	assert.ErrorIs(t, expiry.Validate(), errs.ErrInvalidInput)
}

func TestStateCloneIsDeep(t *testing.T) {
	st := NewState()
	st.Customers["C1"] = Customer{ID: "C1", SaleIDs: []string{"s1"}}
	st.Sales["s1"] = Sale{ID: "s1", Lines: []SaleLine{{Name: "Chain", Quantity: 1}}}
	settings := DefaultLoyaltySettings()
	st.Settings = &settings

	cp := st.Clone()
	c := cp.Customers["C1"]
	c.SaleIDs[0] = "changed"
	cp.Sales["s1"].Lines[0].Quantity = 9
	cp.Settings.Tiers[0].Name = "changed"

	assert.Equal(t, "s1", st.Customers["C1"].SaleIDs[0])
	assert.Equal(t, 1, st.Sales["s1"].Lines[0].Quantity)
	assert.Equal(t, "Standard", st.Settings.Tiers[0].Name)
}

func TestCustomerLedgerOrdersBySequenceWithinAnInstant(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	st := NewState()
	// two sales at the same instant: s1 holds slots 1-2, s2 holds 3-4
	st.Ledger = []LoyaltyTransaction{
		{ID: "s2-redeem", CustomerID: "C1", Type: LedgerRedeemed, Timestamp: at, Seq: 4},
		{ID: "other", CustomerID: "C2", Type: LedgerEarned, Timestamp: at, Seq: 5},
		{ID: "s1-redeem", CustomerID: "C1", Type: LedgerRedeemed, Timestamp: at, Seq: 2},
		{ID: "s2-earn", CustomerID: "C1", Type: LedgerEarned, Timestamp: at, Seq: 3},
		{ID: "s1-earn", CustomerID: "C1", Type: LedgerEarned, Timestamp: at, Seq: 1},
		{ID: "early", CustomerID: "C1", Type: LedgerManualAdd, Timestamp: at.Add(-time.Hour), Seq: 9},
	}

	var ids []string
	for _, tx := range st.CustomerLedger("C1") {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"early", "s1-earn", "s1-redeem", "s2-earn", "s2-redeem"}, ids)
}

func TestNextLedgerSeqSkipsReservedSaleSlots(t *testing.T) {
	st := NewState()
	assert.Equal(t, int64(1), st.NextLedgerSeq())

	st.Ledger = []LoyaltyTransaction{{ID: "a", Seq: 3}}
	assert.Equal(t, int64(4), st.NextLedgerSeq())

	// a sale with no entries still holds both of its slots
	st.Sales["s1"] = Sale{ID: "s1", LedgerSeq: 4}
	assert.Equal(t, int64(6), st.NextLedgerSeq())
}

func TestSaleIDInUse(t *testing.T) {
	st := NewState()
	st.Sales["2610141200"] = Sale{ID: "2610141200"}
	st.Ledger = []LoyaltyTransaction{{ID: "a", SaleID: "2610141159"}}

	assert.True(t, st.SaleIDInUse("2610141200"))
	assert.True(t, st.SaleIDInUse("2610141159"))
	assert.False(t, st.SaleIDInUse("2610141201"))
}
