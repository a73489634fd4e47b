package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-ledger/internal/models"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func sampleState() *models.State {
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	edited := at.Add(time.Hour)
	upper := decimal.NewFromInt(500)

	st := models.NewState()
	st.Products["A"] = models.Product{ID: "A", Barcode: "1001", Name: "Brake pad", Category: "Brakes",
		Quantity: 8, PurchasePrice: decimal.RequireFromString("600.50"), SalePrice: decimal.NewFromInt(1000)}
	st.Customers["BK1"] = models.Customer{ID: "BK1", Name: "Ravi", SaleIDs: []string{"2610141200"},
		FirstSeen: at, LastSeen: at, LoyaltyPoints: 30, TierID: "standard", Balance: decimal.NewFromInt(100)}
	st.Sales["2610141200"] = models.Sale{
		ID:       "2610141200",
		Customer: models.Identified("BK1"),
		Lines: []models.SaleLine{
			{ID: 41, Position: 0, Item: models.CatalogItem("A"), Name: "Brake pad", Quantity: 2,
				UnitPrice: decimal.NewFromInt(1000), Discount: models.PercentDiscount(decimal.NewFromInt(10)),
				DiscountedUnitPrice: decimal.NewFromInt(900)},
			{Position: 1, Item: models.ManualItem("Tube"), Name: "Tube", Quantity: 1,
				UnitPrice: decimal.NewFromInt(80), DiscountedUnitPrice: decimal.NewFromInt(80)},
		},
		Subtotal:        decimal.NewFromInt(2080),
		OutsideServices: []models.OutsideService{{Description: "Wheel build", Amount: decimal.NewFromInt(300)}},
		Total:           decimal.NewFromInt(2180),
		AmountPaid:      decimal.NewFromInt(2080),
		BalanceDue:      decimal.NewFromInt(100),
		PaymentStatus:   models.PaymentPartial,
		PointsEarned:    30,
		PointsBalance:   30,
		TierName:        "Standard",
		TierMultiplier:  1,
		Status:          models.SaleUpdated,
		SaleTime:        at,
		UpdatedAt:       &edited,
		CreatedBy:       "ravi",
		LedgerSeq:       1,
	}
	st.Ledger = []models.LoyaltyTransaction{{ID: "tx-1", CustomerID: "BK1", Type: models.LedgerEarned, Points: 30,
		Timestamp: at, Seq: 1, SaleID: "2610141200", PointsBefore: 0, PointsAfter: 30, Actor: "ravi"}}
	st.Payments = []models.Payment{{ID: "pay-1", CustomerID: "BK1", Amount: decimal.NewFromInt(50), Timestamp: edited}}

	settings := models.DefaultLoyaltySettings()
	settings.EarningRules = append(settings.EarningRules, models.EarningRule{MinSpend: upper, PointsPerHundred: 2})
	settings.EarningRules[0].MaxSpend = &upper
	st.Settings = &settings
	return st
}

func TestGormStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Products)
	assert.Nil(t, empty.Settings)

	require.NoError(t, store.Save(ctx, sampleState()))
	got, err := store.Load(ctx)
	require.NoError(t, err)

	p := got.Products["A"]
	assert.Equal(t, 8, p.Quantity)
	assert.True(t, p.PurchasePrice.Equal(decimal.RequireFromString("600.50")))

	c := got.Customers["BK1"]
	assert.Equal(t, []string{"2610141200"}, c.SaleIDs)
	assert.Equal(t, 30, c.LoyaltyPoints)
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(100)))

	sale := got.Sales["2610141200"]
	assert.Equal(t, models.Identified("BK1"), sale.Customer)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, "A", sale.Lines[0].Item.ProductID)
	assert.Equal(t, models.DiscountPercentage, sale.Lines[0].Discount.Kind)
	assert.True(t, sale.Lines[1].Item.IsManual())
	require.Len(t, sale.OutsideServices, 1)
	assert.Equal(t, "Wheel build", sale.OutsideServices[0].Description)
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(2180)))
	assert.Equal(t, models.SaleUpdated, sale.Status)
	require.NotNil(t, sale.UpdatedAt)
	assert.True(t, sale.UpdatedAt.Equal(sale.SaleTime.Add(time.Hour)))
	assert.Equal(t, int64(1), sale.LedgerSeq)

	require.Len(t, got.Ledger, 1)
	assert.Equal(t, 30, got.Ledger[0].PointsAfter)
	assert.Equal(t, int64(1), got.Ledger[0].Seq)
	require.Len(t, got.Payments, 1)

	require.NotNil(t, got.Settings)
	require.Len(t, got.Settings.EarningRules, 2)
	require.NotNil(t, got.Settings.EarningRules[0].MaxSpend)
	assert.True(t, got.Settings.EarningRules[0].MaxSpend.Equal(decimal.NewFromInt(500)))
}

func TestGormStoreSaveReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleState()))

	// saving a loaded state twice must not duplicate child rows
	st, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, st))

	next := sampleState()
	delete(next.Sales, "2610141200")
	next.Ledger = nil
	next.Settings = nil
	require.NoError(t, store.Save(ctx, next))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Sales)
	assert.Empty(t, got.Ledger)
	assert.Nil(t, got.Settings)
	assert.Len(t, got.Payments, 1)

	var lines int64
	require.NoError(t, store.db.Model(&models.SaleLine{}).Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore(sampleState())
	ctx := context.Background()

	st, err := store.Load(ctx)
	require.NoError(t, err)
	p := st.Products["A"]
	p.Quantity = 0
	st.Products["A"] = p

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, again.Products["A"].Quantity)

	require.NoError(t, store.Save(ctx, st))
	st.Products["A"] = models.Product{ID: "A", Quantity: 99}
	again, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Products["A"].Quantity)
}
