package loyalty

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

func TestSaleEntriesChainEarnThenRedeem(t *testing.T) {
	at := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	entries := SaleEntries("C1", "2610141000", 7, 100, 30, 50, at, "cashier")

	require.Len(t, entries, 2)
	assert.Equal(t, models.LedgerEarned, entries[0].Type)
	assert.Equal(t, 100, entries[0].PointsBefore)
	assert.Equal(t, 130, entries[0].PointsAfter)
	assert.Equal(t, models.LedgerRedeemed, entries[1].Type)
	assert.Equal(t, 130, entries[1].PointsBefore)
	assert.Equal(t, 80, entries[1].PointsAfter)
	assert.Equal(t, []int64{7, 8}, []int64{entries[0].Seq, entries[1].Seq})
	assert.NoError(t, Verify(entries, 80))
}

func TestSaleEntriesSkipsZeroes(t *testing.T) {
	assert.Empty(t, SaleEntries("C1", "s", 1, 10, 0, 0, time.Now(), ""))
	only := SaleEntries("C1", "s", 1, 10, 0, 5, time.Now(), "")
	require.Len(t, only, 1)
	assert.Equal(t, models.LedgerRedeemed, only[0].Type)
	assert.Equal(t, int64(2), only[0].Seq)
}

func TestManualEntry(t *testing.T) {
	tx, err := ManualEntry("C1", 40, 10, "birthday", time.Now(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerManualAdd, tx.Type)
	assert.Equal(t, 50, tx.PointsAfter)

	tx, err = ManualEntry("C1", 40, -40, "correction", time.Now(), "admin")
	require.NoError(t, err)
	assert.Equal(t, models.LedgerManualSubtract, tx.Type)
	assert.Equal(t, 40, tx.Points)
	assert.Equal(t, 0, tx.PointsAfter)

	_, err = ManualEntry("C1", 40, -41, "", time.Now(), "admin")
	assert.True(t, errors.Is(err, errs.ErrInsufficientLoyaltyBalance))

	_, err = ManualEntry("C1", 40, 0, "", time.Now(), "admin")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestRechainAfterRemovingAnEntry(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := SaleEntries("C1", "s1", 1, 0, 20, 0, t0, "")
	second := SaleEntries("C1", "s2", 3, 20, 10, 5, t0.Add(time.Hour), "")
	third, _ := ManualEntry("C1", 25, 5, "", t0.Add(2*time.Hour), "")

	ledger := append(append(first, second...), third)
	require.NoError(t, Verify(ledger, 30))

	// drop s1 and replay
	rest := append([]models.LoyaltyTransaction(nil), ledger[1:]...)
	assert.Error(t, Verify(rest, 10))
	closing := Rechain(rest, 0)
	assert.Equal(t, 10, closing)
	assert.NoError(t, Verify(rest, 10))
}

func TestVerifyCatchesMismatch(t *testing.T) {
	entries := SaleEntries("C1", "s1", 1, 0, 20, 0, time.Now(), "")
	assert.Error(t, Verify(entries, 19))
	entries[0].PointsAfter = 21
	assert.Error(t, Verify(entries, 21))
}

func TestShortfallAfterRemovingSpentEarnings(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earned := SaleEntries("C1", "s1", 1, 0, 40, 0, t0, "")
	spent := SaleEntries("C1", "s2", 3, 40, 0, 40, t0.Add(time.Hour), "")
	ledger := append(earned, spent...)
	require.NoError(t, Verify(ledger, 0))
	assert.Zero(t, Shortfall(ledger))

	// without s1 the redemption has nothing to spend
	rest := append([]models.LoyaltyTransaction(nil), spent...)
	assert.Equal(t, -40, Rechain(rest, 0))
	assert.Equal(t, 40, Shortfall(rest))
	assert.Error(t, Verify(rest, -40))
}
