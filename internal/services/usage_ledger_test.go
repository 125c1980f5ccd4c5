package services

import (
	"context"
	"testing"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func newTestLedger(maxMonthly, maxDaily int, premiumOnly bool) (*UsageLedgerService, *docstore.MemoryStore, *time.Time) {
	store := docstore.NewMemoryStore()
	ledger := NewUsageLedgerService(store, maxMonthly, maxDaily, premiumOnly)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }
	return ledger, store, &now
}

func TestUsageLedgerCaps(t *testing.T) {
	ctx := context.Background()
	ledger, _, now := newTestLedger(2, 1, false)

	t.Run("fresh user is allowed", func(t *testing.T) {
		assert.True(t, ledger.CheckLimits(ctx, "user-1", false))
	})

	t.Run("daily cap blocks second call same day", func(t *testing.T) {
		assert.NoError(t, ledger.RecordUsage(ctx, "user-1", 100, 0.001))
		assert.False(t, ledger.CheckLimits(ctx, "user-1", false))
	})

	t.Run("day rollover resets daily but not monthly", func(t *testing.T) {
		*now = now.AddDate(0, 0, 1)
		assert.True(t, ledger.CheckLimits(ctx, "user-1", false))

		rec, err := ledger.GetUsage(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, 1, rec.MonthlyCallsUsed)
		assert.Equal(t, 0, rec.DailyCallsUsed)
	})

	t.Run("monthly cap blocks for rest of month regardless of day", func(t *testing.T) {
		assert.NoError(t, ledger.RecordUsage(ctx, "user-1", 100, 0.001))
		assert.False(t, ledger.CheckLimits(ctx, "user-1", false))

		*now = now.AddDate(0, 0, 1)
		assert.False(t, ledger.CheckLimits(ctx, "user-1", false))
	})

	t.Run("month rollover resets both counters", func(t *testing.T) {
		*now = time.Date(2025, 4, 1, 0, 30, 0, 0, time.UTC)
		assert.True(t, ledger.CheckLimits(ctx, "user-1", false))

		rec, err := ledger.GetUsage(ctx, "user-1")
		assert.NoError(t, err)
		assert.Equal(t, 0, rec.MonthlyCallsUsed)
		assert.Equal(t, 0, rec.DailyCallsUsed)
		assert.Equal(t, float64(0), rec.TotalCostThisMonth)
	})
}

func TestUsageLedgerInvariantDailyNotAboveMonthly(t *testing.T) {
	ctx := context.Background()
	ledger, _, now := newTestLedger(10, 5, false)

	check := func() {
		rec, err := ledger.GetUsage(ctx, "user-2")
		assert.NoError(t, err)
		assert.LessOrEqual(t, rec.DailyCallsUsed, rec.MonthlyCallsUsed)
	}

	for i := 0; i < 4; i++ {
		ledger.CheckLimits(ctx, "user-2", false)
		check()
		assert.NoError(t, ledger.RecordUsage(ctx, "user-2", 50, 0.0005))
		check()
		if i%2 == 1 {
			*now = now.AddDate(0, 0, 1)
			check()
		}
	}
}

func TestUsageLedgerPremiumGate(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger(2, 1, true)

	assert.False(t, ledger.CheckLimits(ctx, "user-3", false))
	assert.True(t, ledger.CheckLimits(ctx, "user-3", true))
}

func TestUsageLedgerCostAttribution(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger(5, 5, false)

	assert.NoError(t, ledger.RecordUsage(ctx, "user-4", 120, 0.002))
	assert.NoError(t, ledger.RecordUsage(ctx, "user-4", 80, 0.003))

	rec, err := ledger.GetUsage(ctx, "user-4")
	assert.NoError(t, err)
	assert.InDelta(t, 0.005, rec.TotalCostThisMonth, 1e-9)
}

func TestUsageLedgerSweepRollovers(t *testing.T) {
	ctx := context.Background()
	ledger, store, now := newTestLedger(5, 5, false)

	assert.NoError(t, ledger.RecordUsage(ctx, "user-5", 100, 0.001))
	*now = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	assert.NoError(t, ledger.SweepRollovers(ctx))

	// The persisted record itself must now be reset, not just the view.
	var rec models.UsageRecord
	assert.NoError(t, store.Get(ctx, "usage_user-5", &rec))
	assert.Equal(t, 0, rec.MonthlyCallsUsed)
	assert.Equal(t, 0, rec.DailyCallsUsed)
	assert.Equal(t, "2025-04", rec.ResetMonth)
}

func TestUsageLedgerResetAll(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newTestLedger(5, 5, false)

	assert.NoError(t, ledger.RecordUsage(ctx, "a", 10, 0.001))
	assert.NoError(t, ledger.RecordUsage(ctx, "b", 10, 0.001))
	assert.NoError(t, ledger.ResetAll(ctx))

	for _, id := range []string{"a", "b"} {
		rec, err := ledger.GetUsage(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, 0, rec.MonthlyCallsUsed)
		assert.Equal(t, float64(0), rec.TotalCostThisMonth)
	}
}
