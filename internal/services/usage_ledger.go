package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"

	"github.com/rs/zerolog/log"
)

const usageKeyPrefix = "usage_"

// UsageLedgerService persists per-user AI call counters with lazy
// day/month rollover. A missing or unreadable record is treated as zero
// usage so a persistence outage never blocks content delivery.
type UsageLedgerService struct {
	store       docstore.Store
	maxMonthly  int
	maxDaily    int
	premiumOnly bool
	now         func() time.Time
}

func NewUsageLedgerService(store docstore.Store, maxMonthly, maxDaily int, premiumOnly bool) *UsageLedgerService {
	return &UsageLedgerService{
		store:       store,
		maxMonthly:  maxMonthly,
		maxDaily:    maxDaily,
		premiumOnly: premiumOnly,
		now:         time.Now,
	}
}

func usageKey(userID string) string {
	return usageKeyPrefix + userID
}

func (s *UsageLedgerService) monthAndDay() (string, string) {
	t := s.now().UTC()
	return t.Format("2006-01"), t.Format("2006-01-02")
}

// rollover zeroes whichever counters belong to a past period. It mutates
// the record in place and reports whether anything changed.
func rollover(rec *models.UsageRecord, month, day string) bool {
	changed := false
	if rec.ResetMonth != month {
		rec.MonthlyCallsUsed = 0
		rec.DailyCallsUsed = 0
		rec.TotalCostThisMonth = 0
		rec.ResetMonth = month
		changed = true
	}
	if rec.LastCallDate != day {
		if rec.DailyCallsUsed != 0 {
			changed = true
		}
		rec.DailyCallsUsed = 0
	}
	return changed
}

func (s *UsageLedgerService) load(ctx context.Context, userID string) (*models.UsageRecord, error) {
	var rec models.UsageRecord
	if err := s.store.Get(ctx, usageKey(userID), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CheckLimits reports whether userID may make another AI call. The check
// applies rollover in memory only; the reset is persisted by the next
// RecordUsage, so a user who never calls again keeps a stale record,
// which is harmless.
func (s *UsageLedgerService) CheckLimits(ctx context.Context, userID string, premiumEligible bool) bool {
	if s.premiumOnly && !premiumEligible {
		return false
	}

	rec, err := s.load(ctx, userID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("usage ledger read failed, treating as zero usage")
		}
		return true
	}

	month, day := s.monthAndDay()
	rollover(rec, month, day)

	if rec.MonthlyCallsUsed >= s.maxMonthly {
		return false
	}
	if rec.DailyCallsUsed >= s.maxDaily {
		return false
	}
	return true
}

// RecordUsage increments both counters and attributes cost to the user's
// month. Called once per completed upstream call.
func (s *UsageLedgerService) RecordUsage(ctx context.Context, userID string, tokensUsed int, cost float64) error {
	month, day := s.monthAndDay()

	rec, err := s.load(ctx, userID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("failed to load usage record: %w", err)
		}
		rec = &models.UsageRecord{UserID: userID, ResetMonth: month}
	}

	rollover(rec, month, day)
	rec.MonthlyCallsUsed++
	rec.DailyCallsUsed++
	rec.LastCallDate = day
	rec.TotalCostThisMonth += cost

	if err := s.store.Set(ctx, usageKey(userID), rec); err != nil {
		return fmt.Errorf("failed to persist usage record: %w", err)
	}
	log.Info().
		Str("user_id", userID).
		Int("tokens", tokensUsed).
		Float64("cost", cost).
		Int("monthly_calls", rec.MonthlyCallsUsed).
		Msg("recorded AI usage")
	return nil
}

// GetUsage returns the record with rollover applied, so callers see
// current-period numbers even before the next RecordUsage persists them.
func (s *UsageLedgerService) GetUsage(ctx context.Context, userID string) (*models.UsageRecord, error) {
	month, day := s.monthAndDay()
	rec, err := s.load(ctx, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return &models.UsageRecord{UserID: userID, ResetMonth: month}, nil
		}
		return nil, err
	}
	rollover(rec, month, day)
	return rec, nil
}

// SweepRollovers persists pending resets for every usage record. Run
// periodically by the scheduler so records do not rely solely on the
// lazy reset in RecordUsage.
func (s *UsageLedgerService) SweepRollovers(ctx context.Context) error {
	docs, err := s.store.List(ctx, usageKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list usage records: %w", err)
	}
	month, day := s.monthAndDay()
	for key, raw := range docs {
		var rec models.UsageRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("skipping malformed usage record")
			continue
		}
		if rollover(&rec, month, day) {
			if err := s.store.Set(ctx, key, &rec); err != nil {
				return fmt.Errorf("failed to persist rollover for %s: %w", key, err)
			}
		}
	}
	return nil
}

// ResetAll zeroes every user's counters for the current month. Admin and
// test hook only.
func (s *UsageLedgerService) ResetAll(ctx context.Context) error {
	docs, err := s.store.List(ctx, usageKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list usage records: %w", err)
	}
	month, _ := s.monthAndDay()
	for key, raw := range docs {
		var rec models.UsageRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		rec.MonthlyCallsUsed = 0
		rec.DailyCallsUsed = 0
		rec.TotalCostThisMonth = 0
		rec.ResetMonth = month
		if err := s.store.Set(ctx, key, &rec); err != nil {
			return fmt.Errorf("failed to reset usage record %s: %w", key, err)
		}
	}
	return nil
}
