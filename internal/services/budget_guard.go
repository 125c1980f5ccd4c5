package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"

	"github.com/rs/zerolog/log"
)

const budgetKey = "budget_global"

// BudgetGuardService enforces the single global monthly spending ceiling.
// The budget is shared by all users; once total spend crosses it the
// emergency stop stays active until the month changes. This is a blunt
// circuit breaker, not a fair-share mechanism.
type BudgetGuardService struct {
	store         docstore.Store
	monthlyBudget float64
	mu            sync.Mutex
	now           func() time.Time
}

func NewBudgetGuardService(store docstore.Store, monthlyBudget float64) *BudgetGuardService {
	return &BudgetGuardService{
		store:         store,
		monthlyBudget: monthlyBudget,
		now:           time.Now,
	}
}

func (s *BudgetGuardService) currentMonth() string {
	return s.now().UTC().Format("2006-01")
}

// loadState reads the persisted budget state and applies month rollover.
// Rollover is an explicit step at the top of every public method rather
// than a write hidden inside a query: when the stored month is stale the
// cleared state is persisted immediately, so the externally observable
// behavior is still reset-on-read.
func (s *BudgetGuardService) loadState(ctx context.Context) *models.BudgetState {
	month := s.currentMonth()
	var state models.BudgetState
	if err := s.store.Get(ctx, budgetKey, &state); err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			log.Warn().Err(err).Msg("budget state read failed, assuming fresh month")
		}
		return &models.BudgetState{Month: month}
	}

	if state.Month != month {
		state = models.BudgetState{Month: month}
		if err := s.store.Set(ctx, budgetKey, &state); err != nil {
			log.Warn().Err(err).Msg("failed to persist budget rollover")
		}
	}
	return &state
}

// IsEmergencyStopActive recomputes the flag from recorded spend. The flag
// is monotonic within a month: spend only grows, so once true it stays
// true until rollover.
func (s *BudgetGuardService) IsEmergencyStopActive(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadState(ctx)
	if state.EmergencyStopActive {
		return true
	}
	if state.TotalCostThisMonth >= s.monthlyBudget {
		state.EmergencyStopActive = true
		if err := s.store.Set(ctx, budgetKey, state); err != nil {
			log.Warn().Err(err).Msg("failed to persist emergency stop")
		}
		log.Error().
			Float64("total_cost", state.TotalCostThisMonth).
			Float64("budget", s.monthlyBudget).
			Msg("monthly AI budget exceeded, emergency stop engaged")
		return true
	}
	return false
}

// RecordSpend adds cost to the month's running total, flipping the
// emergency stop if the budget is now exhausted.
func (s *BudgetGuardService) RecordSpend(ctx context.Context, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadState(ctx)
	state.TotalCostThisMonth += cost
	if state.TotalCostThisMonth >= s.monthlyBudget {
		state.EmergencyStopActive = true
	}
	if err := s.store.Set(ctx, budgetKey, state); err != nil {
		return fmt.Errorf("failed to persist budget state: %w", err)
	}
	return nil
}

// Stats returns the month's spend, the remaining headroom and the stop flag.
func (s *BudgetGuardService) Stats(ctx context.Context) (used, remaining float64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.loadState(ctx)
	used = state.TotalCostThisMonth
	remaining = s.monthlyBudget - used
	if remaining < 0 {
		remaining = 0
	}
	return used, remaining, state.EmergencyStopActive || used >= s.monthlyBudget
}

// Reset clears the state for the current month. Admin and test hook only.
func (s *BudgetGuardService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Set(ctx, budgetKey, &models.BudgetState{Month: s.currentMonth()})
}
