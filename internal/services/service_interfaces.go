package services

import (
	"context"

	"emberfree_go_backend/internal/models"
)

type UsageLimiter interface {
	CheckLimits(ctx context.Context, userID string, premiumEligible bool) bool
	RecordUsage(ctx context.Context, userID string, tokensUsed int, cost float64) error
	GetUsage(ctx context.Context, userID string) (*models.UsageRecord, error)
	ResetAll(ctx context.Context) error
}

type BudgetWatcher interface {
	IsEmergencyStopActive(ctx context.Context) bool
	RecordSpend(ctx context.Context, cost float64) error
	Stats(ctx context.Context) (used, remaining float64, active bool)
	Reset(ctx context.Context) error
}

type ContentCacher interface {
	Get(ctx context.Context, userID string, contentType models.ContentKind, language string, current models.UserContextSnapshot) *models.CacheEntry
	Set(ctx context.Context, userID string, contentType models.ContentKind, language string, content models.GeneratedContent, snapshot models.UserContextSnapshot, tokensUsed int, cost float64) error
	Clear(ctx context.Context, userID string, contentType models.ContentKind, language string) error
}

type UpstreamGate interface {
	TryAcquire() (string, bool)
	Release()
}

type FallbackProvider interface {
	ContextualMotivation(progress models.UserProgress, language string) string
	StaticMissions(count int, language string) []models.Mission
}

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
