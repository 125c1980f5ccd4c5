package services_test

import (
	"context"
	"testing"
	"time"

	"emberfree_go_backend/internal/docstore"
	"emberfree_go_backend/internal/models"
	"emberfree_go_backend/internal/services"
	"emberfree_go_backend/internal/utils/broker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fixture struct {
	service   *services.AIContentService
	generator *MockTextGenerator
	ledger    *services.UsageLedgerService
	gate      *services.CallGate
	store     *docstore.MemoryStore
	events    *broker.Broker
}

func newFixture() *fixture {
	store := docstore.NewMemoryStore()
	generator := new(MockTextGenerator)
	ledger := services.NewUsageLedgerService(store, 2, 1, false)
	budget := services.NewBudgetGuardService(store, 5.00)
	cache := services.NewContentCacheService(store, func(string) time.Duration { return 168 * time.Hour }, 7)
	gate := services.NewCallGate()
	events := broker.New()

	service := services.NewAIContentService(
		cache,
		ledger,
		budget,
		gate,
		services.NewFallbackService(),
		generator,
		events,
		10*time.Second,
		2,
		3,
		0.075,
		0.30,
	)
	return &fixture{
		service:   service,
		generator: generator,
		ledger:    ledger,
		gate:      gate,
		store:     store,
		events:    events,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Auth0ID:   "auth0|test",
		Email:     "quitter@example.com",
		Streak:    5,
		TotalDays: 12,
		Level:     2,
		XP:        340,
	}
}

func TestGetMotivationFirstCallReachesAI(t *testing.T) {
	f := newFixture()
	user := testUser()
	ctx := context.Background()

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("Five days strong. Keep breathing free.", nil).Once()

	text, source := f.service.GetMotivation(ctx, user, "daily", "", "en")

	assert.Equal(t, services.SourceAI, source)
	assert.Equal(t, "Five days strong. Keep breathing free.", text)

	rec, err := f.ledger.GetUsage(ctx, user.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, 1, rec.MonthlyCallsUsed)
	assert.Equal(t, 1, rec.DailyCallsUsed)
	assert.Greater(t, rec.TotalCostThisMonth, float64(0))

	f.generator.AssertExpectations(t)
}

func TestGetMotivationSecondCallServedFromCache(t *testing.T) {
	f := newFixture()
	user := testUser()
	ctx := context.Background()

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("Cached soon.", nil).Once()

	_, first := f.service.GetMotivation(ctx, user, "daily", "", "en")
	text, second := f.service.GetMotivation(ctx, user, "daily", "", "en")

	assert.Equal(t, services.SourceAI, first)
	assert.Equal(t, services.SourceCache, second)
	assert.Equal(t, "Cached soon.", text)

	// The cache hit must not consume quota or call upstream again.
	rec, err := f.ledger.GetUsage(ctx, user.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, 1, rec.MonthlyCallsUsed)
	f.generator.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGetMotivationQuotaExhaustedFallsBack(t *testing.T) {
	f := newFixture()
	user := testUser()
	ctx := context.Background()
	now := time.Now().UTC()

	// User is already at the monthly cap with no usable cache entry.
	rec := models.UsageRecord{
		UserID:           user.ID.String(),
		MonthlyCallsUsed: 2,
		DailyCallsUsed:   0,
		LastCallDate:     now.Format("2006-01-02"),
		ResetMonth:       now.Format("2006-01"),
	}
	assert.NoError(t, f.store.Set(ctx, "usage_"+user.ID.String(), &rec))

	text, source := f.service.GetMotivation(ctx, user, "daily", "", "en")

	assert.Equal(t, services.SourceFallback, source)
	assert.NotEmpty(t, text)

	after, err := f.ledger.GetUsage(ctx, user.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, 2, after.MonthlyCallsUsed)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestEmergencyStopForcesFallbackForEveryone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	state := models.BudgetState{
		Month:              time.Now().UTC().Format("2006-01"),
		TotalCostThisMonth: 9.99,
	}
	assert.NoError(t, f.store.Set(ctx, "budget_global", &state))

	for i := 0; i < 3; i++ {
		user := testUser()
		text, source := f.service.GetMotivation(ctx, user, "daily", "", "en")
		assert.Equal(t, services.SourceFallback, source)
		assert.NotEmpty(t, text)
	}
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)

	// After the administrative reset, calls reach AI again.
	assert.NoError(t, f.service.ResetMonthlyUsage(ctx))
	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("Back online.", nil).Once()

	_, source := f.service.GetMotivation(ctx, testUser(), "daily", "", "en")
	assert.Equal(t, services.SourceAI, source)
}

func TestBusyGateFallsBackWithoutWaiting(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, ok := f.gate.TryAcquire()
	assert.True(t, ok)
	defer f.gate.Release()

	text, source := f.service.GetMotivation(ctx, testUser(), "daily", "", "en")
	assert.Equal(t, services.SourceFallback, source)
	assert.NotEmpty(t, text)
	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestUpstreamFailureFallsBackAndReleasesGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("", assert.AnError).Once()

	text, source := f.service.GetMotivation(ctx, testUser(), "craving", "evening", "en")
	assert.Equal(t, services.SourceFallback, source)
	assert.NotEmpty(t, text)

	// Gate must be free again after the failed call.
	_, ok := f.gate.TryAcquire()
	assert.True(t, ok)
	f.gate.Release()
}

func TestGetMissionsParsesUpstreamJSON(t *testing.T) {
	f := newFixture()
	user := testUser()
	ctx := context.Background()

	payload := "```json\n" + `[
		{"title": "Morning walk", "description": "Walk before your usual first cigarette time.", "xpReward": 25, "difficulty": "easy"},
		{"title": "Craving log", "description": "Note every craving and what triggered it.", "xpReward": 30, "difficulty": "medium"},
		{"title": "Tea swap", "description": "Replace the after-lunch smoke with tea.", "xpReward": 35, "difficulty": "medium"}
	]` + "\n```"

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return(payload, nil).Once()

	missions, source := f.service.GetMissions(ctx, user, "en")

	assert.Equal(t, services.SourceAI, source)
	assert.Len(t, missions, 3)
	assert.Equal(t, "Morning walk", missions[0].Title)
	assert.Equal(t, 25, missions[0].XPReward)

	// Immediately repeated request hits the cache.
	cached, cachedSource := f.service.GetMissions(ctx, user, "en")
	assert.Equal(t, services.SourceCache, cachedSource)
	assert.Equal(t, missions, cached)
	f.generator.AssertNumberOfCalls(t, "Generate", 1)
}

func TestGetMissionsUnparseableResponseFallsBack(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("Sorry, I cannot produce JSON today.", nil).Once()

	missions, source := f.service.GetMissions(ctx, testUser(), "en")
	assert.Equal(t, services.SourceFallback, source)
	assert.Len(t, missions, 3)
}

func TestGetUsageStats(t *testing.T) {
	f := newFixture()
	user := testUser()
	ctx := context.Background()

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("One down.", nil).Once()
	_, source := f.service.GetMotivation(ctx, user, "daily", "", "en")
	assert.Equal(t, services.SourceAI, source)

	stats := f.service.GetUsageStats(ctx, user.ID.String())
	assert.Equal(t, 1, stats.MonthlyCallsUsed)
	assert.Equal(t, 1, stats.MonthlyCallsRemaining)
	assert.Greater(t, stats.MonthlyBudgetUsed, float64(0))
	assert.Less(t, stats.MonthlyBudgetRemaining, 5.00)
	assert.False(t, stats.EmergencyStopActive)
}

func TestUsageEventsArePublished(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	eventCh := f.events.Subscribe(services.UsageEventTopic)
	defer f.events.Unsubscribe(services.UsageEventTopic, eventCh)

	f.generator.On("Generate", mock.Anything, mock.AnythingOfType("string")).
		Return("Event time.", nil).Once()
	f.service.GetMotivation(ctx, testUser(), "daily", "", "en")

	select {
	case ev := <-eventCh:
		usage, ok := ev.Payload.(services.UsageEvent)
		assert.True(t, ok)
		assert.Equal(t, services.SourceAI, usage.Source)
		assert.Greater(t, usage.Cost, float64(0))
	case <-time.After(time.Second):
		t.Fatal("expected a usage event")
	}
}
