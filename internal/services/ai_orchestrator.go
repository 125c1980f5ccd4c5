package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"emberfree_go_backend/internal/models"
	"emberfree_go_backend/internal/utils/broker"

	"github.com/rs/zerolog/log"
)

// Source tells the caller where served content came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// UsageEventTopic is the broker topic the orchestrator publishes one
// UsageEvent on per served request.
const UsageEventTopic = "ai:usage"

type UsageEvent struct {
	UserID      string             `json:"userId"`
	ContentType models.ContentKind `json:"contentType"`
	Source      Source             `json:"source"`
	TokensUsed  int                `json:"tokensUsed"`
	Cost        float64            `json:"cost"`
}

// AIContentService is the façade in front of the whole cost-control
// layer. Per request: cache, then emergency stop, then user quota, then
// the upstream gate, then the call itself. Every failure past the cache
// degrades to the fallback generator; no error ever reaches the caller,
// and a rejected request never touches the gate.
type AIContentService struct {
	cache           ContentCacher
	ledger          UsageLimiter
	budget          BudgetWatcher
	gate            UpstreamGate
	fallback        FallbackProvider
	generator       TextGenerator
	events          *broker.Broker
	upstreamTimeout time.Duration
	maxMonthly      int
	missionCount    int
	inCostPerM      float64
	outCostPerM     float64
}

func NewAIContentService(
	cache ContentCacher,
	ledger UsageLimiter,
	budget BudgetWatcher,
	gate UpstreamGate,
	fallback FallbackProvider,
	generator TextGenerator,
	events *broker.Broker,
	upstreamTimeout time.Duration,
	maxMonthly int,
	missionCount int,
	inCostPerM, outCostPerM float64,
) *AIContentService {
	return &AIContentService{
		cache:           cache,
		ledger:          ledger,
		budget:          budget,
		gate:            gate,
		fallback:        fallback,
		generator:       generator,
		events:          events,
		upstreamTimeout: upstreamTimeout,
		maxMonthly:      maxMonthly,
		missionCount:    missionCount,
		inCostPerM:      inCostPerM,
		outCostPerM:     outCostPerM,
	}
}

// estimateTokens approximates tokens as chars/4. Deliberately rough: the
// budget constants were tuned against this formula, so making it precise
// would silently retune every threshold.
func estimateTokens(text string) int {
	return len(text) / 4
}

func (s *AIContentService) estimateCost(prompt, response string) (int, float64) {
	in := estimateTokens(prompt)
	out := estimateTokens(response)
	cost := float64(in)*s.inCostPerM/1_000_000 + float64(out)*s.outCostPerM/1_000_000
	return in + out, cost
}

// callUpstream runs the checks that gate an AI call and, when all pass,
// performs exactly one generation. It returns ok=false when the caller
// should fall back. The gate is released on every exit path.
func (s *AIContentService) callUpstream(ctx context.Context, user *models.User, prompt string) (response string, tokens int, cost float64, ok bool) {
	if s.budget.IsEmergencyStopActive(ctx) {
		log.Info().Str("user_id", user.ID.String()).Msg("emergency stop active, serving fallback")
		return "", 0, 0, false
	}
	if !s.ledger.CheckLimits(ctx, user.ID.String(), user.Premium) {
		log.Info().Str("user_id", user.ID.String()).Msg("user quota exhausted, serving fallback")
		return "", 0, 0, false
	}

	callID, acquired := s.gate.TryAcquire()
	if !acquired {
		log.Info().Str("user_id", user.ID.String()).Msg("upstream call already in flight, serving fallback")
		return "", 0, 0, false
	}
	defer s.gate.Release()

	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	response, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		log.Warn().Err(err).Str("call_id", callID).Str("user_id", user.ID.String()).Msg("upstream call failed, serving fallback")
		return "", 0, 0, false
	}

	tokens, cost = s.estimateCost(prompt, response)
	if err := s.ledger.RecordUsage(ctx, user.ID.String(), tokens, cost); err != nil {
		log.Warn().Err(err).Str("call_id", callID).Msg("failed to record usage")
	}
	if err := s.budget.RecordSpend(ctx, cost); err != nil {
		log.Warn().Err(err).Str("call_id", callID).Msg("failed to record budget spend")
	}
	return response, tokens, cost, true
}

func (s *AIContentService) publish(user *models.User, contentType models.ContentKind, source Source, tokens int, cost float64) {
	if s.events == nil {
		return
	}
	s.events.Publish(UsageEventTopic, UsageEvent{
		UserID:      user.ID.String(),
		ContentType: contentType,
		Source:      source,
		TokensUsed:  tokens,
		Cost:        cost,
	})
}

// GetMotivation serves a motivational message for the given trigger.
// Total function: it always returns text, at worst from the fallback
// pools.
func (s *AIContentService) GetMotivation(ctx context.Context, user *models.User, triggerType, triggerData, language string) (string, Source) {
	snapshot := models.SnapshotOf(user.Progress())

	if entry := s.cache.Get(ctx, user.ID.String(), models.KindMotivation, language, snapshot); entry != nil {
		s.publish(user, models.KindMotivation, SourceCache, 0, 0)
		return entry.Content.Text, SourceCache
	}

	prompt := buildMotivationPrompt(user, triggerType, triggerData, language)
	response, tokens, cost, ok := s.callUpstream(ctx, user, prompt)
	if !ok {
		text := s.fallback.ContextualMotivation(user.Progress(), language)
		s.publish(user, models.KindMotivation, SourceFallback, 0, 0)
		return text, SourceFallback
	}

	text := strings.TrimSpace(response)
	content := models.GeneratedContent{Kind: models.KindMotivation, Text: text}
	if err := s.cache.Set(ctx, user.ID.String(), models.KindMotivation, language, content, snapshot, tokens, cost); err != nil {
		log.Warn().Err(err).Msg("failed to cache motivation")
	}
	s.publish(user, models.KindMotivation, SourceAI, tokens, cost)
	return text, SourceAI
}

// GetMissions serves a personalized mission list. The upstream response
// must parse as a JSON array of missions; anything else counts as an
// upstream failure and falls back to the static catalog.
func (s *AIContentService) GetMissions(ctx context.Context, user *models.User, language string) ([]models.Mission, Source) {
	snapshot := models.SnapshotOf(user.Progress())

	if entry := s.cache.Get(ctx, user.ID.String(), models.KindMissions, language, snapshot); entry != nil {
		s.publish(user, models.KindMissions, SourceCache, 0, 0)
		return entry.Content.Missions, SourceCache
	}

	prompt := buildMissionsPrompt(user, s.missionCount, language)
	response, tokens, cost, ok := s.callUpstream(ctx, user, prompt)
	if ok {
		missions, err := parseMissions(response, s.missionCount)
		if err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("mission response unparseable, serving fallback")
		} else {
			content := models.GeneratedContent{Kind: models.KindMissions, Missions: missions}
			if err := s.cache.Set(ctx, user.ID.String(), models.KindMissions, language, content, snapshot, tokens, cost); err != nil {
				log.Warn().Err(err).Msg("failed to cache missions")
			}
			s.publish(user, models.KindMissions, SourceAI, tokens, cost)
			return missions, SourceAI
		}
	}

	missions := s.fallback.StaticMissions(s.missionCount, language)
	s.publish(user, models.KindMissions, SourceFallback, 0, 0)
	return missions, SourceFallback
}

// GetUsageStats summarizes the user's quota position and the global
// budget state for the settings screen.
func (s *AIContentService) GetUsageStats(ctx context.Context, userID string) models.UsageStats {
	stats := models.UsageStats{MonthlyCallsRemaining: s.maxMonthly}

	if rec, err := s.ledger.GetUsage(ctx, userID); err == nil {
		stats.MonthlyCallsUsed = rec.MonthlyCallsUsed
		remaining := s.maxMonthly - rec.MonthlyCallsUsed
		if remaining < 0 {
			remaining = 0
		}
		stats.MonthlyCallsRemaining = remaining
	} else {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to load usage record for stats")
	}

	used, remaining, active := s.budget.Stats(ctx)
	stats.MonthlyBudgetUsed = used
	stats.MonthlyBudgetRemaining = remaining
	stats.EmergencyStopActive = active
	return stats
}

// ResetMonthlyUsage zeroes every ledger record and the global budget.
// Administrative and test hook.
func (s *AIContentService) ResetMonthlyUsage(ctx context.Context) error {
	if err := s.ledger.ResetAll(ctx); err != nil {
		return fmt.Errorf("failed to reset usage ledger: %w", err)
	}
	if err := s.budget.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset budget state: %w", err)
	}
	return nil
}

func buildMotivationPrompt(user *models.User, triggerType, triggerData, language string) string {
	var b strings.Builder
	b.WriteString("You are a warm, direct motivational coach inside a smoking cessation app.\n")
	fmt.Fprintf(&b, "The user has been smoke-free for %d days (current streak %d, level %d, %d XP, %d badges).\n",
		user.TotalDays, user.Streak, user.Level, user.XP, user.BadgeCount)
	fmt.Fprintf(&b, "Trigger: %s.", triggerType)
	if triggerData != "" {
		fmt.Fprintf(&b, " Context: %s.", triggerData)
	}
	b.WriteString("\nWrite 2-3 encouraging sentences addressed directly to the user.")
	b.WriteString(" No hashtags, no emojis, no preamble.")
	if language != "" && language != "en" {
		fmt.Fprintf(&b, " Respond in language code %q.", language)
	}
	return b.String()
}

func buildMissionsPrompt(user *models.User, count int, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d daily missions for a smoking cessation app user ", count)
	fmt.Fprintf(&b, "on day %d of their quit journey (streak %d, level %d).\n", user.TotalDays, user.Streak, user.Level)
	b.WriteString("Respond with only a JSON array, no markdown fences, where each element has ")
	b.WriteString(`the fields "title", "description", "xpReward" (number) and "difficulty" ("easy", "medium" or "hard").`)
	if language != "" && language != "en" {
		fmt.Fprintf(&b, " Write title and description in language code %q.", language)
	}
	return b.String()
}

// parseMissions tolerates models that wrap the array in code fences.
func parseMissions(response string, max int) ([]models.Mission, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var missions []models.Mission
	if err := json.Unmarshal([]byte(cleaned), &missions); err != nil {
		return nil, fmt.Errorf("failed to parse mission list: %w", err)
	}
	if len(missions) == 0 {
		return nil, fmt.Errorf("mission list is empty")
	}
	if len(missions) > max {
		missions = missions[:max]
	}
	return missions, nil
}
