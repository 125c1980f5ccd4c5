package services

import (
	"testing"

	"emberfree_go_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProgress(t *testing.T) {
	cases := []struct {
		name     string
		progress models.UserProgress
		want     messageTier
	}{
		{"brand new user", models.UserProgress{Streak: 1, TotalDays: 1}, tierNewUser},
		{"relapsed user", models.UserProgress{Streak: 0, TotalDays: 20}, tierStreakRecovery},
		{"first week", models.UserProgress{Streak: 5, TotalDays: 5}, tierEarlyJourney},
		{"week milestone", models.UserProgress{Streak: 7, TotalDays: 7}, tierMilestone},
		{"month milestone", models.UserProgress{Streak: 30, TotalDays: 45}, tierMilestone},
		{"long-term quitter", models.UserProgress{Streak: 120, TotalDays: 120}, tierVeteran},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classifyProgress(tc.progress))
		})
	}
}

func TestContextualMotivationAlwaysReturnsText(t *testing.T) {
	fallback := NewFallbackService()

	progresses := []models.UserProgress{
		{},
		{Streak: 0, TotalDays: 50},
		{Streak: 7, TotalDays: 7},
		{Streak: 365, TotalDays: 400},
	}
	for _, lang := range []string{"en", "es", "fr", ""} {
		for _, p := range progresses {
			text := fallback.ContextualMotivation(p, lang)
			assert.NotEmpty(t, text)
		}
	}
}

func TestContextualMotivationMatchesTierPool(t *testing.T) {
	fallback := NewFallbackService()
	progress := models.UserProgress{Streak: 0, TotalDays: 30}

	text := fallback.ContextualMotivation(progress, "en")
	assert.Contains(t, motivationPools["en"][tierStreakRecovery], text)
}

func TestStaticMissions(t *testing.T) {
	fallback := NewFallbackService()

	t.Run("returns requested count", func(t *testing.T) {
		missions := fallback.StaticMissions(3, "en")
		assert.Len(t, missions, 3)
		for _, m := range missions {
			assert.NotEmpty(t, m.Title)
			assert.NotEmpty(t, m.Description)
			assert.Positive(t, m.XPReward)
		}
	})

	t.Run("caps at catalog size", func(t *testing.T) {
		missions := fallback.StaticMissions(100, "es")
		assert.Len(t, missions, len(missionCatalog["es"]))
	})

	t.Run("unknown language falls back to english", func(t *testing.T) {
		missions := fallback.StaticMissions(2, "de")
		assert.Len(t, missions, 2)
	})
}
