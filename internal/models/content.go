package models

import "time"

// ContentKind discriminates what shape a GeneratedContent carries.
type ContentKind string

const (
	KindMotivation ContentKind = "motivation"
	KindMissions   ContentKind = "missions"
)

type Mission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	XPReward    int    `json:"xpReward"`
	Difficulty  string `json:"difficulty"`
}

// GeneratedContent is a tagged variant: Text is set for motivation,
// Missions for mission lists. Consumers switch on Kind rather than
// guessing at an untyped blob.
type GeneratedContent struct {
	Kind     ContentKind `json:"kind"`
	Text     string      `json:"text,omitempty"`
	Missions []Mission   `json:"missions,omitempty"`
}

// UserContextSnapshot captures the progress state content was generated
// against. A large enough streak delta invalidates the cached entry even
// before its age TTL runs out.
type UserContextSnapshot struct {
	Streak    int `json:"streak"`
	TotalDays int `json:"totalDays"`
	Level     int `json:"level"`
	XP        int `json:"xp"`
}

type CacheEntry struct {
	Content    GeneratedContent    `json:"content"`
	CreatedAt  time.Time           `json:"createdAt"`
	Snapshot   UserContextSnapshot `json:"snapshot"`
	TokensUsed int                 `json:"tokensUsed"`
	Cost       float64             `json:"cost"`
}

func SnapshotOf(p UserProgress) UserContextSnapshot {
	return UserContextSnapshot{
		Streak:    p.Streak,
		TotalDays: p.TotalDays,
		Level:     p.Level,
		XP:        p.XP,
	}
}
