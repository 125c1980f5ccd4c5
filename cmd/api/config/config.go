package config

import "time"

// Config carries the AI cost-control policy. The per-user caps look absurdly
// small but are deliberate: the subscription margin is a few cents per user,
// so the caps bound worst-case spend rather than expressing a product limit.
type Config struct {
	MaxCallsPerUserPerMonth int
	MaxCallsPerUserPerDay   int
	MonthlyBudgetUSD        float64
	PremiumOnlyAI           bool

	DefaultCacheTTL       time.Duration
	MotivationCacheTTL    time.Duration
	MissionsCacheTTL      time.Duration
	ProgressInvalidation  int // streak delta that forces regeneration
	UpstreamTimeout       time.Duration
	RolloverSweepInterval time.Duration

	ModelName       string
	Temperature     float32
	MaxOutputTokens int32

	// Gemini Flash list prices, per million tokens. The orchestrator
	// estimates tokens from character counts; these constants were tuned
	// against that approximation, not against real tokenizer output.
	InputCostPerMillionTokens  float64
	OutputCostPerMillionTokens float64

	MissionCount int
}

func NewConfig() *Config {
	return &Config{
		MaxCallsPerUserPerMonth:    2,
		MaxCallsPerUserPerDay:      1,
		MonthlyBudgetUSD:           5.00,
		PremiumOnlyAI:              false,
		DefaultCacheTTL:            168 * time.Hour,
		MotivationCacheTTL:         14 * 24 * time.Hour,
		MissionsCacheTTL:           7 * 24 * time.Hour,
		ProgressInvalidation:       7,
		UpstreamTimeout:            20 * time.Second,
		RolloverSweepInterval:      time.Hour,
		ModelName:                  "gemini-1.5-flash",
		Temperature:                0.8,
		MaxOutputTokens:            512,
		InputCostPerMillionTokens:  0.075,
		OutputCostPerMillionTokens: 0.30,
		MissionCount:               3,
	}
}

func (c *Config) CacheTTLFor(contentType string) time.Duration {
	switch contentType {
	case "motivation":
		return c.MotivationCacheTTL
	case "missions":
		return c.MissionsCacheTTL
	default:
		return c.DefaultCacheTTL
	}
}
