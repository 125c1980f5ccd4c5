package models

// UsageRecord tracks one user's AI call consumption for the current
// calendar day and month. Counters reset lazily when LastCallDate or
// ResetMonth no longer match the current date.
type UsageRecord struct {
	UserID             string  `json:"userId"`
	MonthlyCallsUsed   int     `json:"monthlyCallsUsed"`
	DailyCallsUsed     int     `json:"dailyCallsUsed"`
	LastCallDate       string  `json:"lastCallDate"` // YYYY-MM-DD
	TotalCostThisMonth float64 `json:"totalCostThisMonth"`
	ResetMonth         string  `json:"resetMonth"` // YYYY-MM
}

// BudgetState is the process-wide spend tally for the current month.
// EmergencyStopActive is sticky until month rollover.
type BudgetState struct {
	Month               string  `json:"month"` // YYYY-MM
	TotalCostThisMonth  float64 `json:"totalCostThisMonth"`
	EmergencyStopActive bool    `json:"emergencyStopActive"`
}

// UsageStats is the caller-facing summary returned by the usage endpoint.
type UsageStats struct {
	MonthlyCallsUsed       int     `json:"monthlyCallsUsed"`
	MonthlyCallsRemaining  int     `json:"monthlyCallsRemaining"`
	MonthlyBudgetUsed      float64 `json:"monthlyBudgetUsed"`
	MonthlyBudgetRemaining float64 `json:"monthlyBudgetRemaining"`
	EmergencyStopActive    bool    `json:"emergencyStopActive"`
}
