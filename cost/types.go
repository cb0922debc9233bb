// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package cost

// UsageBucket accumulates usage for one (date, user, agent) key. Buckets are
// created on first use and never deleted; external export or expiry is the
// caller's responsibility.
type UsageBucket struct {
	Date             string  `json:"date"` // YYYY-MM-DD
	UserID           string  `json:"user_id"`
	AgentID          string  `json:"agent_id"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	RequestCount     int     `json:"request_count"`
}

// UsageParams describes a single request's usage to record.
type UsageParams struct {
	UserID           string `json:"user_id"`
	AgentID          string `json:"agent_id"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// UsageResult reports the cost of the recorded request plus the user's
// running position against their daily budget.
type UsageResult struct {
	CostUSD            float64 `json:"cost_usd"`
	DailyTotalUSD      float64 `json:"daily_total_usd"`
	BudgetRemainingUSD float64 `json:"budget_remaining_usd"`
}

// BudgetCheck is the result of an advisory budget check.
type BudgetCheck struct {
	Allowed            bool    `json:"allowed"`
	DailyTotalUSD      float64 `json:"daily_total_usd"`
	BudgetLimitUSD     float64 `json:"budget_limit_usd"`
	BudgetRemainingUSD float64 `json:"budget_remaining_usd"`
}

// Aggregate sums usage over some grouping dimension.
type Aggregate struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	CostUSD          float64 `json:"cost_usd"`
	RequestCount     int     `json:"request_count"`
}

// UsageReport contains daily and per-agent aggregates for one user over an
// inclusive date range.
type UsageReport struct {
	UserID    string                `json:"user_id"`
	StartDate string                `json:"start_date,omitempty"`
	EndDate   string                `json:"end_date,omitempty"`
	Daily     map[string]*Aggregate `json:"daily"`
	ByAgent   map[string]*Aggregate `json:"by_agent"`
	Totals    Aggregate             `json:"totals"`
}

// UserSummary is one user's aggregate for a single date.
type UserSummary struct {
	UserID string    `json:"user_id"`
	Usage  Aggregate `json:"usage"`
}
