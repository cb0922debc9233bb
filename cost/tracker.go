// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package cost

import (
	"sort"
	"sync"
	"time"

	"relaycrm/governance/shared/logger"
)

// DefaultDailyBudgetUSD applies to users without an explicit override.
const DefaultDailyBudgetUSD = 25.0

// Tracker accounts token usage and cost per (date, user, agent). All state
// is owned by the instance so multiple trackers can run side by side in
// tests; maps are mutex-guarded for concurrent request handlers.
type Tracker struct {
	mu sync.Mutex

	pricing     *PricingConfig
	buckets     map[string]*UsageBucket // keyed date|user|agent
	budgets     map[string]float64     // per-user daily ceiling overrides
	dailyBudget float64
	log         *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewTracker creates a tracker with the given pricing table. A nil pricing
// config falls back to the defaults.
func NewTracker(pricing *PricingConfig, log *logger.Logger) *Tracker {
	if pricing == nil {
		pricing = NewPricingConfig()
	}
	if log == nil {
		log = logger.New("cost")
	}
	return &Tracker{
		pricing:     pricing,
		buckets:     make(map[string]*UsageBucket),
		budgets:     make(map[string]float64),
		dailyBudget: DefaultDailyBudgetUSD,
		log:         log,
		now:         time.Now,
	}
}

// SetDefaultDailyBudget overrides the process-wide daily ceiling applied to
// users without an explicit per-user limit.
func (t *Tracker) SetDefaultDailyBudget(limitUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dailyBudget = limitUSD
}

// CalculateCost computes the USD cost of a request against the pricing table.
func (t *Tracker) CalculateCost(model string, promptTokens, completionTokens int) float64 {
	return t.pricing.CalculateCost(model, promptTokens, completionTokens)
}

// RecordUsage mutates the bucket for (today, user, agent) and returns the
// request's cost together with the user's running daily total and remaining
// budget.
func (t *Tracker) RecordUsage(p UsageParams) UsageResult {
	costUSD := t.pricing.CalculateCost(p.Model, p.PromptTokens, p.CompletionTokens)

	t.mu.Lock()
	defer t.mu.Unlock()

	date := t.today()
	key := bucketKey(date, p.UserID, p.AgentID)
	bucket, ok := t.buckets[key]
	if !ok {
		bucket = &UsageBucket{Date: date, UserID: p.UserID, AgentID: p.AgentID}
		t.buckets[key] = bucket
	}

	bucket.PromptTokens += p.PromptTokens
	bucket.CompletionTokens += p.CompletionTokens
	bucket.TotalTokens += p.PromptTokens + p.CompletionTokens
	bucket.EstimatedCostUSD = roundUSD(bucket.EstimatedCostUSD + costUSD)
	bucket.RequestCount++

	dailyTotal := t.dailyTotalLocked(p.UserID, date)
	limit := t.budgetLimitLocked(p.UserID)

	t.log.Debug("", p.UserID, "usage recorded", map[string]interface{}{
		"agent_id":     p.AgentID,
		"model":        p.Model,
		"total_tokens": p.PromptTokens + p.CompletionTokens,
		"cost_usd":     costUSD,
	})

	return UsageResult{
		CostUSD:            costUSD,
		DailyTotalUSD:      dailyTotal,
		BudgetRemainingUSD: remaining(limit, dailyTotal),
	}
}

// CheckBudget reports whether an estimated spend fits in the user's daily
// budget. The check is advisory: callers surface a warning on exhaustion
// rather than aborting, and it is not transactionally linked to RecordUsage.
func (t *Tracker) CheckBudget(userID string, estimatedCost float64) BudgetCheck {
	t.mu.Lock()
	defer t.mu.Unlock()

	dailyTotal := t.dailyTotalLocked(userID, t.today())
	limit := t.budgetLimitLocked(userID)
	rem := remaining(limit, dailyTotal)

	return BudgetCheck{
		Allowed:            rem >= estimatedCost,
		DailyTotalUSD:      dailyTotal,
		BudgetLimitUSD:     limit,
		BudgetRemainingUSD: rem,
	}
}

// SetBudgetLimit overrides the daily budget ceiling for one user.
func (t *Tracker) SetBudgetLimit(userID string, limitUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budgets[userID] = limitUSD
}

// GetUsageReport aggregates a user's buckets by day and by agent within the
// inclusive [startDate, endDate] bounds. Empty bounds leave that side open;
// dates compare as YYYY-MM-DD strings.
func (t *Tracker) GetUsageReport(userID, startDate, endDate string) *UsageReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := &UsageReport{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Daily:     make(map[string]*Aggregate),
		ByAgent:   make(map[string]*Aggregate),
	}

	for _, b := range t.buckets {
		if b.UserID != userID {
			continue
		}
		if startDate != "" && b.Date < startDate {
			continue
		}
		if endDate != "" && b.Date > endDate {
			continue
		}

		day := report.Daily[b.Date]
		if day == nil {
			day = &Aggregate{}
			report.Daily[b.Date] = day
		}
		agent := report.ByAgent[b.AgentID]
		if agent == nil {
			agent = &Aggregate{}
			report.ByAgent[b.AgentID] = agent
		}

		for _, agg := range []*Aggregate{day, agent, &report.Totals} {
			agg.PromptTokens += b.PromptTokens
			agg.CompletionTokens += b.CompletionTokens
			agg.TotalTokens += b.TotalTokens
			agg.CostUSD = roundUSD(agg.CostUSD + b.EstimatedCostUSD)
			agg.RequestCount += b.RequestCount
		}
	}

	return report
}

// GetAllUsersUsageSummary returns per-user aggregates for one date, sorted
// by descending spend.
func (t *Tracker) GetAllUsersUsageSummary(date string) []UserSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	if date == "" {
		date = t.today()
	}

	byUser := make(map[string]*Aggregate)
	for _, b := range t.buckets {
		if b.Date != date {
			continue
		}
		agg := byUser[b.UserID]
		if agg == nil {
			agg = &Aggregate{}
			byUser[b.UserID] = agg
		}
		agg.PromptTokens += b.PromptTokens
		agg.CompletionTokens += b.CompletionTokens
		agg.TotalTokens += b.TotalTokens
		agg.CostUSD = roundUSD(agg.CostUSD + b.EstimatedCostUSD)
		agg.RequestCount += b.RequestCount
	}

	summaries := make([]UserSummary, 0, len(byUser))
	for userID, agg := range byUser {
		summaries = append(summaries, UserSummary{UserID: userID, Usage: *agg})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Usage.CostUSD != summaries[j].Usage.CostUSD {
			return summaries[i].Usage.CostUSD > summaries[j].Usage.CostUSD
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	return summaries
}

func (t *Tracker) today() string {
	return t.now().UTC().Format("2006-01-02")
}

// dailyTotalLocked sums a user's spend across agents for one date.
// Callers must hold t.mu.
func (t *Tracker) dailyTotalLocked(userID, date string) float64 {
	total := 0.0
	for _, b := range t.buckets {
		if b.UserID == userID && b.Date == date {
			total += b.EstimatedCostUSD
		}
	}
	return roundUSD(total)
}

// budgetLimitLocked returns the user's override or the process default.
// Callers must hold t.mu.
func (t *Tracker) budgetLimitLocked(userID string) float64 {
	if limit, ok := t.budgets[userID]; ok {
		return limit
	}
	return t.dailyBudget
}

func remaining(limit, spent float64) float64 {
	rem := roundUSD(limit - spent)
	if rem < 0 {
		return 0
	}
	return rem
}

func bucketKey(date, userID, agentID string) string {
	return date + "|" + userID + "|" + agentID
}
