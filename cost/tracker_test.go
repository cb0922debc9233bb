// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package cost

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCalculateCostKnownModel(t *testing.T) {
	tr := NewTracker(nil, nil)

	// 1000 prompt + 500 completion on gpt-4o-mini
	got := tr.CalculateCost("gpt-4o-mini", 1000, 500)
	if got != 0.00045 {
		t.Errorf("expected 0.00045, got %v", got)
	}
}

func TestCalculateCostUnknownModelFallsBack(t *testing.T) {
	tr := NewTracker(nil, nil)

	got := tr.CalculateCost("totally-new-model", 1000, 1000)
	want := tr.CalculateCost("default", 1000, 1000)
	if got != want {
		t.Errorf("expected default pricing %v, got %v", want, got)
	}
	if got != 0.04 {
		t.Errorf("expected 0.04 at default rates, got %v", got)
	}
}

func TestCalculateCostZeroTokens(t *testing.T) {
	tr := NewTracker(nil, nil)

	if got := tr.CalculateCost("gpt-4o-mini", 0, 0); got != 0 {
		t.Errorf("expected zero cost, got %v", got)
	}
}

func TestCalculateCostMonotonic(t *testing.T) {
	tr := NewTracker(nil, nil)

	base := tr.CalculateCost("gpt-4o", 1000, 1000)
	morePrompt := tr.CalculateCost("gpt-4o", 2000, 1000)
	moreCompletion := tr.CalculateCost("gpt-4o", 1000, 2000)
	if morePrompt < base || moreCompletion < base {
		t.Errorf("cost must be monotonic: base=%v prompt=%v completion=%v",
			base, morePrompt, moreCompletion)
	}
}

func TestRecordUsageAccumulates(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.now = fixedClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	p := UsageParams{
		UserID: "u1", AgentID: "general", Model: "gpt-4o-mini",
		PromptTokens: 1000, CompletionTokens: 500,
	}
	first := tr.RecordUsage(p)
	second := tr.RecordUsage(p)

	if first.CostUSD != 0.00045 {
		t.Errorf("expected per-request cost 0.00045, got %v", first.CostUSD)
	}
	if second.DailyTotalUSD != 0.0009 {
		t.Errorf("expected running total 0.0009, got %v", second.DailyTotalUSD)
	}

	report := tr.GetUsageReport("u1", "", "")
	if report.Totals.RequestCount != 2 {
		t.Errorf("expected 2 requests, got %d", report.Totals.RequestCount)
	}
	if report.Totals.TotalTokens != 3000 {
		t.Errorf("expected 3000 tokens, got %d", report.Totals.TotalTokens)
	}
	day := report.Daily["2026-03-15"]
	if day == nil || day.RequestCount != 2 {
		t.Errorf("expected daily bucket for 2026-03-15, got %+v", report.Daily)
	}
}

func TestRecordUsageSeparatesAgents(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.now = fixedClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	tr.RecordUsage(UsageParams{UserID: "u1", AgentID: "general", Model: "gpt-4o-mini", PromptTokens: 100})
	tr.RecordUsage(UsageParams{UserID: "u1", AgentID: "compliance", Model: "gpt-4o", PromptTokens: 100})

	report := tr.GetUsageReport("u1", "", "")
	if len(report.ByAgent) != 2 {
		t.Errorf("expected 2 agent aggregates, got %v", report.ByAgent)
	}
	// daily total spans agents
	check := tr.CheckBudget("u1", 0)
	want := roundUSD(tr.CalculateCost("gpt-4o-mini", 100, 0) + tr.CalculateCost("gpt-4o", 100, 0))
	if check.DailyTotalUSD != want {
		t.Errorf("expected cross-agent daily total %v, got %v", want, check.DailyTotalUSD)
	}
}

func TestCheckBudgetDefaults(t *testing.T) {
	tr := NewTracker(nil, nil)

	check := tr.CheckBudget("fresh-user", 1.0)
	if !check.Allowed {
		t.Error("fresh user must be allowed")
	}
	if check.BudgetLimitUSD != DefaultDailyBudgetUSD {
		t.Errorf("expected default limit %v, got %v", DefaultDailyBudgetUSD, check.BudgetLimitUSD)
	}
	if check.BudgetRemainingUSD != DefaultDailyBudgetUSD {
		t.Errorf("expected full budget remaining, got %v", check.BudgetRemainingUSD)
	}
}

func TestCheckBudgetExhaustion(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.SetBudgetLimit("u1", 0.05)

	tr.RecordUsage(UsageParams{
		UserID: "u1", AgentID: "general", Model: "gpt-4",
		PromptTokens: 1000, CompletionTokens: 0, // 0.03
	})

	ok := tr.CheckBudget("u1", 0.01)
	if !ok.Allowed {
		t.Errorf("0.01 fits in remaining 0.02: %+v", ok)
	}

	over := tr.CheckBudget("u1", 0.03)
	if over.Allowed {
		t.Errorf("0.03 exceeds remaining 0.02: %+v", over)
	}
	if over.BudgetRemainingUSD != 0.02 {
		t.Errorf("expected remaining 0.02, got %v", over.BudgetRemainingUSD)
	}
}

func TestBudgetRemainingClampedAtZero(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.SetBudgetLimit("u1", 0.01)

	tr.RecordUsage(UsageParams{
		UserID: "u1", AgentID: "general", Model: "gpt-4",
		PromptTokens: 10000, CompletionTokens: 10000,
	})

	check := tr.CheckBudget("u1", 0)
	if check.BudgetRemainingUSD != 0 {
		t.Errorf("remaining must clamp at zero, got %v", check.BudgetRemainingUSD)
	}
}

func TestSetDefaultDailyBudget(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.SetDefaultDailyBudget(100)

	check := tr.CheckBudget("anyone", 50)
	if check.BudgetLimitUSD != 100 {
		t.Errorf("expected limit 100, got %v", check.BudgetLimitUSD)
	}
}

func TestGetUsageReportDateBounds(t *testing.T) {
	tr := NewTracker(nil, nil)

	days := []string{"2026-03-01", "2026-03-10", "2026-03-20"}
	for _, d := range days {
		day, _ := time.Parse("2006-01-02", d)
		tr.now = fixedClock(day)
		tr.RecordUsage(UsageParams{
			UserID: "u1", AgentID: "general", Model: "gpt-4o-mini", PromptTokens: 100,
		})
	}

	all := tr.GetUsageReport("u1", "", "")
	if len(all.Daily) != 3 {
		t.Errorf("open bounds should include all days, got %v", all.Daily)
	}

	mid := tr.GetUsageReport("u1", "2026-03-05", "2026-03-15")
	if len(mid.Daily) != 1 {
		t.Fatalf("expected single day in range, got %v", mid.Daily)
	}
	if mid.Daily["2026-03-10"] == nil {
		t.Errorf("expected 2026-03-10 in range, got %v", mid.Daily)
	}

	inclusive := tr.GetUsageReport("u1", "2026-03-01", "2026-03-20")
	if len(inclusive.Daily) != 3 {
		t.Errorf("bounds are inclusive, got %v", inclusive.Daily)
	}
}

func TestGetUsageReportIsolatesUsers(t *testing.T) {
	tr := NewTracker(nil, nil)

	tr.RecordUsage(UsageParams{UserID: "u1", AgentID: "general", Model: "gpt-4o-mini", PromptTokens: 100})
	tr.RecordUsage(UsageParams{UserID: "u2", AgentID: "general", Model: "gpt-4o-mini", PromptTokens: 999})

	report := tr.GetUsageReport("u1", "", "")
	if report.Totals.PromptTokens != 100 {
		t.Errorf("expected only u1 usage, got %+v", report.Totals)
	}
}

func TestGetAllUsersUsageSummarySorted(t *testing.T) {
	tr := NewTracker(nil, nil)
	tr.now = fixedClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	tr.RecordUsage(UsageParams{UserID: "small", AgentID: "general", Model: "gpt-4o-mini", PromptTokens: 100})
	tr.RecordUsage(UsageParams{UserID: "big", AgentID: "general", Model: "gpt-4", PromptTokens: 10000})

	summaries := tr.GetAllUsersUsageSummary("2026-03-15")
	if len(summaries) != 2 {
		t.Fatalf("expected 2 users, got %d", len(summaries))
	}
	if summaries[0].UserID != "big" {
		t.Errorf("expected descending spend order, got %v", summaries)
	}

	if got := tr.GetAllUsersUsageSummary("2020-01-01"); len(got) != 0 {
		t.Errorf("expected no usage for empty date, got %v", got)
	}
}

func TestPricingOverrides(t *testing.T) {
	pc := NewPricingConfig()
	pc.SetModelPricing("house-model", ModelPricing{PromptPer1K: 0.001, CompletionPer1K: 0.002})

	tr := NewTracker(pc, nil)
	if got := tr.CalculateCost("house-model", 1000, 1000); got != 0.003 {
		t.Errorf("expected 0.003, got %v", got)
	}
}

func TestRoundUSD(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.0000004, 0},
		{0.0000006, 0.000001},
		{0.1234564, 0.123456},
		{0.1234567, 0.123457},
	}
	for _, tc := range cases {
		if got := roundUSD(tc.in); got != tc.want {
			t.Errorf("roundUSD(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoadPricingFromEnv(t *testing.T) {
	t.Setenv("GOVERNANCE_PRICING_CONFIG",
		`{"models":{"gpt-4o-mini":{"prompt_per_1k":0.001,"completion_per_1k":0.002}}}`)

	pc := LoadPricingFromEnv()
	if got := pc.CalculateCost("gpt-4o-mini", 1000, 1000); got != 0.003 {
		t.Errorf("expected env override to win, got %v", got)
	}
	// untouched models keep defaults
	if got := pc.CalculateCost("gpt-4", 1000, 0); got != 0.03 {
		t.Errorf("expected default gpt-4 pricing, got %v", got)
	}
}
