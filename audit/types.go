// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package audit provides a durable, append-only interaction log for AI
// requests. Entries land in two places: a fixed-capacity in-memory ring
// buffer for fast recent-entry queries, and a newline-delimited JSON file
// that is authoritative and rotated by size. The ring is a lossy cache; the
// file is the record.
package audit

import "time"

// Action identifies what kind of interaction an entry records.
type Action string

const (
	ActionPrompt      Action = "prompt"
	ActionResponse    Action = "response"
	ActionOrchestrate Action = "orchestrate"
	ActionApproval    Action = "approval"
	ActionRejection   Action = "rejection"
)

// TokenUsage holds the token counts supplied by the caller.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// SafetyRecord snapshots a content-safety evaluation at log time.
type SafetyRecord struct {
	Safe  bool     `json:"safe"`
	Score int      `json:"score"`
	Flags []string `json:"flags,omitempty"`
}

// Entry is an immutable audit record once written.
type Entry struct {
	ID        string                 `json:"id"`
	SessionID string                 `json:"session_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	AgentID   string                 `json:"agent_id,omitempty"`
	Action    Action                 `json:"action"`
	Input     string                 `json:"input,omitempty"`
	Output    string                 `json:"output,omitempty"`
	ToolCalls []map[string]any       `json:"tool_calls,omitempty"`
	Tokens    TokenUsage             `json:"tokens"`
	LatencyMs int64                  `json:"latency_ms"`
	Safety    *SafetyRecord          `json:"safety,omitempty"`
	Model     string                 `json:"model,omitempty"`
	CostUSD   float64                `json:"cost_usd"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp string                 `json:"timestamp"` // ISO-8601
}

// Filter narrows a recent-entry query. Zero values match everything.
type Filter struct {
	SessionID string
	UserID    string
	AgentID   string
	Action    Action
	Limit     int
}

// StatsFilter narrows a stats aggregation.
type StatsFilter struct {
	AgentID string
	Since   time.Time
}

// Stats aggregates ring-buffer entries.
type Stats struct {
	TotalInteractions int            `json:"total_interactions"`
	TotalTokens       int            `json:"total_tokens"`
	TotalCostUSD      float64        `json:"total_cost_usd"`
	AvgLatencyMs      float64        `json:"avg_latency_ms"`
	ByAgent           map[string]int `json:"by_agent"`
	ByAction          map[Action]int `json:"by_action"`
}
