// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package orchestrator sequences the governance pipeline for one AI request:
// input validation, intent classification, budget check, message assembly on
// the way in; output filtering, safety evaluation, cost recording, and audit
// logging on the way out.
package orchestrator

import (
	"relaycrm/governance/agents"
	"relaycrm/governance/guardrails"
)

// Request is one inbound AI request prior to governance.
type Request struct {
	Prompt    string            `json:"prompt"`
	Context   string            `json:"context,omitempty"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id,omitempty"`
	AgentID   string            `json:"agent_id,omitempty"` // forces routing, skips classification
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Message is one chat message in provider-neutral shape.
type Message struct {
	Role    string `json:"role"` // system or user
	Content string `json:"content"`
}

// Plan is a governed request ready to hand to an LLM client.
type Plan struct {
	Agent     agents.Profile `json:"agent"`
	Messages  []Message      `json:"messages"`
	Intent    agents.Intent  `json:"intent"`
	SessionID string         `json:"session_id"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// ResponseInput carries a raw model response back through governance.
type ResponseInput struct {
	SessionID        string `json:"session_id"`
	UserID           string `json:"user_id"`
	AgentID          string `json:"agent_id"`
	Model            string `json:"model"`
	RawOutput        string `json:"raw_output"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	LatencyMs        int64  `json:"latency_ms"`
}

// ProcessedResponse is the governed form of a model response.
type ProcessedResponse struct {
	Output         string                      `json:"output"`
	Safety         guardrails.SafetyEvaluation `json:"safety"`
	Redactions     int                         `json:"redactions"`
	CostUSD        float64                     `json:"cost_usd"`
	AuditID        string                      `json:"audit_id"`
	RequiresReview bool                        `json:"requires_review"`
}
