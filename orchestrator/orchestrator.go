// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package orchestrator

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"relaycrm/governance/agents"
	"relaycrm/governance/audit"
	"relaycrm/governance/cost"
	"relaycrm/governance/guardrails"
	"relaycrm/governance/shared/logger"
)

// Orchestrator runs the governance pipeline. All collaborators are required
// except the logger.
type Orchestrator struct {
	engine     *guardrails.Engine
	registry   *agents.Registry
	classifier agents.Classifier
	tracker    *cost.Tracker
	trail      *audit.Trail
	log        *logger.Logger
}

// New wires an orchestrator from its collaborators.
func New(
	engine *guardrails.Engine,
	registry *agents.Registry,
	classifier agents.Classifier,
	tracker *cost.Tracker,
	trail *audit.Trail,
	log *logger.Logger,
) *Orchestrator {
	if log == nil {
		log = logger.New("orchestrator")
	}
	return &Orchestrator{
		engine:     engine,
		registry:   registry,
		classifier: classifier,
		tracker:    tracker,
		trail:      trail,
		log:        log,
	}
}

// Orchestrate validates and routes a request, returning a plan ready for an
// LLM call. Guardrail rejections surface as guardrails.InputError; budget
// exhaustion only adds a warning, it never blocks.
func (o *Orchestrator) Orchestrate(req Request) (*Plan, error) {
	start := time.Now()

	validated, err := o.engine.ValidateInput(req.Prompt, guardrails.KindPrompt, false)
	if err != nil {
		return nil, err
	}

	var contextText string
	warnings := append([]string(nil), validated.Warnings...)
	if req.Context != "" {
		// Context is caller-supplied document text, so code blocks stay.
		ctxResult, err := o.engine.ValidateInput(req.Context, guardrails.KindContext, true)
		if err != nil {
			return nil, err
		}
		contextText = ctxResult.Sanitized
		warnings = append(warnings, ctxResult.Warnings...)
	}

	var intent agents.Intent
	if req.AgentID != "" {
		intent = agents.Intent{AgentID: req.AgentID, Confidence: 1.0}
	} else {
		intent = o.classifier.Classify(validated.Sanitized)
	}

	profile, ok := o.registry.Get(intent.AgentID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, intent.AgentID)
	}

	// Anonymous requests carry no budget, so there is nothing to check.
	if req.UserID != "" {
		check := o.tracker.CheckBudget(req.UserID, o.tracker.CalculateCost(
			profile.Model, len(validated.Sanitized)/4, profile.MaxTokens/2))
		if !check.Allowed {
			warnings = append(warnings, fmt.Sprintf(
				"daily budget exhausted: $%.2f of $%.2f used",
				check.DailyTotalUSD, check.BudgetLimitUSD))
			o.log.Warn(req.SessionID, req.UserID, "budget exhausted, proceeding", map[string]interface{}{
				"daily_total_usd": check.DailyTotalUSD,
				"budget_limit":    check.BudgetLimitUSD,
			})
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = newSessionID()
	}

	messages := []Message{{Role: "system", Content: profile.SystemPrompt}}
	if contextText != "" {
		messages = append(messages, Message{
			Role:    "system",
			Content: "Context provided by the caller:\n\n" + contextText,
		})
	}
	messages = append(messages, Message{Role: "user", Content: validated.Sanitized})

	o.trail.LogInteraction(audit.Entry{
		SessionID: sessionID,
		UserID:    req.UserID,
		AgentID:   profile.ID,
		Action:    audit.ActionOrchestrate,
		Input:     validated.Sanitized,
		Model:     profile.Model,
		LatencyMs: time.Since(start).Milliseconds(),
		Metadata: map[string]interface{}{
			"confidence":  intent.Confidence,
			"forced":      req.AgentID != "",
			"has_context": req.Context != "",
			"warnings":    len(warnings),
		},
	})

	return &Plan{
		Agent:     profile,
		Messages:  messages,
		Intent:    intent,
		SessionID: sessionID,
		Warnings:  warnings,
	}, nil
}

// ProcessResponse governs a raw model response: secrets are redacted, content
// safety is scored, usage is charged, and the interaction is audited. The
// result flags whether a human should look before the output is released.
func (o *Orchestrator) ProcessResponse(in ResponseInput) (*ProcessedResponse, error) {
	filtered := o.engine.FilterOutput(in.RawOutput)
	safety := o.engine.EvaluateContentSafety(filtered.Filtered)

	var costUSD float64
	if in.UserID != "" {
		usage := o.tracker.RecordUsage(cost.UsageParams{
			UserID:           in.UserID,
			AgentID:          in.AgentID,
			Model:            in.Model,
			PromptTokens:     in.PromptTokens,
			CompletionTokens: in.CompletionTokens,
		})
		costUSD = usage.CostUSD
	}

	auditID := o.trail.LogInteraction(audit.Entry{
		SessionID: in.SessionID,
		UserID:    in.UserID,
		AgentID:   in.AgentID,
		Action:    audit.ActionResponse,
		Output:    filtered.Filtered,
		Tokens: audit.TokenUsage{
			Prompt:     in.PromptTokens,
			Completion: in.CompletionTokens,
		},
		LatencyMs: in.LatencyMs,
		Safety: &audit.SafetyRecord{
			Safe:  safety.Safe,
			Score: safety.Score,
			Flags: safety.Flags,
		},
		Model:   in.Model,
		CostUSD: costUSD,
	})

	requiresReview := !safety.Safe || filtered.Redactions > 0
	if requiresReview {
		o.log.Warn(in.SessionID, in.UserID, "response flagged for review", map[string]interface{}{
			"safety_score": safety.Score,
			"flags":        safety.Flags,
			"redactions":   filtered.Redactions,
		})
	}

	return &ProcessedResponse{
		Output:         filtered.Filtered,
		Safety:         safety,
		Redactions:     filtered.Redactions,
		CostUSD:        costUSD,
		AuditID:        auditID,
		RequiresReview: requiresReview,
	}, nil
}

// newSessionID generates ids of the form sess_<timestamp36>_<random>.
func newSessionID() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return "sess_" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "_" + hex.EncodeToString(buf[:])
}
