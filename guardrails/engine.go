// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"relaycrm/governance/shared/logger"
)

// InputKind identifies which length cap and sanitization rules apply.
type InputKind string

const (
	KindPrompt          InputKind = "prompt"
	KindSystemMessage   InputKind = "system_message"
	KindContext         InputKind = "context"
	KindDocumentContent InputKind = "document_content"
)

// Per-kind input length caps in characters.
var inputCaps = map[InputKind]int{
	KindPrompt:          8000,
	KindSystemMessage:   4000,
	KindContext:         16000,
	KindDocumentContent: 50000,
}

// blockThreshold is the number of distinct injection families that must
// match before input is rejected outright. One match lets legitimate text
// that mentions "ignore" through with a warning; stacked techniques don't.
const blockThreshold = 2

var inputsBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "guardrails_inputs_blocked_total",
	Help: "Inputs rejected by the guardrail engine, by rejection code.",
}, []string{"code"})

// ValidationResult is the outcome of a successful input validation.
type ValidationResult struct {
	Sanitized string   `json:"sanitized"`
	Warnings  []string `json:"warnings,omitempty"`
}

// InjectionReport is the outcome of prompt-injection detection.
type InjectionReport struct {
	Blocked         bool     `json:"blocked"`
	Suspicious      bool     `json:"suspicious"`
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
	Score           int      `json:"score"`
}

// Engine performs pattern-based input validation and output filtering.
type Engine struct {
	patterns *PatternSet
	log      *logger.Logger
}

// NewEngine creates a guardrail engine with the default pattern set.
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.New("guardrails")
	}
	return &Engine{
		patterns: NewPatternSet(),
		log:      log,
	}
}

// ValidateInput checks and sanitizes a piece of user-supplied text.
// It fails with an InputError when the input is empty, exceeds the per-kind
// length cap, or matches two or more independent injection families.
// A single family match passes through with a warning.
func (e *Engine) ValidateInput(text string, kind InputKind, allowCodeBlocks bool) (*ValidationResult, error) {
	if strings.TrimSpace(text) == "" {
		inputsBlocked.WithLabelValues(CodeInputRequired).Inc()
		return nil, newInputError(CodeInputRequired, "input text is required")
	}

	limit, ok := inputCaps[kind]
	if !ok {
		limit = inputCaps[KindPrompt]
	}
	if len(text) > limit {
		inputsBlocked.WithLabelValues(CodeInputTooLong).Inc()
		return nil, newInputError(CodeInputTooLong,
			fmt.Sprintf("input exceeds maximum length of %d characters", limit))
	}

	report := e.DetectPromptInjection(text)
	if report.Blocked {
		inputsBlocked.WithLabelValues(CodeInjectionDetected).Inc()
		e.log.Warn("", "", "input blocked by injection guardrail", map[string]interface{}{
			"kind":     string(kind),
			"families": report.MatchedPatterns,
			"score":    report.Score,
		})
		return nil, newInputError(CodeInjectionDetected,
			"input was rejected by safety filters")
	}

	result := &ValidationResult{
		Sanitized: sanitize(text, allowCodeBlocks),
	}
	if report.Suspicious {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("input contains suspicious phrasing (%s)", report.MatchedPatterns[0]))
	}
	return result, nil
}

// DetectPromptInjection scans text for injection patterns. It is a pure
// function over the engine's pattern set and can be used to scan stored
// content outside the validation path.
func (e *Engine) DetectPromptInjection(text string) InjectionReport {
	families := make(map[Family]bool)
	score := 0

	for _, p := range e.patterns.Patterns() {
		if p.Regex.MatchString(text) {
			if !families[p.Family] {
				families[p.Family] = true
			}
			score += p.Severity
		}
	}

	report := InjectionReport{Score: score}
	for _, f := range []Family{
		FamilyInstructionOverride,
		FamilyRoleReassignment,
		FamilyDelimiterTokens,
		FamilyPromptExfiltration,
		FamilyJailbreakAlias,
	} {
		if families[f] {
			report.MatchedPatterns = append(report.MatchedPatterns, string(f))
		}
	}

	switch {
	case len(families) >= blockThreshold:
		report.Blocked = true
	case len(families) == 1:
		report.Suspicious = true
	}
	return report
}

var fencedCodeBlock = regexp.MustCompile("(?s)```.*?```")

// sanitize strips control characters except newline and tab, and optionally
// replaces fenced code blocks with a placeholder marker.
func sanitize(text string, allowCodeBlocks bool) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || (r >= 0x20 && r != 0x7f) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !allowCodeBlocks {
		out = fencedCodeBlock.ReplaceAllString(out, "[code block removed]")
	}
	return out
}
