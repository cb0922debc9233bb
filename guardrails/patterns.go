// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package guardrails

import (
	"regexp"
)

// Family classifies the injection technique a pattern detects.
type Family string

const (
	FamilyInstructionOverride Family = "instruction_override"
	FamilyRoleReassignment    Family = "role_reassignment"
	FamilyDelimiterTokens     Family = "delimiter_tokens"
	FamilyPromptExfiltration  Family = "prompt_exfiltration"
	FamilyJailbreakAlias      Family = "jailbreak_alias"
)

// Pattern represents a prompt-injection detection pattern.
type Pattern struct {
	// Name is a human-readable identifier for the pattern.
	Name string

	// Family classifies the injection technique this pattern detects.
	Family Family

	// Regex is the compiled regular expression.
	Regex *regexp.Regexp

	// Description explains what this pattern detects.
	Description string

	// Severity indicates the risk level (1-10).
	Severity int
}

// PatternSet holds a collection of prompt-injection patterns.
type PatternSet struct {
	patterns []*Pattern
}

// NewPatternSet creates a new pattern set with the default injection patterns.
func NewPatternSet() *PatternSet {
	return &PatternSet{
		patterns: defaultPatterns(),
	}
}

// Patterns returns all patterns in the set.
func (ps *PatternSet) Patterns() []*Pattern {
	return ps.patterns
}

// PatternsByFamily returns patterns filtered by family.
func (ps *PatternSet) PatternsByFamily(family Family) []*Pattern {
	var result []*Pattern
	for _, p := range ps.patterns {
		if p.Family == family {
			result = append(result, p)
		}
	}
	return result
}

// defaultPatterns returns the built-in prompt-injection patterns.
// These are designed to balance detection accuracy with false positives:
// a single family match is treated as suspicious, two or more as an attack.
func defaultPatterns() []*Pattern {
	return []*Pattern{
		// Instruction-override phrasing
		{
			Name:        "ignore_previous",
			Family:      FamilyInstructionOverride,
			Regex:       regexp.MustCompile(`(?i)\b(ignore|disregard|forget)\s+(all\s+|any\s+|your\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|prompts?|rules?|directions?|messages?)`),
			Description: "Detects attempts to discard earlier instructions",
			Severity:    9,
		},
		{
			Name:        "override_rules",
			Family:      FamilyInstructionOverride,
			Regex:       regexp.MustCompile(`(?i)\b(override|bypass|disable)\s+(your\s+|the\s+|all\s+)?(rules?|restrictions?|guidelines?|filters?|safety)`),
			Description: "Detects attempts to override safety rules",
			Severity:    9,
		},
		{
			Name:        "no_longer_bound",
			Family:      FamilyInstructionOverride,
			Regex:       regexp.MustCompile(`(?i)\byou\s+(are\s+no\s+longer|don'?t\s+have\s+to|do\s+not\s+have\s+to)\s+(bound|follow|obey|comply)`),
			Description: "Detects claims that prior constraints no longer apply",
			Severity:    8,
		},

		// Role-reassignment phrasing
		{
			Name:        "you_are_now",
			Family:      FamilyRoleReassignment,
			Regex:       regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(a|an|the|in)\b`),
			Description: "Detects attempts to assign the model a new identity",
			Severity:    8,
		},
		{
			Name:        "act_as",
			Family:      FamilyRoleReassignment,
			Regex:       regexp.MustCompile(`(?i)\b(act|behave|respond)\s+as\s+(if\s+you\s+(are|were)|though\s+you\s+are|a\s+different|an?\s+unrestricted)`),
			Description: "Detects role-play framing used to escape the system role",
			Severity:    7,
		},
		{
			Name:        "pretend_to_be",
			Family:      FamilyRoleReassignment,
			Regex:       regexp.MustCompile(`(?i)\bpretend\s+(to\s+be|you\s+are|you\s+have\s+no)`),
			Description: "Detects pretend-framing for identity reassignment",
			Severity:    7,
		},

		// System/role delimiter tokens
		{
			Name:        "chat_ml_tokens",
			Family:      FamilyDelimiterTokens,
			Regex:       regexp.MustCompile(`(?i)<\|?\s*(system|im_start|im_end|endoftext)\s*\|?>`),
			Description: "Detects chat-template delimiter tokens embedded in input",
			Severity:    9,
		},
		{
			Name:        "bracketed_role",
			Family:      FamilyDelimiterTokens,
			Regex:       regexp.MustCompile(`(?i)\[\s*(system|assistant)\s*(message|prompt)?\s*\]\s*:?`),
			Description: "Detects bracketed role markers used to forge messages",
			Severity:    8,
		},
		{
			Name:        "role_prefix_line",
			Family:      FamilyDelimiterTokens,
			Regex:       regexp.MustCompile(`(?im)^\s*(system|assistant)\s*:\s+\S`),
			Description: "Detects role-prefixed lines mimicking a transcript",
			Severity:    6,
		},

		// Prompt-exfiltration phrasing
		{
			Name:        "reveal_system_prompt",
			Family:      FamilyPromptExfiltration,
			Regex:       regexp.MustCompile(`(?i)\b(reveal|show|print|repeat|output|display|leak)\s+(your|the|its)\s+(system\s+prompt|initial\s+prompt|hidden\s+prompt|instructions|configuration)`),
			Description: "Detects direct requests for the system prompt",
			Severity:    9,
		},
		{
			Name:        "what_are_your_instructions",
			Family:      FamilyPromptExfiltration,
			Regex:       regexp.MustCompile(`(?i)\bwhat\s+(is|are|were)\s+your\s+(system\s+prompt|initial\s+)?instructions\b`),
			Description: "Detects indirect probing for the system prompt",
			Severity:    7,
		},
		{
			Name:        "verbatim_above",
			Family:      FamilyPromptExfiltration,
			Regex:       regexp.MustCompile(`(?i)\brepeat\s+(everything|all\s+text|the\s+text)\s+(above|before)\b`),
			Description: "Detects verbatim-replay requests targeting hidden context",
			Severity:    8,
		},

		// Known jailbreak aliases
		{
			Name:        "dan_alias",
			Family:      FamilyJailbreakAlias,
			Regex:       regexp.MustCompile(`\bDAN\b|(?i)\bdo\s+anything\s+now\b`),
			Description: "Detects the DAN jailbreak alias",
			Severity:    9,
		},
		{
			Name:        "developer_mode",
			Family:      FamilyJailbreakAlias,
			Regex:       regexp.MustCompile(`(?i)\bdeveloper\s+mode\b`),
			Description: "Detects the developer-mode jailbreak framing",
			Severity:    8,
		},
		{
			Name:        "jailbreak_keyword",
			Family:      FamilyJailbreakAlias,
			Regex:       regexp.MustCompile(`(?i)\bjail\s?break(ing|s|ed)?\b`),
			Description: "Detects explicit jailbreak references",
			Severity:    7,
		},
	}
}
