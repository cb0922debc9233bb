// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package agents

import (
	"sort"
	"strings"
)

// KeywordClassifier scores prompts by case-insensitive substring matches
// against each profile's keyword list. It is deterministic: ties break on
// the lexicographically smaller agent id.
type KeywordClassifier struct {
	registry *Registry
}

// NewKeywordClassifier creates a classifier over the given registry.
func NewKeywordClassifier(registry *Registry) *KeywordClassifier {
	return &KeywordClassifier{registry: registry}
}

// Classify routes a prompt. Confidence is the top agent's share of all
// keyword hits; prompts matching nothing fall back to the general agent at
// low confidence.
func (c *KeywordClassifier) Classify(prompt string) Intent {
	lowered := strings.ToLower(prompt)

	scores := make(map[string]float64)
	total := 0.0
	for _, p := range c.registry.List() {
		hits := 0.0
		for _, kw := range p.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				hits++
			}
		}
		if hits > 0 {
			scores[p.ID] = hits
			total += hits
		}
	}

	if total == 0 {
		return Intent{AgentID: FallbackAgentID, Confidence: fallbackConfidence}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ids[0]
	for _, id := range ids[1:] {
		if scores[id] > scores[best] {
			best = id
		}
	}

	return Intent{
		AgentID:    best,
		Confidence: scores[best] / total,
		Scores:     scores,
	}
}
