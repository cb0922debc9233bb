// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package agents

// FallbackAgentID receives prompts that match no keywords.
const FallbackAgentID = "general"

// fallbackConfidence is assigned when classification falls through to the
// general agent.
const fallbackConfidence = 0.25

// BuiltinProfiles returns the default agent catalog. Deployments extend or
// replace these via the YAML profile loader.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			ID:          "general",
			Name:        "General Assistant",
			Description: "Catch-all agent for prompts that fit no specialist",
			SystemPrompt: "You are a helpful, accurate assistant. Answer concisely " +
				"and say so when you are unsure.",
			Keywords:    []string{},
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0.7,
		},
		{
			ID:          "compliance",
			Name:        "Compliance Analyst",
			Description: "Regulatory frameworks, controls, and audit readiness",
			SystemPrompt: "You are a compliance analyst. Ground answers in the named " +
				"framework and cite control identifiers where applicable. Never invent " +
				"requirements.",
			Keywords: []string{
				"compliance", "nist", "cmmc", "800-171", "800-53", "fedramp",
				"soc 2", "soc2", "hipaa", "gdpr", "requirement", "control",
				"framework", "audit", "assessment", "certification", "poam",
			},
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		{
			ID:          "content",
			Name:        "Content Writer",
			Description: "Drafting and editing customer-facing copy",
			SystemPrompt: "You are a marketing content writer. Match the requested tone, " +
				"keep claims verifiable, and flag anything that needs legal review.",
			Keywords: []string{
				"write", "draft", "blog", "email", "newsletter", "copy",
				"headline", "social", "post", "announcement", "press release",
			},
			Model:       "gpt-4o",
			MaxTokens:   4096,
			Temperature: 0.8,
		},
		{
			ID:          "analyst",
			Name:        "Data Analyst",
			Description: "Metrics, reporting, and data interpretation",
			SystemPrompt: "You are a data analyst. Show your working, state assumptions, " +
				"and distinguish observed figures from projections.",
			Keywords: []string{
				"analyze", "analysis", "metric", "report", "trend", "forecast",
				"revenue", "pipeline", "conversion", "churn", "dashboard", "chart",
			},
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.3,
		},
		{
			ID:          "assistant",
			Name:        "Workflow Assistant",
			Description: "Task management, scheduling, and CRM record helpers",
			SystemPrompt: "You are a workflow assistant inside a CRM. Keep answers short " +
				"and action-oriented.",
			Keywords: []string{
				"schedule", "meeting", "reminder", "task", "follow up", "followup",
				"contact", "deal", "note", "summarize", "summary",
			},
			Model:       "gpt-4o-mini",
			MaxTokens:   2048,
			Temperature: 0.5,
		},
	}
}
