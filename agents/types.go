// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package agents manages the catalog of AI agent profiles and routes
// free-form user prompts to the best-fitting profile via keyword intent
// classification.
package agents

// Profile describes one routable AI agent.
type Profile struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	SystemPrompt string   `yaml:"system_prompt" json:"system_prompt"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
	Model        string   `yaml:"model" json:"model"`
	MaxTokens    int      `yaml:"max_tokens" json:"max_tokens"`
	Temperature  float64  `yaml:"temperature" json:"temperature"`
}

// Intent is a classification verdict for one prompt.
type Intent struct {
	AgentID    string             `json:"agent_id"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores,omitempty"`
}

// Classifier routes a prompt to an agent id.
type Classifier interface {
	Classify(prompt string) Intent
}
