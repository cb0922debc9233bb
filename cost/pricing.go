// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package cost

import (
	"encoding/json"
	"math"
	"os"
	"strings"
	"sync"
)

// ModelPricing contains pricing per 1K tokens for a model, in USD.
type ModelPricing struct {
	PromptPer1K     float64 `json:"prompt_per_1k"`
	CompletionPer1K float64 `json:"completion_per_1k"`
}

// PricingConfig holds per-model pricing with a conservative default entry
// for unknown models.
type PricingConfig struct {
	Models map[string]ModelPricing `json:"models"`
	mu     sync.RWMutex
}

// DefaultPricing contains default pricing for common models.
// Prices are per 1K tokens in USD.
var DefaultPricing = &PricingConfig{
	Models: map[string]ModelPricing{
		// OpenAI
		"gpt-4o":        {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		"gpt-4o-mini":   {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
		"gpt-4-turbo":   {PromptPer1K: 0.01, CompletionPer1K: 0.03},
		"gpt-4":         {PromptPer1K: 0.03, CompletionPer1K: 0.06},
		"gpt-3.5-turbo": {PromptPer1K: 0.0005, CompletionPer1K: 0.0015},
		"o1-mini":       {PromptPer1K: 0.003, CompletionPer1K: 0.012},

		// Anthropic
		"claude-3-5-sonnet": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
		"claude-3-5-haiku":  {PromptPer1K: 0.0008, CompletionPer1K: 0.004},
		"claude-3-opus":     {PromptPer1K: 0.015, CompletionPer1K: 0.075},
		"claude-3-haiku":    {PromptPer1K: 0.00025, CompletionPer1K: 0.00125},

		// Google
		"gemini-1.5-pro":   {PromptPer1K: 0.00125, CompletionPer1K: 0.005},
		"gemini-1.5-flash": {PromptPer1K: 0.000075, CompletionPer1K: 0.0003},

		// Conservative fallback for unknown models
		"default": {PromptPer1K: 0.01, CompletionPer1K: 0.03},
	},
}

// NewPricingConfig creates a pricing configuration seeded from the defaults.
func NewPricingConfig() *PricingConfig {
	return &PricingConfig{Models: copyModels(DefaultPricing.Models)}
}

// LoadPricingFromEnv loads custom pricing overrides from the
// GOVERNANCE_PRICING_CONFIG env var (JSON, merged over the defaults).
func LoadPricingFromEnv() *PricingConfig {
	config := NewPricingConfig()

	pricingJSON := os.Getenv("GOVERNANCE_PRICING_CONFIG")
	if pricingJSON != "" {
		var custom PricingConfig
		if err := json.Unmarshal([]byte(pricingJSON), &custom); err == nil {
			for model, pricing := range custom.Models {
				config.Models[model] = pricing
			}
		}
	}

	return config
}

// CalculateCost calculates the USD cost for a request. Unknown models fall
// back to the default rate. The result is rounded to 6 decimal places and is
// monotonic in both token counts.
func (p *PricingConfig) CalculateCost(model string, promptTokens, completionTokens int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pricing, ok := p.Models[model]
	if !ok {
		pricing, ok = p.Models[strings.ToLower(model)]
		if !ok {
			pricing = p.Models["default"]
		}
	}

	promptCost := float64(promptTokens) / 1000.0 * pricing.PromptPer1K
	completionCost := float64(completionTokens) / 1000.0 * pricing.CompletionPer1K

	return roundUSD(promptCost + completionCost)
}

// GetModelPricing returns pricing for a specific model.
func (p *PricingConfig) GetModelPricing(model string) (ModelPricing, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pricing, ok := p.Models[model]
	if !ok {
		pricing, ok = p.Models["default"]
	}
	return pricing, ok
}

// SetModelPricing sets pricing for a specific model.
func (p *PricingConfig) SetModelPricing(model string, pricing ModelPricing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Models[model] = pricing
}

// roundUSD rounds a dollar amount to 6 decimal places.
func roundUSD(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func copyModels(src map[string]ModelPricing) map[string]ModelPricing {
	dst := make(map[string]ModelPricing, len(src))
	for model, pricing := range src {
		dst[model] = pricing
	}
	return dst
}
