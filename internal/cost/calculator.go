// Package cost estimates the dollar cost of a run's model usage.
package cost

import "github.com/snapatlas/enrich/internal/model"

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates holds per-model pricing configuration.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// DefaultRates returns published per-MTok pricing for the models the
// pipeline defaults to.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-sonnet-4-5-20250929": {Input: 3, Output: 15},
			"claude-haiku-4-5-20251001":  {Input: 1, Output: 5},
			"claude-opus-4-1-20250805":   {Input: 15, Output: 75},
		},
	}
}

// Calculator computes estimated costs for model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Message computes the cost of one model call. Unknown models cost zero
// rather than failing; cost tracking is best effort.
func (c *Calculator) Message(modelName string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[modelName]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Run totals the estimated cost of a run's usage entries.
func (c *Calculator) Run(entries []model.UsageEntry) float64 {
	total := 0.0
	for _, e := range entries {
		total += c.Message(e.Model, e.InputTokens, e.OutputTokens)
	}
	return total
}
