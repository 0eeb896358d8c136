// Package cost prices model token usage.
package cost

import "github.com/sells-group/profile-cli/internal/config"

// Rates holds per-model pricing keyed by model name.
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (per million tokens). Cache
// multipliers scale the input rate.
type ModelRate struct {
	Input         float64 `yaml:"input" mapstructure:"input"`
	Output        float64 `yaml:"output" mapstructure:"output"`
	CacheWriteMul float64 `yaml:"cache_write_mul" mapstructure:"cache_write_mul"`
	CacheReadMul  float64 `yaml:"cache_read_mul" mapstructure:"cache_read_mul"`
}

// Calculator computes costs for model usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Tokens computes the USD cost of one call. Unknown models cost 0.
func (c *Calculator) Tokens(model string, input, output, cacheWrite, cacheRead int64) float64 {
	if c == nil {
		return 0
	}
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	cwCost := (float64(cacheWrite) / 1e6) * rate.Input * rate.CacheWriteMul
	crCost := (float64(cacheRead) / 1e6) * rate.Input * rate.CacheReadMul
	return inCost + outCost + cwCost + crCost
}

// Known reports whether the model has a configured rate.
func (c *Calculator) Known(model string) bool {
	if c == nil {
		return false
	}
	_, ok := c.rates.Models[model]
	return ok
}

// FromConfig converts configured pricing into Rates, layered over the
// defaults.
func FromConfig(p config.PricingConfig) Rates {
	rates := DefaultRates()
	for name, m := range p.Models {
		rates.Models[name] = ModelRate{
			Input:         m.Input,
			Output:        m.Output,
			CacheWriteMul: m.CacheWriteMul,
			CacheReadMul:  m.CacheReadMul,
		}
	}
	return rates
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001": {
				Input: 1.00, Output: 5.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"claude-sonnet-4-5-20250929": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"gpt-4o-mini": {
				Input: 0.15, Output: 0.60,
				CacheReadMul: 0.5,
			},
			"gpt-4o": {
				Input: 2.50, Output: 10.00,
				CacheReadMul: 0.5,
			},
		},
	}
}
