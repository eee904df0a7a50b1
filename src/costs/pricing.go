package costs

import (
	"strings"

	"github.com/brightboard/llmgateway/src/config"
)

// Default blended prices in USD per 1M tokens (as of 2025). Overridable
// through budget.prices_per_million_usd in config.
var defaultPricesPerMillionUSD = map[string]float64{
	"gpt-4o":        10.00,
	"gpt-4o-mini":   0.60,
	"gpt-4":         45.00,
	"gpt-4-turbo":   20.00,
	"gpt-3.5-turbo": 1.00,
}

const fallbackPricePerMillionUSD = 2.00

// Pricing is the static model price table used for cost estimation.
type Pricing struct {
	perMillionUSD map[string]float64
	defaultUSD    float64
}

func NewPricing(cfg *config.BudgetConfig) *Pricing {
	prices := make(map[string]float64, len(defaultPricesPerMillionUSD))
	for model, price := range defaultPricesPerMillionUSD {
		prices[model] = price
	}
	for model, price := range cfg.PricesPerMillionUSD {
		prices[strings.ToLower(model)] = price
	}

	defaultUSD := cfg.DefaultPriceUSD
	if defaultUSD <= 0 {
		defaultUSD = fallbackPricePerMillionUSD
	}

	return &Pricing{
		perMillionUSD: prices,
		defaultUSD:    defaultUSD,
	}
}

// PricePerMillion returns the configured price for a model, falling back
// to the default price for unrecognized models.
func (p *Pricing) PricePerMillion(model string) float64 {
	model = strings.ToLower(model)
	if price, ok := p.perMillionUSD[model]; ok {
		return price
	}

	// Dated variants like gpt-4o-2024-08-06 match their base model.
	for base, price := range p.perMillionUSD {
		if strings.HasPrefix(model, base) {
			return price
		}
	}

	return p.defaultUSD
}

// EstimateCost converts a token count into USD for the given model.
func (p *Pricing) EstimateCost(tokens int, model string) float64 {
	return float64(tokens) / 1_000_000 * p.PricePerMillion(model)
}

// EstimateTokens approximates token count from text: roughly 1 token per
// 4 characters, a cheap heuristic rather than an exact tokenizer.
func EstimateTokens(text string) int {
	return len(strings.TrimSpace(text)) / 4
}
