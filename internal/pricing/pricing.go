// Package pricing maps LLM token usage onto USD cost estimates.
package pricing

// ModelPrice holds per-1K-token prices for one model.
type ModelPrice struct {
	InputPer1K  float64 // USD per 1K prompt tokens.
	OutputPer1K float64 // USD per 1K completion tokens.
}

// Table is a static price table keyed by provider then model.
//
// Missing entries resolve to zero cost: absent price data must never block a
// request, only under-report its cost.
type Table struct {
	prices map[string]map[string]ModelPrice
}

// NewTable builds a Table from a provider -> model -> price mapping.
func NewTable(prices map[string]map[string]ModelPrice) *Table {
	if prices == nil {
		prices = map[string]map[string]ModelPrice{}
	}
	return &Table{prices: prices}
}

// Default returns the built-in price table for the supported vendors.
func Default() *Table {
	return NewTable(map[string]map[string]ModelPrice{
		"openai": {
			"gpt-4":         {InputPer1K: 0.03, OutputPer1K: 0.06},
			"gpt-4o":        {InputPer1K: 0.005, OutputPer1K: 0.015},
			"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
		},
		"anthropic": {
			"claude-3-opus":   {InputPer1K: 0.015, OutputPer1K: 0.075},
			"claude-3-sonnet": {InputPer1K: 0.003, OutputPer1K: 0.015},
			"claude-3-haiku":  {InputPer1K: 0.00025, OutputPer1K: 0.00125},
		},
		"gemini": {
			"gemini-1.5-pro":   {InputPer1K: 0.00125, OutputPer1K: 0.005},
			"gemini-1.5-flash": {InputPer1K: 0.000075, OutputPer1K: 0.0003},
		},
	})
}

// Lookup returns the price entry for a provider/model pair.
func (t *Table) Lookup(provider, model string) (ModelPrice, bool) {
	if t == nil {
		return ModelPrice{}, false
	}
	byModel, ok := t.prices[provider]
	if !ok {
		return ModelPrice{}, false
	}
	price, ok := byModel[model]
	return price, ok
}

// Cost computes the USD cost for a call. Unknown provider/model pairs cost
// zero rather than returning an error.
func (t *Table) Cost(provider, model string, promptTokens, completionTokens int64) float64 {
	price, ok := t.Lookup(provider, model)
	if !ok {
		return 0
	}
	return float64(promptTokens)/1000*price.InputPer1K + float64(completionTokens)/1000*price.OutputPer1K
}
