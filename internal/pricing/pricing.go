// Package pricing maps model names and token counts to estimated USD cost.
package pricing

// ModelPrice holds dollars-per-million-token prices for a model.
type ModelPrice struct {
	Input  float64 `toml:"input" json:"input"`
	Output float64 `toml:"output" json:"output"`
}

// DefaultKey is the fallback entry used for unknown models.
const DefaultKey = "default"

// builtin maps model base names to per-million-token prices.
var builtin = map[string]ModelPrice{
	"claude-opus-4-6":   {Input: 15.00, Output: 75.00},
	"claude-opus-4-5":   {Input: 15.00, Output: 75.00},
	"claude-opus-4-1":   {Input: 15.00, Output: 75.00},
	"claude-sonnet-4-6": {Input: 3.00, Output: 15.00},
	"claude-sonnet-4-5": {Input: 3.00, Output: 15.00},
	"claude-sonnet-4":   {Input: 3.00, Output: 15.00},
	"claude-haiku-4-5":  {Input: 1.00, Output: 5.00},
	"claude-haiku-3-5":  {Input: 0.80, Output: 4.00},
	DefaultKey:          {Input: 3.00, Output: 15.00},
}

// Table resolves model prices, custom entries taking priority.
type Table struct {
	prices map[string]ModelPrice
}

// NewTable merges custom pricing over the built-in table. Custom entries
// override same-named built-ins and may add new models or replace the
// default entry.
func NewTable(custom map[string]ModelPrice) *Table {
	prices := make(map[string]ModelPrice, len(builtin)+len(custom))
	for name, p := range builtin {
		prices[name] = p
	}
	for name, p := range custom {
		prices[name] = p
	}
	return &Table{prices: prices}
}

// Lookup returns the price entry for a model: exact match first, then the
// default entry.
func (t *Table) Lookup(model string) ModelPrice {
	if p, ok := t.prices[model]; ok {
		return p
	}
	return t.prices[DefaultKey]
}

// Estimate computes the USD cost for a call:
// (inputTokens*price.Input + outputTokens*price.Output) / 1e6.
// Zero tokens always cost exactly zero.
func (t *Table) Estimate(model string, inputTokens, outputTokens int) float64 {
	p := t.Lookup(model)
	return (float64(inputTokens)*p.Input + float64(outputTokens)*p.Output) / 1_000_000
}
