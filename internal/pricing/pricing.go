package pricing

import (
	"strings"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
)

// ModelPricing contains per-category rates in dollars per million tokens.
type ModelPricing struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// Canonical model IDs used as pricing table keys.
const (
	SonnetID = "claude-sonnet-4-5-20250929"
	HaikuID  = "claude-haiku-4-5-20251001"

	// DefaultID is used for empty or unrecognized model names. Sonnet is
	// the more expensive of the two, so unknown usage is costed high
	// rather than low.
	DefaultID = SonnetID
)

const tokensPerMillion = 1_000_000

// Pricing per MTok as of January 2025.
var table = map[string]ModelPricing{
	SonnetID: {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
	HaikuID:  {Input: 0.80, Output: 4.00, CacheWrite: 1.00, CacheRead: 0.08},
}

var aliases = map[string]string{
	"claude-sonnet": SonnetID,
	"claude-haiku":  HaikuID,
	"sonnet":        SonnetID,
	"haiku":         HaikuID,
}

// Normalize maps a model name to a canonical pricing table ID.
// Resolution order: exact canonical match, case-insensitive alias,
// family keyword ("sonnet"/"haiku") substring, then DefaultID.
func Normalize(name string) string {
	if name == "" {
		return DefaultID
	}

	if _, ok := table[name]; ok {
		return name
	}

	lower := strings.ToLower(name)
	if id, ok := aliases[lower]; ok {
		return id
	}

	if strings.Contains(lower, "sonnet") {
		return SonnetID
	}
	if strings.Contains(lower, "haiku") {
		return HaikuID
	}

	return DefaultID
}

// Rates returns the pricing entry for a model, normalizing first and
// falling back to the default model's rates.
func Rates(name string) ModelPricing {
	if p, ok := table[Normalize(name)]; ok {
		return p
	}
	return table[DefaultID]
}

// MessageCost computes the dollar cost for a single message's token
// usage. No rounding is applied; formatting is a presentation concern.
func MessageCost(name string, usage model.TokenUsage) float64 {
	p := Rates(name)

	cost := float64(usage.InputTokens) / tokensPerMillion * p.Input
	cost += float64(usage.OutputTokens) / tokensPerMillion * p.Output
	cost += float64(usage.CacheCreationInputTokens) / tokensPerMillion * p.CacheWrite
	cost += float64(usage.CacheReadInputTokens) / tokensPerMillion * p.CacheRead
	return cost
}

// DisplayName returns the human-facing family name for a model, used to
// collapse aliases into one cost breakdown bucket.
func DisplayName(name string) string {
	normalized := strings.ToLower(Normalize(name))
	switch {
	case strings.Contains(normalized, "sonnet"):
		return "Sonnet"
	case strings.Contains(normalized, "haiku"):
		return "Haiku"
	default:
		return "Unknown"
	}
}
