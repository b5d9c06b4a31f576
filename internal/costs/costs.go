// Package costs reduces parsed usage records into the numbers the rest
// of the tool reports on: total dollar spend, a per-model breakdown, and
// aggregate token statistics.
package costs

import (
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/pricing"
)

// Summary holds everything computed from one pass over a record set.
type Summary struct {
	// TotalCost is the summed dollar cost of records that carried both a
	// model and a usage payload.
	TotalCost float64

	// Breakdown maps display names ("Sonnet", "Haiku") to accumulated
	// cost. Aliases of a model collapse into one bucket. Key order is
	// the caller's concern.
	Breakdown map[string]float64

	// Stats are aggregate token statistics over every record observed.
	Stats model.UsageStats
}

// Summarize reduces records in a single linear pass. Addition is
// commutative, so the result does not depend on record order.
func Summarize(records []model.UsageRecord) Summary {
	s := Summary{Breakdown: make(map[string]float64)}

	for _, r := range records {
		s.Stats.APICalls++
		s.Stats.InputTokens += r.Usage.InputTokens
		s.Stats.OutputTokens += r.Usage.OutputTokens
		s.Stats.CacheWriteTokens += r.Usage.CacheCreationInputTokens
		s.Stats.CacheReadTokens += r.Usage.CacheReadInputTokens

		// Records missing a model or usage payload still count toward
		// stats but are excluded from cost.
		if r.Model == "" || !r.HasUsage {
			continue
		}

		cost := pricing.MessageCost(r.Model, r.Usage)
		s.TotalCost += cost
		s.Breakdown[pricing.DisplayName(r.Model)] += cost
	}

	return s
}
