package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

// FormatCost formats a cost value as currency.
func FormatCost(cost float64) string {
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokens formats a token count with thousand separators.
func FormatTokens(n int64) string {
	return humanize.Comma(n)
}

// sortedModels returns breakdown keys in stable order.
func sortedModels(breakdown map[string]float64) []string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var warningHeadlines = map[warning.Level]string{
	warning.Level50:  "ℹ️ You've used 50% of your monthly budget",
	warning.Level75:  "⚠️ You've used 75% of your monthly budget",
	warning.Level90:  "⚠️ You're approaching your monthly budget limit (90% used)",
	warning.Level100: "🚨 You've reached your monthly budget",
	warning.Level125: "🚨 You've exceeded your monthly budget by 25%",
}

// WarningMessage formats the threshold warning shown at session start.
func WarningMessage(level warning.Level, cost, budget float64, breakdown map[string]float64) string {
	percentage := 0.0
	if budget > 0 {
		percentage = cost / budget * 100
	}
	remaining := budget - cost

	headline, ok := warningHeadlines[level]
	if !ok {
		headline = "ℹ️ Budget check"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cost guardrail: %s\n\n", headline)
	fmt.Fprintf(&b, "Current spending: %s / %s (%.1f%%)\n", FormatCost(cost), FormatCost(budget), percentage)
	fmt.Fprintf(&b, "Remaining: %s\n", FormatCost(remaining))

	if len(breakdown) > 0 {
		b.WriteString("\nBreakdown by model:\n")
		for _, name := range sortedModels(breakdown) {
			fmt.Fprintf(&b, "  - %s: %s\n", name, FormatCost(breakdown[name]))
		}
	}

	if level == warning.Level100 || level == warning.Level125 {
		b.WriteString("\nConsider:\n")
		b.WriteString("  - Using /compact to reduce context size\n")
		b.WriteString("  - Switching to Haiku for simpler tasks (/model haiku)\n")
		b.WriteString("  - Breaking complex tasks into smaller steps\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// SummaryMessage formats the brief spending line shown at session end.
func SummaryMessage(cost, budget float64) string {
	percentage := 0.0
	if budget > 0 {
		percentage = cost / budget * 100
	}
	remaining := budget - cost

	switch {
	case percentage >= 100:
		return fmt.Sprintf("🚨 Monthly spending: %s / %s (OVER BUDGET by %s)",
			FormatCost(cost), FormatCost(budget), FormatCost(-remaining))
	case percentage >= 90:
		return fmt.Sprintf("⚠️ Monthly spending: %s / %s (%s remaining)",
			FormatCost(cost), FormatCost(budget), FormatCost(remaining))
	default:
		return fmt.Sprintf("Monthly spending: %s / %s (%s remaining)",
			FormatCost(cost), FormatCost(budget), FormatCost(remaining))
	}
}

// StatusReport carries everything the status command displays.
type StatusReport struct {
	Month     string
	Cost      float64
	Budget    float64
	Breakdown map[string]float64
	Stats     model.UsageStats
	Level     warning.Level
}

// WriteStatus prints the full status report.
func WriteStatus(w io.Writer, rep StatusReport) {
	percentage := 0.0
	if rep.Budget > 0 {
		percentage = rep.Cost / rep.Budget * 100
	}
	remaining := rep.Budget - rep.Cost
	rule := strings.Repeat("=", 50)

	fmt.Fprintf(w, "\n📊 Cost status for %s\n\n", rep.Month)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nCurrent spending: %s\n", FormatCost(rep.Cost))
	fmt.Fprintf(w, "Monthly budget:   %s\n", FormatCost(rep.Budget))
	fmt.Fprintf(w, "Remaining:        %s\n", FormatCost(remaining))
	fmt.Fprintf(w, "Usage:            %.1f%%\n\n", percentage)

	if len(rep.Breakdown) > 0 {
		fmt.Fprintln(w, "Breakdown by model:")
		fmt.Fprintln(w, strings.Repeat("-", 50))
		for _, name := range sortedModels(rep.Breakdown) {
			cost := rep.Breakdown[name]
			share := 0.0
			if rep.Cost > 0 {
				share = cost / rep.Cost * 100
			}
			fmt.Fprintf(w, "  %-8s %8s (%5.1f%%)\n", name, FormatCost(cost), share)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total API calls: %d\n", rep.Stats.APICalls)
	fmt.Fprintln(w, "Total tokens:")
	fmt.Fprintf(w, "  Input:       %12s\n", FormatTokens(rep.Stats.InputTokens))
	fmt.Fprintf(w, "  Output:      %12s\n", FormatTokens(rep.Stats.OutputTokens))
	fmt.Fprintf(w, "  Cache write: %12s\n", FormatTokens(rep.Stats.CacheWriteTokens))
	fmt.Fprintf(w, "  Cache read:  %12s\n\n", FormatTokens(rep.Stats.CacheReadTokens))

	fmt.Fprintln(w, rule)
	switch rep.Level {
	case warning.Level125:
		fmt.Fprintln(w, "🚨 ALERT: budget exceeded by 25% or more")
	case warning.Level100:
		fmt.Fprintln(w, "🚨 WARNING: monthly budget exceeded")
	case warning.Level90:
		fmt.Fprintln(w, "⚠️ CAUTION: approaching budget limit (90%+)")
	case warning.Level75:
		fmt.Fprintln(w, "⚠️ NOTICE: 75% of budget used")
	case warning.Level50:
		fmt.Fprintln(w, "ℹ️ INFO: 50% of budget used")
	default:
		fmt.Fprintln(w, "✅ HEALTHY: budget usage under control")
	}
	fmt.Fprintln(w, rule)

	if rep.Level == warning.Level100 || rep.Level == warning.Level125 {
		fmt.Fprintln(w, "\n💡 Tips to reduce costs:")
		fmt.Fprintln(w, "  • Use /compact to reduce context size")
		fmt.Fprintln(w, "  • Switch to Haiku for simpler tasks (/model haiku)")
		fmt.Fprintln(w, "  • Break complex tasks into smaller steps")
	}
}

// jsonStatus is the --json shape of the status report.
type jsonStatus struct {
	Month            string             `json:"month"`
	Cost             float64            `json:"cost"`
	Budget           float64            `json:"budget"`
	Remaining        float64            `json:"remaining"`
	Percentage       float64            `json:"percentage"`
	Level            string             `json:"level"`
	Breakdown        map[string]float64 `json:"breakdown"`
	APICalls         int                `json:"api_calls"`
	InputTokens      int64              `json:"input_tokens"`
	OutputTokens     int64              `json:"output_tokens"`
	CacheWriteTokens int64              `json:"cache_write_tokens"`
	CacheReadTokens  int64              `json:"cache_read_tokens"`
}

// WriteStatusJSON prints the status report as JSON.
func WriteStatusJSON(w io.Writer, rep StatusReport) error {
	percentage := 0.0
	if rep.Budget > 0 {
		percentage = rep.Cost / rep.Budget * 100
	}

	out := jsonStatus{
		Month:            rep.Month,
		Cost:             rep.Cost,
		Budget:           rep.Budget,
		Remaining:        rep.Budget - rep.Cost,
		Percentage:       percentage,
		Level:            string(rep.Level),
		Breakdown:        rep.Breakdown,
		APICalls:         rep.Stats.APICalls,
		InputTokens:      rep.Stats.InputTokens,
		OutputTokens:     rep.Stats.OutputTokens,
		CacheWriteTokens: rep.Stats.CacheWriteTokens,
		CacheReadTokens:  rep.Stats.CacheReadTokens,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
