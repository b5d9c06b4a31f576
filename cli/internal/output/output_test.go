package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/warning"
)

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCost(0))
	assert.Equal(t, "$7.50", FormatCost(7.5))
	assert.Equal(t, "$12.35", FormatCost(12.345))
	assert.Equal(t, "$-1.50", FormatCost(-1.5))
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "0", FormatTokens(0))
	assert.Equal(t, "1,234,567", FormatTokens(1234567))
}

func TestWarningMessage(t *testing.T) {
	breakdown := map[string]float64{"Sonnet": 6.50, "Haiku": 1.00}
	msg := WarningMessage(warning.Level50, 7.50, 15.00, breakdown)

	assert.Contains(t, msg, "50% of your monthly budget")
	assert.Contains(t, msg, "$7.50 / $15.00 (50.0%)")
	assert.Contains(t, msg, "Remaining: $7.50")
	assert.Contains(t, msg, "- Haiku: $1.00")
	assert.Contains(t, msg, "- Sonnet: $6.50")
	assert.NotContains(t, msg, "Consider:", "tips only appear at or over budget")
}

func TestWarningMessage_OverBudgetIncludesTips(t *testing.T) {
	msg := WarningMessage(warning.Level100, 15.50, 15.00, nil)
	assert.Contains(t, msg, "reached your monthly budget")
	assert.Contains(t, msg, "/model haiku")
	assert.Contains(t, msg, "Remaining: $-0.50")
}

func TestSummaryMessage(t *testing.T) {
	assert.Equal(t, "Monthly spending: $3.00 / $15.00 ($12.00 remaining)",
		SummaryMessage(3.00, 15.00))

	near := SummaryMessage(14.00, 15.00)
	assert.True(t, strings.HasSuffix(near, "($1.00 remaining)"))
	assert.Contains(t, near, "⚠️")

	over := SummaryMessage(16.00, 15.00)
	assert.Contains(t, over, "OVER BUDGET by $1.00")
}

func statusFixture() StatusReport {
	return StatusReport{
		Month:     "January 2026",
		Cost:      11.25,
		Budget:    15.00,
		Breakdown: map[string]float64{"Sonnet": 10.00, "Haiku": 1.25},
		Stats: model.UsageStats{
			APICalls:         42,
			InputTokens:      1_500_000,
			OutputTokens:     250_000,
			CacheWriteTokens: 90_000,
			CacheReadTokens:  4_000_000,
		},
		Level: warning.Level75,
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	WriteStatus(&buf, statusFixture())
	out := buf.String()

	assert.Contains(t, out, "Cost status for January 2026")
	assert.Contains(t, out, "Current spending: $11.25")
	assert.Contains(t, out, "Remaining:        $3.75")
	assert.Contains(t, out, "Usage:            75.0%")
	assert.Contains(t, out, "Total API calls: 42")
	assert.Contains(t, out, "1,500,000")
	assert.Contains(t, out, "NOTICE: 75% of budget used")
	assert.NotContains(t, out, "Tips to reduce costs")
}

func TestWriteStatusJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatusJSON(&buf, statusFixture()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, 11.25, got["cost"])
	assert.Equal(t, 15.0, got["budget"])
	assert.Equal(t, 3.75, got["remaining"])
	assert.Equal(t, "75", got["level"])
	assert.Equal(t, float64(42), got["api_calls"])
}
