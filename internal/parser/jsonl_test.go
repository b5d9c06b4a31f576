package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleLines = `{"timestamp":"2026-01-10T08:00:00Z","sessionId":"abc","message":{"model":"claude-sonnet-4-5-20250929","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":10,"cache_read_input_tokens":5}}}
not json at all
{"timestamp":"2026-01-10T09:00:00Z","message":{"model":"claude-haiku-4-5-20251001"}}

{"timestamp":"2026-01-11T10:00:00Z","message":{"model":"claude-haiku-4-5-20251001","usage":{"input_tokens":200}}}
`

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	writeFile(t, path, sampleLines)

	records, err := ParseFile(path)
	require.NoError(t, err)

	// Malformed, empty, and usage-less lines are skipped.
	require.Len(t, records, 2)

	assert.Equal(t, "claude-sonnet-4-5-20250929", records[0].Model)
	assert.Equal(t, "abc", records[0].SessionID)
	assert.Equal(t, "2026-01-10T08:00:00Z", records[0].Timestamp)
	assert.True(t, records[0].HasUsage)
	assert.Equal(t, model.TokenUsage{
		InputTokens:              100,
		OutputTokens:             50,
		CacheCreationInputTokens: 10,
		CacheReadInputTokens:     5,
	}, records[0].Usage)

	// Missing token categories default to zero.
	assert.Equal(t, int64(200), records[1].Usage.InputTokens)
	assert.Zero(t, records[1].Usage.OutputTokens)
}

func TestParseFile_MissingFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "gone.jsonl"))
	assert.Error(t, err)
}

func TestFindUsageFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proj-a", "one.jsonl"), "")
	writeFile(t, filepath.Join(root, "proj-a", "nested", "two.jsonl"), "")
	writeFile(t, filepath.Join(root, "proj-b", "readme.md"), "")

	files, err := FindUsageFiles(root)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindUsageFiles_MissingRoot(t *testing.T) {
	files, err := FindUsageFiles(filepath.Join(t.TempDir(), "nope"))
	assert.NoError(t, err, "a missing root means no data, not a failure")
	assert.Empty(t, files)
}

func TestScanAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "proj-a", "one.jsonl"), sampleLines)
	writeFile(t, filepath.Join(root, "proj-b", "two.jsonl"),
		`{"timestamp":"2026-02-01T00:30:00Z","message":{"model":"sonnet","usage":{"input_tokens":7}}}`+"\n")

	records, err := ScanAll(root, nil)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestParseTimestamp(t *testing.T) {
	ts, ok := ParseTimestamp("2026-01-10T08:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC), ts.UTC())

	ts, ok = ParseTimestamp("2026-01-10T08:00:00.123-05:00")
	require.True(t, ok)
	assert.Equal(t, 13, ts.UTC().Hour())

	_, ok = ParseTimestamp("")
	assert.False(t, ok)
	_, ok = ParseTimestamp("january 10th")
	assert.False(t, ok)
}

func TestFilterMonth(t *testing.T) {
	records := []model.UsageRecord{
		{Timestamp: "2026-01-10T08:00:00Z"},
		{Timestamp: "2026-01-31T23:59:59Z"},
		{Timestamp: "2026-02-01T00:00:00Z"},
		{Timestamp: "2025-01-10T08:00:00Z"},
		{Timestamp: ""},
		{Timestamp: "garbage"},
	}

	got := FilterMonth(records, 2026, time.January, time.UTC)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-01-10T08:00:00Z", got[0].Timestamp)
	assert.Equal(t, "2026-01-31T23:59:59Z", got[1].Timestamp)
}

func TestFilterMonth_TimezoneBoundary(t *testing.T) {
	// 2026-02-01T01:00Z is still January in UTC-2.
	records := []model.UsageRecord{
		{Timestamp: "2026-02-01T01:00:00Z"},
	}

	minusTwo := time.FixedZone("UTC-2", -2*3600)
	assert.Len(t, FilterMonth(records, 2026, time.January, minusTwo), 1)
	assert.Empty(t, FilterMonth(records, 2026, time.February, minusTwo))
	assert.Len(t, FilterMonth(records, 2026, time.February, time.UTC), 1)
}
