package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_StoreAndLookup(t *testing.T) {
	c := openTestCache(t)

	records := []model.UsageRecord{
		{
			Timestamp: "2026-01-10T08:00:00Z",
			SessionID: "abc",
			Model:     "claude-sonnet-4-5-20250929",
			Usage:     model.TokenUsage{InputTokens: 100, OutputTokens: 50},
			HasUsage:  true,
		},
		{
			Timestamp: "2026-01-10T09:00:00Z",
			Model:     "claude-haiku-4-5-20251001",
			Usage:     model.TokenUsage{CacheReadInputTokens: 9999},
			HasUsage:  true,
		},
	}

	require.NoError(t, c.Store("/logs/a.jsonl", 1234, 5678, records))

	got, ok := c.Lookup("/logs/a.jsonl", 1234, 5678)
	require.True(t, ok)
	assert.Equal(t, records, got)
}

func TestCache_MissOnChangedFile(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Store("/logs/a.jsonl", 1234, 5678, nil))

	_, ok := c.Lookup("/logs/a.jsonl", 1235, 5678)
	assert.False(t, ok, "size change must invalidate")

	_, ok = c.Lookup("/logs/a.jsonl", 1234, 9999)
	assert.False(t, ok, "mtime change must invalidate")

	_, ok = c.Lookup("/logs/other.jsonl", 1234, 5678)
	assert.False(t, ok)
}

func TestCache_StoreReplacesRecords(t *testing.T) {
	c := openTestCache(t)

	first := []model.UsageRecord{{Model: "sonnet", HasUsage: true}}
	require.NoError(t, c.Store("/logs/a.jsonl", 10, 10, first))

	second := []model.UsageRecord{
		{Model: "sonnet", HasUsage: true},
		{Model: "haiku", HasUsage: true},
	}
	require.NoError(t, c.Store("/logs/a.jsonl", 20, 20, second))

	got, ok := c.Lookup("/logs/a.jsonl", 20, 20)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestCache_EmptyFileRoundTrip(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Store("/logs/empty.jsonl", 5, 5, nil))

	got, ok := c.Lookup("/logs/empty.jsonl", 5, 5)
	assert.True(t, ok)
	assert.Empty(t, got)
}
