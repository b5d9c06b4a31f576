package model

// UsageRecord represents a single usage entry parsed from a Claude Code
// JSONL log. Timestamp is kept as the raw ISO-8601 string from the log;
// it may be empty, as may Model and SessionID. Token counts are
// zero-defaulted at the parser boundary.
type UsageRecord struct {
	Timestamp string
	SessionID string
	Model     string
	Usage     TokenUsage
	HasUsage  bool
}

// TokenUsage contains token counts from a Claude API response
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// UsageStats holds aggregate token statistics for a set of records.
// APICalls counts every record observed, including records that carried
// no usage payload.
type UsageStats struct {
	APICalls         int
	InputTokens      int64
	OutputTokens     int64
	CacheWriteTokens int64
	CacheReadTokens  int64
}
