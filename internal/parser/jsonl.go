package parser

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/cache"
	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
)

// rawLine represents the raw JSON structure of one Claude Code JSONL line
type rawLine struct {
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Model string `json:"model"`
		Usage *struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// FindUsageFiles finds all JSONL files under the logs root. A missing
// root means no data, not an error; unreadable subtrees are skipped.
func FindUsageFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		// Root exists but cannot be enumerated at all (e.g. permissions).
		return nil, err
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// ParseFile parses a single JSONL file. Lines that fail to parse or
// carry no usage payload are skipped without aborting the file.
func ParseFile(path string) ([]model.UsageRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []model.UsageRecord
	scanner := bufio.NewScanner(file)

	// Increase buffer size for large lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil {
			// Skip malformed lines
			continue
		}

		usage := raw.Message.Usage
		if usage == nil {
			continue
		}

		records = append(records, model.UsageRecord{
			Timestamp: raw.Timestamp,
			SessionID: raw.SessionID,
			Model:     raw.Message.Model,
			Usage: model.TokenUsage{
				InputTokens:              usage.InputTokens,
				OutputTokens:             usage.OutputTokens,
				CacheCreationInputTokens: usage.CacheCreationInputTokens,
				CacheReadInputTokens:     usage.CacheReadInputTokens,
			},
			HasUsage: true,
		})
	}

	return records, scanner.Err()
}

// ScanAll parses every JSONL file under root. Per-file read errors are
// skipped. When a cache is provided, files whose size and mtime are
// unchanged load from it instead of being re-parsed; cache failures
// silently fall back to direct parsing. Record order follows line order
// within a file only; callers needing chronological order must sort.
func ScanAll(root string, c *cache.Cache) ([]model.UsageRecord, error) {
	files, err := FindUsageFiles(root)
	if err != nil {
		return nil, err
	}

	var all []model.UsageRecord
	for _, file := range files {
		var size, mtimeNS int64
		if c != nil {
			if info, err := os.Stat(file); err == nil {
				size = info.Size()
				mtimeNS = info.ModTime().UnixNano()
				if records, ok := c.Lookup(file, size, mtimeNS); ok {
					all = append(all, records...)
					continue
				}
			}
		}

		records, err := ParseFile(file)
		if err != nil {
			// Skip unreadable files but continue with the rest
			continue
		}

		if c != nil && size > 0 {
			// Best effort; a failed write just means a re-parse next time.
			_ = c.Store(file, size, mtimeNS, records)
		}

		all = append(all, records...)
	}

	return all, nil
}

// ParseTimestamp parses an ISO-8601 timestamp from a usage record.
// 'Z'-suffixed timestamps resolve to UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FilterMonth returns the records whose timestamp falls in the given
// calendar month when viewed in loc. Records without a parseable
// timestamp are excluded. The input slice is not modified.
func FilterMonth(records []model.UsageRecord, year int, month time.Month, loc *time.Location) []model.UsageRecord {
	if loc == nil {
		loc = time.Local
	}

	var filtered []model.UsageRecord
	for _, r := range records {
		t, ok := ParseTimestamp(r.Timestamp)
		if !ok {
			continue
		}
		t = t.In(loc)
		if t.Year() == year && t.Month() == month {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
