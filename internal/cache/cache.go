// Package cache provides a SQLite-backed cache of parsed usage records,
// keyed by file path, size, and mtime. Log files are append-only and
// numerous; hooks run at every session boundary, so re-parsing unchanged
// files is the dominant cost. The cache is strictly best-effort: any
// failure falls back to a direct parse.
package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yjnnk/cost-guardrail-claude-code-plugin/internal/model"
)

// Cache wraps the SQLite connection.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at the given path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL mode and a busy timeout keep overlapping hook invocations from
	// tripping over each other.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mtime_ns INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		file_path TEXT NOT NULL,
		timestamp TEXT,
		session_id TEXT,
		model TEXT,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cache_write_tokens INTEGER NOT NULL DEFAULT 0,
		cache_read_tokens INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (file_path) REFERENCES files(path) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_records_file ON records(file_path);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached records for a file if its size and mtime
// still match what was stored.
func (c *Cache) Lookup(path string, size, mtimeNS int64) ([]model.UsageRecord, bool) {
	var storedSize, storedMtime int64
	err := c.db.QueryRow(`SELECT size, mtime_ns FROM files WHERE path = ?`, path).
		Scan(&storedSize, &storedMtime)
	if err != nil || storedSize != size || storedMtime != mtimeNS {
		return nil, false
	}

	rows, err := c.db.Query(`
		SELECT timestamp, session_id, model,
		       input_tokens, output_tokens, cache_write_tokens, cache_read_tokens
		FROM records WHERE file_path = ?`, path)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var records []model.UsageRecord
	for rows.Next() {
		var r model.UsageRecord
		if err := rows.Scan(&r.Timestamp, &r.SessionID, &r.Model,
			&r.Usage.InputTokens, &r.Usage.OutputTokens,
			&r.Usage.CacheCreationInputTokens, &r.Usage.CacheReadInputTokens); err != nil {
			return nil, false
		}
		r.HasUsage = true
		records = append(records, r)
	}
	if rows.Err() != nil {
		return nil, false
	}

	return records, true
}

// Store replaces the cached records for a file.
func (c *Cache) Store(path string, size, mtimeNS int64, records []model.UsageRecord) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO files (path, size, mtime_ns) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns`,
		path, size, mtimeNS); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM records WHERE file_path = ?`, path); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (file_path, timestamp, session_id, model,
			input_tokens, output_tokens, cache_write_tokens, cache_read_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(path, r.Timestamp, r.SessionID, r.Model,
			r.Usage.InputTokens, r.Usage.OutputTokens,
			r.Usage.CacheCreationInputTokens, r.Usage.CacheReadInputTokens); err != nil {
			return err
		}
	}

	return tx.Commit()
}
