// Package summarycache caches per-day summaries in SQLite so repeated
// stats and viewer requests skip reparsing unchanged logs. A cached entry
// is keyed by the source file's mtime and size; any append invalidates it.
// Cache failures of any kind degrade to a full parse, never to an error.
package summarycache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS day_summaries (
    date          TEXT PRIMARY KEY,
    mtime_ns      INTEGER NOT NULL,
    size_bytes    INTEGER NOT NULL,
    summary_json  TEXT NOT NULL,
    cached_at     TEXT NOT NULL
);
`

// Cache is a SQLite-backed day-summary cache.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached summary for a date if its source file signature
// still matches.
func (c *Cache) Get(date string, mtimeNs, sizeBytes int64) (aggregate.DailySummary, bool) {
	var storedMtime, storedSize int64
	var blob string
	err := c.db.QueryRow(
		"SELECT mtime_ns, size_bytes, summary_json FROM day_summaries WHERE date = ?", date,
	).Scan(&storedMtime, &storedSize, &blob)
	if err != nil {
		return aggregate.DailySummary{}, false
	}
	if storedMtime != mtimeNs || storedSize != sizeBytes {
		return aggregate.DailySummary{}, false
	}

	var day aggregate.DailySummary
	if err := json.Unmarshal([]byte(blob), &day); err != nil {
		return aggregate.DailySummary{}, false
	}
	return day, true
}

// Put stores a summary with its source file signature.
func (c *Cache) Put(date string, mtimeNs, sizeBytes int64, day aggregate.DailySummary) error {
	blob, err := json.Marshal(day)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO day_summaries (date, mtime_ns, size_bytes, summary_json, cached_at)
		 VALUES (?, ?, ?, ?, ?)`,
		date, mtimeNs, sizeBytes, string(blob), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SummarizeDay returns the day's summary, served from cache when the
// underlying log has not changed. A nil cache always does a full parse.
func SummarizeDay(c *Cache, s *store.Store, date time.Time) (aggregate.DailySummary, error) {
	key := date.Format(store.DateFormat)
	mtimeNs, sizeBytes, ok := fileSignature(s, date)

	if c != nil && ok {
		if day, hit := c.Get(key, mtimeNs, sizeBytes); hit {
			return day, nil
		}
	}

	day, err := aggregate.SummarizeDay(s, date)
	if err != nil {
		return aggregate.DailySummary{}, err
	}

	if c != nil && ok {
		if err := c.Put(key, mtimeNs, sizeBytes, day); err != nil {
			// Cache write failures cost a reparse next time, nothing more.
			return day, nil
		}
	}
	return day, nil
}

// fileSignature stats the day's log, preferring the plain file over the
// archive. Days with no file at all are not cached.
func fileSignature(s *store.Store, date time.Time) (mtimeNs, sizeBytes int64, ok bool) {
	for _, path := range []string{s.LogPath(date), s.ArchivePath(date)} {
		if fi, err := os.Stat(path); err == nil {
			return fi.ModTime().UnixNano(), fi.Size(), true
		}
	}
	return 0, 0, false
}
