// Package store owns the append-only daily event log files. One file per
// calendar day, one JSON event per line. Files are only ever appended to;
// readers tolerate partial writes and trailing garbage.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/0xbeekeeper/claw-diary/internal/event"
)

const (
	filePrefix = "events-"
	fileSuffix = ".jsonl"
	// Archived days produced by the archive command.
	archiveSuffix = ".jsonl.zst"

	// DateFormat names daily log files: events-2026-08-26.jsonl.
	DateFormat = "2006-01-02"
)

// Store reads and appends daily event logs under a single events directory.
type Store struct {
	dir string
}

// New returns a store rooted at dataDir. The events directory is created
// lazily on first append.
func New(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "events")}
}

// Dir returns the events directory path.
func (s *Store) Dir() string {
	return s.dir
}

// LogPath returns the daily log path for a date.
func (s *Store) LogPath(date time.Time) string {
	return filepath.Join(s.dir, filePrefix+date.Format(DateFormat)+fileSuffix)
}

// ArchivePath returns the archived log path for a date.
func (s *Store) ArchivePath(date time.Time) string {
	return filepath.Join(s.dir, filePrefix+date.Format(DateFormat)+archiveSuffix)
}

// Append durably writes one event line to the date's log file, creating
// the directory and file as needed. Existing content is never rewritten.
func (s *Store) Append(e event.Event, date time.Time) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create events dir: %w", err)
	}

	line, err := event.MarshalLine(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	f, err := os.OpenFile(s.LogPath(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}

	// One Write call per event keeps appends effectively atomic for the
	// single-writer-per-invocation access pattern.
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append event: %w", err)
	}
	return f.Close()
}

// Load reads all events for a date. A missing file yields an empty slice.
// Each line parses independently; bad lines are skipped.
func (s *Store) Load(date time.Time) ([]event.Event, error) {
	if events, found, err := s.loadPlain(s.LogPath(date)); found {
		return events, err
	}
	if events, found, err := s.loadArchived(s.ArchivePath(date)); found {
		return events, err
	}
	return nil, nil
}

// LoadRange loads the last n calendar days, today inclusive going backward,
// and returns a single timestamp-sorted sequence. Same-timestamp events keep
// their concatenation order.
func (s *Store) LoadRange(n int) ([]event.Event, error) {
	var all []event.Event
	today := time.Now()
	for i := n - 1; i >= 0; i-- {
		day, err := s.Load(today.AddDate(0, 0, -i))
		if err != nil {
			return nil, err
		}
		all = append(all, day...)
	}
	SortByTime(all)
	return all, nil
}

// Search returns events whose serialized JSON form contains the query,
// case-insensitively, across every stored day.
func (s *Store) Search(query string) ([]event.Event, error) {
	dates, err := s.Dates()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []event.Event
	for _, d := range dates {
		events, err := s.Load(d)
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			line, err := event.MarshalLine(e)
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(string(line)), needle) {
				matches = append(matches, e)
			}
		}
	}
	SortByTime(matches)
	return matches, nil
}

// Dates lists every day that has a stored log, ascending. A missing events
// directory yields an empty list: the directory may not exist until the
// first hook fires, and may appear between a caller's check and its read.
func (s *Store) Dates() ([]time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read events dir: %w", err)
	}

	seen := make(map[string]bool)
	var dates []time.Time
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasPrefix(name, filePrefix) {
			continue
		}
		stamp := strings.TrimPrefix(name, filePrefix)
		stamp = strings.TrimSuffix(strings.TrimSuffix(stamp, archiveSuffix), fileSuffix)
		if seen[stamp] {
			continue
		}
		d, err := time.ParseInLocation(DateFormat, stamp, time.Local)
		if err != nil {
			continue
		}
		seen[stamp] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// SortByTime sorts events by timestamp, stable so that same-timestamp
// events keep their relative order.
func SortByTime(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

func (s *Store) loadPlain(path string) ([]event.Event, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	events, err := scanLines(f)
	return events, true, err
}

func (s *Store) loadArchived(path string) ([]event.Event, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, true, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	events, err := scanLines(decoder.IOReadCloser())
	return events, true, err
}

func scanLines(r io.Reader) ([]event.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024) // 10MB max line

	var events []event.Event
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		e, ok := event.ParseLine([]byte(line))
		if !ok {
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scan log: %w", err)
	}
	return events, nil
}
