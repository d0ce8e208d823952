package archive

import (
	"os"
	"testing"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

func TestRunArchivesOldDays(t *testing.T) {
	s := store.New(t.TempDir())
	today := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	oldDay := today.AddDate(0, 0, -100)
	recentDay := today.AddDate(0, 0, -5)

	appendOne(t, s, "old-session", oldDay)
	appendOne(t, s, "recent-session", recentDay)

	res, err := Run(s, today, 90)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Archived) != 1 {
		t.Fatalf("archived %d files, want 1", len(res.Archived))
	}

	if _, err := os.Stat(s.LogPath(oldDay)); !os.IsNotExist(err) {
		t.Error("plain log for archived day still present")
	}
	if _, err := os.Stat(s.ArchivePath(oldDay)); err != nil {
		t.Errorf("archive missing: %v", err)
	}
	if _, err := os.Stat(s.LogPath(recentDay)); err != nil {
		t.Errorf("recent log touched: %v", err)
	}

	// The archived day is still readable through the store.
	events, err := s.Load(oldDay)
	if err != nil {
		t.Fatalf("Load archived day: %v", err)
	}
	if len(events) != 1 || events[0].SessionID != "old-session" {
		t.Errorf("archived day events = %+v", events)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	s := store.New(t.TempDir())
	today := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local)
	oldDay := today.AddDate(0, 0, -100)
	appendOne(t, s, "a", oldDay)

	if _, err := Run(s, today, 90); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := Run(s, today, 90)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(res.Archived) != 0 {
		t.Errorf("second run archived %d files, want 0", len(res.Archived))
	}
}

func TestRunEmptyStore(t *testing.T) {
	s := store.New(t.TempDir())
	res, err := Run(s, time.Now(), 90)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Archived) != 0 {
		t.Errorf("archived %d files from an empty store", len(res.Archived))
	}
}

func appendOne(t *testing.T, s *store.Store, session string, date time.Time) {
	t.Helper()
	e := event.Event{ID: "e-" + session, Timestamp: date, SessionID: session, Type: event.TypeSessionStart}
	if err := s.Append(e, date); err != nil {
		t.Fatal(err)
	}
}
