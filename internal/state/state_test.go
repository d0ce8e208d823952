package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCurrentSessionMissingFile(t *testing.T) {
	tr := NewTracker(t.TempDir())
	if _, ok := tr.CurrentSession(); ok {
		t.Error("missing file reported a session")
	}
}

func TestSetAndGetSession(t *testing.T) {
	tr := NewTracker(t.TempDir())
	start := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	if err := tr.SetSession("sess-1", start); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	s, ok := tr.CurrentSession()
	if !ok {
		t.Fatal("session not found after set")
	}
	if s.SessionID != "sess-1" {
		t.Errorf("SessionID = %q", s.SessionID)
	}
	if !s.StartTime.Equal(start) {
		t.Errorf("StartTime = %v", s.StartTime)
	}
}

func TestClearSessionKeepsFile(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir)

	if err := tr.SetSession("sess-1", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := tr.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}

	if _, ok := tr.CurrentSession(); ok {
		t.Error("cleared session still reported")
	}
	// The file must survive the clear.
	if _, err := os.Stat(filepath.Join(dir, "state", "current-session.json")); err != nil {
		t.Errorf("session file removed by clear: %v", err)
	}
}

func TestCorruptSessionFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "current-session.json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(dir)
	if _, ok := tr.CurrentSession(); ok {
		t.Error("corrupt file reported a session")
	}
}

func TestPendingFIFOPairing(t *testing.T) {
	tr := NewTracker(t.TempDir())
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	// Two overlapping Bash calls plus one Read.
	if err := tr.AddPending(PendingKey("Bash", "c2"), PendingCall{Timestamp: base.Add(5 * time.Second), ToolName: "Bash"}); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddPending(PendingKey("Bash", "c1"), PendingCall{Timestamp: base, ToolName: "Bash"}); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddPending(PendingKey("Read", "c3"), PendingCall{Timestamp: base.Add(time.Second), ToolName: "Read"}); err != nil {
		t.Fatal(err)
	}

	first, ok := tr.TakeEarliest("Bash")
	if !ok {
		t.Fatal("no Bash entry found")
	}
	if !first.Timestamp.Equal(base) {
		t.Errorf("paired %v, want earliest %v", first.Timestamp, base)
	}

	second, ok := tr.TakeEarliest("Bash")
	if !ok {
		t.Fatal("second Bash entry gone")
	}
	if !second.Timestamp.Equal(base.Add(5 * time.Second)) {
		t.Errorf("second pairing = %v", second.Timestamp)
	}

	if _, ok := tr.TakeEarliest("Bash"); ok {
		t.Error("third TakeEarliest found a phantom entry")
	}

	// The Read entry must be untouched.
	if _, ok := tr.TakeEarliest("Read"); !ok {
		t.Error("Read entry lost")
	}
}

func TestTakeEarliestIgnoresPrefixCollisions(t *testing.T) {
	tr := NewTracker(t.TempDir())
	now := time.Now()

	if err := tr.AddPending(PendingKey("ReadFile", "c1"), PendingCall{Timestamp: now, ToolName: "ReadFile"}); err != nil {
		t.Fatal(err)
	}

	if _, ok := tr.TakeEarliest("Read"); ok {
		t.Error("Read matched a ReadFile entry")
	}
}

func TestPendingCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	stateDir := filepath.Join(dir, "state")
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "pending-calls.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(dir)
	if calls := tr.PendingCalls(); len(calls) != 0 {
		t.Errorf("corrupt pending file yielded %d entries", len(calls))
	}
}
