// Package state persists the small amounts of cross-invocation state the
// collector needs: which session is current, and which tool calls are still
// awaiting their result. Each piece is one JSON file with read-or-default,
// then overwrite semantics. There is no locking; concurrent hook invocations
// can lose an update, which degrades duration pairing but never touches the
// event log itself.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	sessionFile = "current-session.json"
	pendingFile = "pending-calls.json"
)

// Session is the current-session pointer shared by sequential invocations.
type Session struct {
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
}

// PendingCall records a tool call awaiting its result, keyed by
// "toolName:callId".
type PendingCall struct {
	Timestamp time.Time `json:"timestamp"`
	ToolName  string    `json:"toolName"`
}

// Tracker reads and writes the state files under one state directory.
type Tracker struct {
	dir string
}

// NewTracker returns a tracker rooted at dataDir.
func NewTracker(dataDir string) *Tracker {
	return &Tracker{dir: filepath.Join(dataDir, "state")}
}

// CurrentSession returns the session pointer, or ok=false when the file is
// missing, empty, or corrupt.
func (t *Tracker) CurrentSession() (Session, bool) {
	data, err := os.ReadFile(filepath.Join(t.dir, sessionFile))
	if err != nil {
		return Session{}, false
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, false
	}
	if s.SessionID == "" {
		return Session{}, false
	}
	return s, true
}

// SetSession overwrites the session pointer.
func (t *Tracker) SetSession(id string, start time.Time) error {
	return t.write(sessionFile, Session{SessionID: id, StartTime: start})
}

// ClearSession empties the pointer. The file is kept, not deleted, so a
// near-simultaneous invocation never observes a create-after-delete race.
func (t *Tracker) ClearSession() error {
	return t.write(sessionFile, Session{})
}

// PendingCalls returns the pending-calls map. Missing or corrupt files
// yield an empty map, never an error.
func (t *Tracker) PendingCalls() map[string]PendingCall {
	data, err := os.ReadFile(filepath.Join(t.dir, pendingFile))
	if err != nil {
		return map[string]PendingCall{}
	}

	calls := make(map[string]PendingCall)
	if err := json.Unmarshal(data, &calls); err != nil {
		return map[string]PendingCall{}
	}
	return calls
}

// AddPending registers a pending call under key "toolName:callId".
func (t *Tracker) AddPending(key string, call PendingCall) error {
	calls := t.PendingCalls()
	calls[key] = call
	return t.write(pendingFile, calls)
}

// TakeEarliest removes and returns the earliest-timestamped pending entry
// for a tool name. Pairing is FIFO per tool name: without a call-id round
// trip from the hook source this is the best available correlation, and
// overlapping calls to the same tool pair up in start order. Returns
// ok=false when no entry matches.
func (t *Tracker) TakeEarliest(toolName string) (PendingCall, bool) {
	calls := t.PendingCalls()

	prefix := toolName + ":"
	bestKey := ""
	var best PendingCall
	for key, call := range calls {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if bestKey == "" || call.Timestamp.Before(best.Timestamp) {
			bestKey, best = key, call
		}
	}
	if bestKey == "" {
		return PendingCall{}, false
	}

	delete(calls, bestKey)
	if err := t.write(pendingFile, calls); err != nil {
		return PendingCall{}, false
	}
	return best, true
}

// PendingKey builds the composite pending-calls key.
func PendingKey(toolName, callID string) string {
	return toolName + ":" + callID
}

func (t *Tracker) write(name string, v any) error {
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(t.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
