package event

import (
	"encoding/json"
	"time"
)

// Type classifies what an event records.
type Type string

const (
	TypeToolCall     Type = "tool_call"
	TypeToolResult   Type = "tool_result"
	TypeSessionStart Type = "session_start"
	TypeSessionEnd   Type = "session_end"
)

// Result holds the outcome of a tool call.
type Result struct {
	Success       bool   `json:"success"`
	OutputPreview string `json:"outputPreview,omitempty"`
}

// TokenUsage holds token counts and the cost estimated at write time.
type TokenUsage struct {
	Input         int     `json:"input"`
	Output        int     `json:"output"`
	EstimatedCost float64 `json:"estimatedCost"`
}

// Event is one recorded occurrence: a tool call, a tool result, or a
// session boundary. One event per line in a daily log file.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	Type      Type      `json:"type"`

	ToolName   string         `json:"toolName,omitempty"`
	ToolArgs   map[string]any `json:"toolArgs,omitempty"`
	Result     *Result        `json:"result,omitempty"`
	TokenUsage *TokenUsage    `json:"tokenUsage,omitempty"`
	Model      string         `json:"model,omitempty"`
	DurationMS int64          `json:"duration,omitempty"` // milliseconds
}

// MarshalLine serializes an event to its single-line log form.
func MarshalLine(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// ParseLine parses one log line into an Event. Unknown fields are ignored.
// Returns false for blank or unparsable lines; callers skip those rather
// than failing the whole file.
func ParseLine(line []byte) (Event, bool) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return Event{}, false
	}
	// A line that parsed but carries no identity is trailing garbage
	// from a partial write, not an event.
	if e.ID == "" && e.SessionID == "" && e.Type == "" {
		return Event{}, false
	}
	return e, true
}

// Failed reports whether the event is a tool result that recorded a failure.
func (e Event) Failed() bool {
	return e.Type == TypeToolResult && e.Result != nil && !e.Result.Success
}
