// Package collector handles one hook invocation: it reads the hook payload
// from stdin, consults the session and pending-call state, and appends
// events to the store. Each invocation is a short-lived process; all state
// that must survive between invocations lives in the state package.
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/0xbeekeeper/claw-diary/internal/config"
	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/pricing"
	"github.com/0xbeekeeper/claw-diary/internal/sanitize"
	"github.com/0xbeekeeper/claw-diary/internal/state"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

// Hook points accepted as the single positional argument.
const (
	CmdSessionStart = "session-start"
	CmdSessionStop  = "session-stop"
	CmdBefore       = "before"
	CmdAfter        = "after"
)

// stdinTimeout bounds the wait for hook input so a hung source never
// blocks the host agent. No input within the window means an empty payload.
const stdinTimeout = 2 * time.Second

const previewMaxChars = 200

// Payload is the JSON object the hook source sends on stdin. Every field
// is optional; the shape is never trusted beyond what parses.
type Payload struct {
	ToolName   string         `json:"toolName"`
	ToolArgs   map[string]any `json:"toolArgs"`
	Model      string         `json:"model"`
	Result     map[string]any `json:"result"`
	TokenUsage *TokenCounts   `json:"tokenUsage"`
}

// TokenCounts holds raw token counts from the hook source.
type TokenCounts struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Collector orchestrates a single hook invocation.
type Collector struct {
	cfg     config.Config
	store   *store.Store
	tracker *state.Tracker
	prices  *pricing.Table

	now   func() time.Time
	newID func() string
}

// New builds a collector for one invocation of the given config.
func New(cfg config.Config) *Collector {
	return &Collector{
		cfg:     cfg,
		store:   store.New(cfg.DataDir),
		tracker: state.NewTracker(cfg.DataDir),
		prices:  cfg.Pricing(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Run dispatches one hook command, reading the payload from stdin.
// An unknown command is a usage error; everything recoverable (malformed
// input, missing state) degrades to defaults instead of failing.
func (c *Collector) Run(command string, stdin io.Reader) error {
	p := ReadPayload(stdin, stdinTimeout)

	switch command {
	case CmdSessionStart:
		return c.sessionStart(p)
	case CmdBefore:
		return c.before(p)
	case CmdAfter:
		return c.after(p)
	case CmdSessionStop:
		return c.sessionStop(p)
	default:
		return fmt.Errorf("unknown hook command %q (want before, after, session-start, or session-stop)", command)
	}
}

// ReadPayload reads a JSON payload with a bounded wait. A timeout, read
// error, or malformed JSON all resolve to an empty payload, never an error.
func ReadPayload(r io.Reader, timeout time.Duration) Payload {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		ch <- result{data, err}
	}()

	var data []byte
	select {
	case res := <-ch:
		if res.err != nil {
			return Payload{}
		}
		data = res.data
	case <-time.After(timeout):
		return Payload{}
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}
	}
	return p
}

func (c *Collector) sessionStart(p Payload) error {
	now := c.now()
	id := c.newID()

	if err := c.tracker.SetSession(id, now); err != nil {
		return err
	}

	return c.append(event.Event{
		ID:        c.newID(),
		Timestamp: now,
		SessionID: id,
		Type:      event.TypeSessionStart,
		Model:     p.Model,
	}, now)
}

func (c *Collector) before(p Payload) error {
	if c.cfg.RecordingLevel == config.LevelMinimal {
		return nil
	}

	now := c.now()
	sessionID, err := c.ensureSession(now)
	if err != nil {
		return err
	}

	var args map[string]any
	if c.cfg.RecordingLevel != config.LevelSummary {
		args = sanitize.Map(p.ToolArgs)
	}

	callID := c.newID()
	key := state.PendingKey(p.ToolName, callID)
	if err := c.tracker.AddPending(key, state.PendingCall{Timestamp: now, ToolName: p.ToolName}); err != nil {
		return err
	}

	return c.append(event.Event{
		ID:        c.newID(),
		Timestamp: now,
		SessionID: sessionID,
		Type:      event.TypeToolCall,
		ToolName:  p.ToolName,
		ToolArgs:  args,
		Model:     p.Model,
	}, now)
}

func (c *Collector) after(p Payload) error {
	if c.cfg.RecordingLevel == config.LevelMinimal {
		return nil
	}

	sess, ok := c.tracker.CurrentSession()
	if !ok {
		return nil
	}

	now := c.now()
	e := event.Event{
		ID:        c.newID(),
		Timestamp: now,
		SessionID: sess.SessionID,
		Type:      event.TypeToolResult,
		ToolName:  p.ToolName,
		Model:     p.Model,
	}

	if pending, ok := c.tracker.TakeEarliest(p.ToolName); ok {
		e.DurationMS = now.Sub(pending.Timestamp).Milliseconds()
	}

	e.Result = &event.Result{
		Success:       resultSuccess(p.Result),
		OutputPreview: c.outputPreview(p.Result),
	}

	if p.TokenUsage != nil {
		e.TokenUsage = &event.TokenUsage{
			Input:         p.TokenUsage.Input,
			Output:        p.TokenUsage.Output,
			EstimatedCost: c.prices.Estimate(p.Model, p.TokenUsage.Input, p.TokenUsage.Output),
		}
	}

	return c.append(e, now)
}

func (c *Collector) sessionStop(p Payload) error {
	sess, ok := c.tracker.CurrentSession()
	if !ok {
		return nil
	}

	now := c.now()
	e := event.Event{
		ID:         c.newID(),
		Timestamp:  now,
		SessionID:  sess.SessionID,
		Type:       event.TypeSessionEnd,
		Model:      p.Model,
		DurationMS: now.Sub(sess.StartTime).Milliseconds(),
	}

	if p.TokenUsage != nil {
		e.TokenUsage = &event.TokenUsage{
			Input:         p.TokenUsage.Input,
			Output:        p.TokenUsage.Output,
			EstimatedCost: c.prices.Estimate(p.Model, p.TokenUsage.Input, p.TokenUsage.Output),
		}
	}

	if err := c.append(e, now); err != nil {
		return err
	}
	return c.tracker.ClearSession()
}

// ensureSession returns the current session id, creating a pointer when a
// tool call arrives without an explicit session-start.
func (c *Collector) ensureSession(now time.Time) (string, error) {
	if sess, ok := c.tracker.CurrentSession(); ok {
		return sess.SessionID, nil
	}
	id := c.newID()
	if err := c.tracker.SetSession(id, now); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Collector) append(e event.Event, now time.Time) error {
	return c.store.Append(e, now)
}

// resultSuccess computes success for a tool result: an explicit
// success=false or any error field means failure; no payload means success.
func resultSuccess(result map[string]any) bool {
	if result == nil {
		return true
	}
	if v, ok := result["success"].(bool); ok && !v {
		return false
	}
	if _, ok := result["error"]; ok {
		return false
	}
	return true
}

// outputPreview serializes the sanitized result and truncates it for
// storage. Summary-level recording stores no preview at all.
func (c *Collector) outputPreview(result map[string]any) string {
	if c.cfg.RecordingLevel == config.LevelSummary || result == nil {
		return ""
	}
	data, err := json.Marshal(sanitize.Value(result))
	if err != nil {
		return ""
	}
	preview := string(data)
	if runes := []rune(preview); len(runes) > previewMaxChars {
		preview = string(runes[:previewMaxChars])
	}
	return preview
}
