package event

import (
	"testing"
	"time"
)

func TestMarshalParseRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 26, 10, 30, 0, 0, time.UTC)
	in := Event{
		ID:        "ev-1",
		Timestamp: ts,
		SessionID: "sess-1",
		Type:      TypeToolResult,
		ToolName:  "Read",
		ToolArgs:  map[string]any{"file_path": "/tmp/a.go"},
		Result:    &Result{Success: true, OutputPreview: "ok"},
		TokenUsage: &TokenUsage{
			Input:         1000,
			Output:        500,
			EstimatedCost: 0.0525,
		},
		Model:      "claude-opus-4-6",
		DurationMS: 1234,
	}

	line, err := MarshalLine(in)
	if err != nil {
		t.Fatalf("MarshalLine: %v", err)
	}

	out, ok := ParseLine(line)
	if !ok {
		t.Fatal("ParseLine rejected a well-formed line")
	}

	if out.ID != in.ID {
		t.Errorf("ID = %q, want %q", out.ID, in.ID)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", out.Timestamp, in.Timestamp)
	}
	if out.SessionID != in.SessionID {
		t.Errorf("SessionID = %q", out.SessionID)
	}
	if out.Type != TypeToolResult {
		t.Errorf("Type = %q", out.Type)
	}
	if out.ToolName != "Read" {
		t.Errorf("ToolName = %q", out.ToolName)
	}
	if out.Result == nil || !out.Result.Success || out.Result.OutputPreview != "ok" {
		t.Errorf("Result = %+v", out.Result)
	}
	if out.TokenUsage == nil || out.TokenUsage.Input != 1000 || out.TokenUsage.Output != 500 {
		t.Errorf("TokenUsage = %+v", out.TokenUsage)
	}
	if out.TokenUsage.EstimatedCost != 0.0525 {
		t.Errorf("EstimatedCost = %v, want 0.0525", out.TokenUsage.EstimatedCost)
	}
	if out.Model != "claude-opus-4-6" {
		t.Errorf("Model = %q", out.Model)
	}
	if out.DurationMS != 1234 {
		t.Errorf("DurationMS = %d", out.DurationMS)
	}
}

func TestParseLineRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"not json",
		`{"id": "truncat`,
		"{}",
		"[1,2,3]",
	}
	for _, c := range cases {
		if _, ok := ParseLine([]byte(c)); ok {
			t.Errorf("ParseLine(%q) accepted garbage", c)
		}
	}
}

func TestParseLineIgnoresUnknownFields(t *testing.T) {
	line := `{"id":"e1","sessionId":"s1","type":"tool_call","toolName":"Bash","someFutureField":42}`
	e, ok := ParseLine([]byte(line))
	if !ok {
		t.Fatal("line with unknown fields rejected")
	}
	if e.ID != "e1" || e.ToolName != "Bash" {
		t.Errorf("parsed = %+v", e)
	}
}

func TestFailed(t *testing.T) {
	fail := Event{Type: TypeToolResult, Result: &Result{Success: false}}
	if !fail.Failed() {
		t.Error("explicit failure not detected")
	}
	ok := Event{Type: TypeToolResult, Result: &Result{Success: true}}
	if ok.Failed() {
		t.Error("success counted as failure")
	}
	call := Event{Type: TypeToolCall}
	if call.Failed() {
		t.Error("tool_call counted as failure")
	}
}
