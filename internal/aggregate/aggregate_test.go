package aggregate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

var day = time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local) // a Monday

func at(min int) time.Time { return day.Add(time.Duration(min) * time.Minute) }

func call(session, tool string, min int) event.Event {
	return event.Event{
		ID:        fmt.Sprintf("%s-%s-%d", session, tool, min),
		Timestamp: at(min),
		SessionID: session,
		Type:      event.TypeToolCall,
		ToolName:  tool,
	}
}

func result(session, tool string, min int, success bool, cost float64) event.Event {
	return event.Event{
		ID:        fmt.Sprintf("%s-%s-%d-r", session, tool, min),
		Timestamp: at(min),
		SessionID: session,
		Type:      event.TypeToolResult,
		ToolName:  tool,
		Result:    &event.Result{Success: success},
		TokenUsage: &event.TokenUsage{
			Input:         100,
			Output:        50,
			EstimatedCost: cost,
		},
	}
}

func TestSummarizeSessionTotals(t *testing.T) {
	events := []event.Event{
		{ID: "s", Timestamp: at(0), SessionID: "a", Type: event.TypeSessionStart},
		call("a", "Read", 1),
		result("a", "Read", 2, true, 0.25),
		call("a", "Edit", 3),
		result("a", "Edit", 4, false, 0.5),
		call("a", "Read", 5),
		result("a", "Read", 6, true, 0.25),
		{ID: "e", Timestamp: at(10), SessionID: "a", Type: event.TypeSessionEnd},
	}

	sum := Summarize(day, events)
	if sum.TotalSessions != 1 {
		t.Fatalf("TotalSessions = %d", sum.TotalSessions)
	}
	ss := sum.Sessions[0]

	if ss.ToolCalls != 3 {
		t.Errorf("ToolCalls = %d, want 3", ss.ToolCalls)
	}
	var topSum int
	for _, tc := range ss.TopTools {
		topSum += tc.Count
	}
	if topSum != ss.ToolCalls {
		t.Errorf("top tool counts sum to %d, want %d", topSum, ss.ToolCalls)
	}
	if ss.Failures != 1 {
		t.Errorf("Failures = %d, want 1", ss.Failures)
	}
	if got, want := ss.Cost, 1.0; got != want {
		t.Errorf("Cost = %v, want %v", got, want)
	}
	if ss.DurationMS != 10*60*1000 {
		t.Errorf("DurationMS = %d, want 600000", ss.DurationMS)
	}
	if ss.TokensIn != 300 || ss.TokensOut != 150 {
		t.Errorf("tokens = %d/%d, want 300/150", ss.TokensIn, ss.TokensOut)
	}
}

func TestTopToolsRankingIsStable(t *testing.T) {
	// Read and Edit tie at 2; Read was encountered first and must rank first.
	events := []event.Event{
		call("a", "Read", 1),
		call("a", "Edit", 2),
		call("a", "Read", 3),
		call("a", "Edit", 4),
		call("a", "Bash", 5),
		call("a", "Bash", 6),
		call("a", "Bash", 7),
	}

	sum := Summarize(day, events)
	top := sum.Sessions[0].TopTools
	want := []string{"Bash", "Read", "Edit"}
	for i, name := range want {
		if top[i].Name != name {
			t.Errorf("top[%d] = %s, want %s", i, top[i].Name, name)
		}
	}
}

func TestTopToolsCappedAtFive(t *testing.T) {
	var events []event.Event
	for i, tool := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		events = append(events, call("a", tool, i))
	}
	sum := Summarize(day, events)
	if got := len(sum.Sessions[0].TopTools); got != 5 {
		t.Errorf("len(TopTools) = %d, want 5", got)
	}
}

func TestDescriptions(t *testing.T) {
	tests := []struct {
		tools []string
		want  string
	}{
		{[]string{"Read", "Grep"}, "explored the codebase"},
		{[]string{"Edit"}, "wrote code"},
		{[]string{"Bash"}, "ran shell commands"},
		{[]string{"WebFetch"}, "did research"},
		{[]string{"LspHover"}, "used code intelligence"},
		{[]string{"Task"}, "dispatched sub-agents"},
		{[]string{"Read", "Edit"}, "explored the codebase, wrote code"},
		{[]string{"Frobnicate"}, "used Frobnicate"},
	}

	for _, tt := range tests {
		var events []event.Event
		for i, tool := range tt.tools {
			events = append(events, call("a", tool, i))
		}
		sum := Summarize(day, events)
		if got := sum.Sessions[0].Description; got != tt.want {
			t.Errorf("describe(%v) = %q, want %q", tt.tools, got, tt.want)
		}
	}
}

func TestEmptyDay(t *testing.T) {
	sum := Summarize(day, nil)
	if sum.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d, want 0", sum.TotalSessions)
	}
	if len(sum.Insights) != 1 || sum.Insights[0] != InsightNoActivity {
		t.Errorf("Insights = %v, want [%q]", sum.Insights, InsightNoActivity)
	}
}

func TestSessionsSortedByStart(t *testing.T) {
	events := []event.Event{
		call("late", "Read", 30),
		call("early", "Read", 1),
	}
	sum := Summarize(day, events)
	if sum.Sessions[0].SessionID != "early" || sum.Sessions[1].SessionID != "late" {
		t.Errorf("session order = %s, %s", sum.Sessions[0].SessionID, sum.Sessions[1].SessionID)
	}
}

func TestQuietDayGetsGenericInsight(t *testing.T) {
	events := []event.Event{
		call("a", "Read", 1),
		result("a", "Read", 2, true, 0.01),
	}
	sum := Summarize(day, events)
	if len(sum.Insights) != 1 || sum.Insights[0] != InsightSteadyDay {
		t.Errorf("Insights = %v, want [%q]", sum.Insights, InsightSteadyDay)
	}
}

func TestFailureRateInsight(t *testing.T) {
	var events []event.Event
	for i := 0; i < 10; i++ {
		events = append(events, call("a", "Bash", i*2))
		events = append(events, result("a", "Bash", i*2+1, i < 5, 0))
	}
	sum := Summarize(day, events)

	found := false
	for _, in := range sum.Insights {
		if strings.Contains(in, "failure rate") {
			found = true
		}
	}
	if !found {
		t.Errorf("50%% failures produced no failure insight: %v", sum.Insights)
	}
}

func TestDominantToolInsight(t *testing.T) {
	var events []event.Event
	for i := 0; i < 12; i++ {
		events = append(events, call("a", "Bash", i))
	}
	events = append(events, call("a", "Read", 20))
	sum := Summarize(day, events)

	found := false
	for _, in := range sum.Insights {
		if strings.Contains(in, "Bash") {
			found = true
		}
	}
	if !found {
		t.Errorf("dominant tool insight missing: %v", sum.Insights)
	}
}

func TestSummarizeWeek(t *testing.T) {
	s := store.New(t.TempDir())

	// Monday: a busy, failing day. Tuesday: empty. Wednesday ("today"): quiet.
	monday := day
	today := day.AddDate(0, 0, 2)

	for i := 0; i < 10; i++ {
		mustAppend(t, s, call("a", "Bash", i), monday)
		mustAppend(t, s, result("a", "Bash", i, false, 0.25), monday)
	}
	mustAppend(t, s, call("b", "Read", 1), today)

	week, err := SummarizeWeek(s, today)
	if err != nil {
		t.Fatalf("SummarizeWeek: %v", err)
	}

	if len(week.Days) != 3 {
		t.Fatalf("len(Days) = %d, want 3 (Mon..Wed)", len(week.Days))
	}
	if !week.Start.Equal(monday) {
		t.Errorf("Start = %v, want %v", week.Start, monday)
	}
	if week.TotalToolCalls != 11 {
		t.Errorf("TotalToolCalls = %d, want 11", week.TotalToolCalls)
	}
	if week.TotalCost != 2.5 {
		t.Errorf("TotalCost = %v, want 2.5", week.TotalCost)
	}

	for _, in := range week.Insights {
		if in == InsightNoActivity || in == InsightSteadyDay {
			t.Errorf("generic insight leaked into weekly rollup: %q", in)
		}
	}
	if len(week.Insights) > 8 {
		t.Errorf("insights exceed cap: %d", len(week.Insights))
	}
	if len(week.Insights) == 0 {
		t.Error("busy Monday should contribute at least one insight")
	}
}

func TestMostRecentMonday(t *testing.T) {
	tests := []struct {
		day  time.Time
		want time.Time
	}{
		{day, day},                                       // Monday maps to itself
		{day.AddDate(0, 0, 3), day},                      // Thursday
		{day.AddDate(0, 0, 6), day},                      // Sunday
		{day.AddDate(0, 0, 7), day.AddDate(0, 0, 7)},     // next Monday
	}
	for _, tt := range tests {
		if got := mostRecentMonday(tt.day); !got.Equal(tt.want) {
			t.Errorf("mostRecentMonday(%v) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func mustAppend(t *testing.T, s *store.Store, e event.Event, date time.Time) {
	t.Helper()
	if err := s.Append(e, date); err != nil {
		t.Fatal(err)
	}
}
