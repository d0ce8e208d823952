package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
)

func sampleDay() aggregate.DailySummary {
	date := time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local)
	return aggregate.DailySummary{
		Date:           date,
		TotalSessions:  1,
		TotalToolCalls: 3,
		TotalCost:      0.25,
		TotalTokensIn:  300,
		TotalTokensOut: 150,
		TotalFailures:  1,
		Sessions: []aggregate.SessionSummary{{
			SessionID:   "abcdef1234567890",
			Start:       date.Add(10 * time.Hour),
			End:         date.Add(10*time.Hour + 30*time.Minute),
			DurationMS:  30 * 60 * 1000,
			ToolCalls:   3,
			TopTools:    []aggregate.ToolCount{{Name: "Read", Count: 2}, {Name: "Edit", Count: 1}},
			TokensIn:    300,
			TokensOut:   150,
			Cost:        0.25,
			Failures:    1,
			Description: "explored the codebase, wrote code",
		}},
		Insights: []string{aggregate.InsightSteadyDay},
	}
}

func TestRenderDayIsDeterministic(t *testing.T) {
	day := sampleDay()
	first := RenderDay(day)
	second := RenderDay(day)
	if first != second {
		t.Error("two renders of the same summary differ")
	}
}

func TestRenderDaySnapshot(t *testing.T) {
	got := RenderDay(sampleDay())
	want := `# Activity for 2026-08-24

| Metric | Value |
|--------|-------|
| Sessions | 1 |
| Tool calls | 3 |
| Tokens | 300 in / 150 out |
| Estimated cost | $0.25 |
| Failures | 1 |

## Sessions

### abcdef12 (10:00 - 10:30)
explored the codebase, wrote code
- Tool calls: 3 (Read x2, Edit x1)
- Duration: 30m0s
- Cost: $0.25
- Failures: 1

## Insights

- A steady day of work.
`
	if got != want {
		t.Errorf("render mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderEmptyDay(t *testing.T) {
	day := aggregate.DailySummary{
		Date:     time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local),
		Insights: []string{aggregate.InsightNoActivity},
	}
	got := RenderDay(day)
	if !strings.Contains(got, "No activity recorded.") {
		t.Errorf("empty day render = %q", got)
	}
}

func TestRenderWeek(t *testing.T) {
	week := aggregate.WeeklySummary{
		Start:          time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local),
		End:            time.Date(2026, 8, 26, 0, 0, 0, 0, time.Local),
		Days:           []aggregate.DailySummary{sampleDay()},
		TotalSessions:  1,
		TotalToolCalls: 3,
		TotalCost:      0.25,
		Insights:       []string{"High failure rate: 33% of tool calls failed."},
	}

	got := RenderWeek(week)
	for _, want := range []string{
		"# Week of 2026-08-24",
		"| Mon 2026-08-24 | 1 | 3 | $0.25 |",
		"## Highlights",
		"High failure rate",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("week render missing %q:\n%s", want, got)
		}
	}

	if RenderWeek(week) != got {
		t.Error("weekly render not deterministic")
	}
}

func TestFormatCost(t *testing.T) {
	tests := []struct {
		usd  float64
		want string
	}{
		{0, "$0.00"},
		{0.0525, "$0.05"},
		{0.0042, "$0.0042"},
		{12.5, "$12.50"},
	}
	for _, tt := range tests {
		if got := FormatCost(tt.usd); got != tt.want {
			t.Errorf("FormatCost(%v) = %q, want %q", tt.usd, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{45_000, "45s"},
		{90_000, "1m30s"},
		{3_900_000, "1h5m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
