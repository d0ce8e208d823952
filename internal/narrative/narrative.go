// Package narrative renders summaries as markdown. Rendering is pure
// string assembly over already-computed summaries: the same input always
// produces the same bytes, which is what the snapshot tests assert.
package narrative

import (
	"fmt"
	"strings"

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
)

const dateFormat = "2006-01-02"

// RenderDay renders a daily summary as markdown.
func RenderDay(day aggregate.DailySummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Activity for %s\n\n", day.Date.Format(dateFormat))

	if day.TotalSessions == 0 {
		b.WriteString("No activity recorded.\n")
		return b.String()
	}

	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Sessions | %d |\n", day.TotalSessions)
	fmt.Fprintf(&b, "| Tool calls | %d |\n", day.TotalToolCalls)
	fmt.Fprintf(&b, "| Tokens | %d in / %d out |\n", day.TotalTokensIn, day.TotalTokensOut)
	fmt.Fprintf(&b, "| Estimated cost | %s |\n", FormatCost(day.TotalCost))
	fmt.Fprintf(&b, "| Failures | %d |\n", day.TotalFailures)
	b.WriteString("\n## Sessions\n")

	for _, ss := range day.Sessions {
		b.WriteString("\n")
		renderSession(&b, ss)
	}

	b.WriteString("\n## Insights\n\n")
	for _, insight := range day.Insights {
		fmt.Fprintf(&b, "- %s\n", insight)
	}

	return b.String()
}

func renderSession(b *strings.Builder, ss aggregate.SessionSummary) {
	fmt.Fprintf(b, "### %s (%s - %s)\n", shortID(ss.SessionID),
		ss.Start.Format("15:04"), ss.End.Format("15:04"))
	fmt.Fprintf(b, "%s\n", ss.Description)

	var tools []string
	for _, tc := range ss.TopTools {
		tools = append(tools, fmt.Sprintf("%s x%d", tc.Name, tc.Count))
	}
	fmt.Fprintf(b, "- Tool calls: %d", ss.ToolCalls)
	if len(tools) > 0 {
		fmt.Fprintf(b, " (%s)", strings.Join(tools, ", "))
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "- Duration: %s\n", FormatDuration(ss.DurationMS))
	fmt.Fprintf(b, "- Cost: %s\n", FormatCost(ss.Cost))
	if ss.Failures > 0 {
		fmt.Fprintf(b, "- Failures: %d\n", ss.Failures)
	}
}

// RenderWeek renders the weekly rollup as markdown.
func RenderWeek(week aggregate.WeeklySummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Week of %s\n\n", week.Start.Format(dateFormat))

	if week.TotalSessions == 0 {
		b.WriteString("No activity recorded this week.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%d sessions, %d tool calls, %s estimated.\n\n",
		week.TotalSessions, week.TotalToolCalls, FormatCost(week.TotalCost))

	b.WriteString("| Day | Sessions | Tool calls | Cost |\n")
	b.WriteString("|-----|----------|------------|------|\n")
	for _, day := range week.Days {
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n",
			day.Date.Format("Mon 2006-01-02"), day.TotalSessions,
			day.TotalToolCalls, FormatCost(day.TotalCost))
	}

	if len(week.Insights) > 0 {
		b.WriteString("\n## Highlights\n\n")
		for _, insight := range week.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}

	return b.String()
}

// FormatCost renders a dollar amount. Small amounts keep four decimals so
// sub-cent tool costs do not round to $0.00.
func FormatCost(usd float64) string {
	if usd != 0 && usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

// FormatDuration renders milliseconds as a compact h/m/s form.
func FormatDuration(ms int64) string {
	secs := ms / 1000
	switch {
	case secs >= 3600:
		return fmt.Sprintf("%dh%dm", secs/3600, (secs%3600)/60)
	case secs >= 60:
		return fmt.Sprintf("%dm%ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "unknown"
	}
	return id
}
