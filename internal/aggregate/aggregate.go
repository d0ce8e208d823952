// Package aggregate turns a day's raw events into per-session summaries and
// day-level insights. All output is deterministic: the same events always
// produce the same summary, which keeps the narrative layer snapshot-testable.
package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

const topToolLimit = 5

// Insight rule thresholds. Fixed constants; none adapt to data volume.
const (
	failureRateThreshold  = 0.2
	dominantShare         = 0.5
	dominantMinCalls      = 10
	busySessionCount      = 5
	costlyDayUSD          = 5.0
	exploreRatioThreshold = 5.0
	exploreMinReads       = 10
)

// Generic fallback insights. The weekly rollup filters these out.
const (
	InsightNoActivity = "No activity recorded."
	InsightSteadyDay  = "A steady day of work."
)

// ToolCount is one entry in a tool frequency ranking.
type ToolCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SessionSummary aggregates one session's events.
type SessionSummary struct {
	SessionID   string      `json:"sessionId"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	DurationMS  int64       `json:"duration"`
	ToolCalls   int         `json:"toolCalls"`
	TopTools    []ToolCount `json:"topTools"`
	TokensIn    int         `json:"tokensIn"`
	TokensOut   int         `json:"tokensOut"`
	Cost        float64     `json:"cost"`
	Failures    int         `json:"failures"`
	Description string      `json:"description"`
}

// DailySummary aggregates one calendar day.
type DailySummary struct {
	Date           time.Time        `json:"date"`
	TotalSessions  int              `json:"totalSessions"`
	TotalToolCalls int              `json:"totalToolCalls"`
	TotalCost      float64          `json:"totalCost"`
	TotalTokensIn  int              `json:"totalTokensIn"`
	TotalTokensOut int              `json:"totalTokensOut"`
	TotalFailures  int              `json:"totalFailures"`
	Sessions       []SessionSummary `json:"sessions"`
	Insights       []string         `json:"insights"`
}

// SummarizeDay loads and summarizes one day's events.
func SummarizeDay(s *store.Store, date time.Time) (DailySummary, error) {
	events, err := s.Load(date)
	if err != nil {
		return DailySummary{}, fmt.Errorf("load %s: %w", date.Format(store.DateFormat), err)
	}
	return Summarize(date, events), nil
}

// Summarize builds a DailySummary from already-loaded events.
func Summarize(date time.Time, events []event.Event) DailySummary {
	day := DailySummary{Date: date}

	groups := make(map[string][]event.Event)
	var order []string
	for _, e := range events {
		if _, seen := groups[e.SessionID]; !seen {
			order = append(order, e.SessionID)
		}
		groups[e.SessionID] = append(groups[e.SessionID], e)
	}

	for _, id := range order {
		ss := summarizeSession(id, groups[id])
		day.Sessions = append(day.Sessions, ss)
		day.TotalToolCalls += ss.ToolCalls
		day.TotalCost += ss.Cost
		day.TotalTokensIn += ss.TokensIn
		day.TotalTokensOut += ss.TokensOut
		day.TotalFailures += ss.Failures
	}
	day.TotalSessions = len(day.Sessions)

	sort.SliceStable(day.Sessions, func(i, j int) bool {
		return day.Sessions[i].Start.Before(day.Sessions[j].Start)
	})

	day.Insights = dayInsights(day)
	return day
}

func summarizeSession(id string, events []event.Event) SessionSummary {
	ss := SessionSummary{SessionID: id}

	store.SortByTime(events)
	ss.Start = events[0].Timestamp
	ss.End = events[len(events)-1].Timestamp
	ss.DurationMS = ss.End.Sub(ss.Start).Milliseconds()

	counts := make(map[string]int)
	var encounter []string
	var results int
	for _, e := range events {
		switch e.Type {
		case event.TypeToolCall:
			ss.ToolCalls++
			if _, seen := counts[e.ToolName]; !seen {
				encounter = append(encounter, e.ToolName)
			}
			counts[e.ToolName]++
		case event.TypeToolResult:
			results++
			if e.Failed() {
				ss.Failures++
			}
		}
		if e.TokenUsage != nil {
			ss.TokensIn += e.TokenUsage.Input
			ss.TokensOut += e.TokenUsage.Output
			ss.Cost += e.TokenUsage.EstimatedCost
		}
	}

	ss.TopTools = rankTools(counts, encounter)
	ss.Description = describeTools(ss.TopTools)
	return ss
}

// rankTools orders tools by descending count. The sort is stable over the
// first-encounter order, so ties keep the order tools first appeared in.
func rankTools(counts map[string]int, encounter []string) []ToolCount {
	ranked := make([]ToolCount, 0, len(encounter))
	for _, name := range encounter {
		ranked = append(ranked, ToolCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topToolLimit {
		ranked = ranked[:topToolLimit]
	}
	return ranked
}

// descriptionRules maps tool-name substrings to activity phrases, evaluated
// in a fixed order so the output is deterministic.
var descriptionRules = []struct {
	substrings []string
	phrase     string
}{
	{[]string{"read", "glob", "grep"}, "explored the codebase"},
	{[]string{"edit", "write"}, "wrote code"},
	{[]string{"bash"}, "ran shell commands"},
	{[]string{"web", "search"}, "did research"},
	{[]string{"lsp"}, "used code intelligence"},
	{[]string{"task"}, "dispatched sub-agents"},
}

func describeTools(top []ToolCount) string {
	if len(top) == 0 {
		return "no tool activity"
	}

	var phrases []string
	for _, rule := range descriptionRules {
		matched := false
		for _, tc := range top {
			lower := strings.ToLower(tc.Name)
			for _, sub := range rule.substrings {
				if strings.Contains(lower, sub) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			phrases = append(phrases, rule.phrase)
		}
	}

	if len(phrases) == 0 {
		var names []string
		for _, tc := range top {
			names = append(names, tc.Name)
		}
		return "used " + strings.Join(names, ", ")
	}
	return strings.Join(phrases, ", ")
}

// dayInsights runs the fixed insight rule set. Rules fire independently; a
// day that trips none gets a single generic insight.
func dayInsights(day DailySummary) []string {
	if day.TotalSessions == 0 {
		return []string{InsightNoActivity}
	}

	var insights []string

	if day.TotalToolCalls > 0 {
		rate := float64(day.TotalFailures) / float64(day.TotalToolCalls)
		if rate > failureRateThreshold {
			insights = append(insights, fmt.Sprintf("High failure rate: %.0f%% of tool calls failed.", rate*100))
		}
	}

	if name, count, ok := dominantTool(day); ok {
		insights = append(insights, fmt.Sprintf("Heavy reliance on %s (%d calls).", name, count))
	}

	if day.TotalSessions >= busySessionCount {
		insights = append(insights, fmt.Sprintf("Busy day: %d sessions.", day.TotalSessions))
	}

	if day.TotalCost > costlyDayUSD {
		insights = append(insights, fmt.Sprintf("Expensive day: $%.2f in estimated usage.", day.TotalCost))
	}

	reads, writes := readWriteCounts(day)
	if writes > 0 && float64(reads)/float64(writes) > exploreRatioThreshold && reads > exploreMinReads {
		insights = append(insights, "Mostly exploration: far more reading than writing.")
	} else if reads > exploreMinReads && writes == 0 {
		insights = append(insights, "Pure exploration: reading without writing.")
	}

	if len(insights) == 0 {
		insights = append(insights, InsightSteadyDay)
	}
	return insights
}

func dominantTool(day DailySummary) (string, int, bool) {
	if day.TotalToolCalls <= dominantMinCalls {
		return "", 0, false
	}
	counts := make(map[string]int)
	var encounter []string
	for _, ss := range day.Sessions {
		for _, tc := range ss.TopTools {
			if _, seen := counts[tc.Name]; !seen {
				encounter = append(encounter, tc.Name)
			}
			counts[tc.Name] += tc.Count
		}
	}
	best, bestCount := "", 0
	for _, name := range encounter {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	if float64(bestCount) <= dominantShare*float64(day.TotalToolCalls) {
		return "", 0, false
	}
	return best, bestCount, true
}

func readWriteCounts(day DailySummary) (reads, writes int) {
	for _, ss := range day.Sessions {
		for _, tc := range ss.TopTools {
			lower := strings.ToLower(tc.Name)
			switch {
			case strings.Contains(lower, "read") || strings.Contains(lower, "glob") || strings.Contains(lower, "grep"):
				reads += tc.Count
			case strings.Contains(lower, "edit") || strings.Contains(lower, "write"):
				writes += tc.Count
			}
		}
	}
	return reads, writes
}
