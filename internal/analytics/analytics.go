// Package analytics computes usage statistics and discovers behavioral
// patterns over a rolling 30-day window. The window is loaded from the
// store once, partitioned per day, and every downstream computation works
// from the same in-memory slices.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/event"
	"github.com/0xbeekeeper/claw-diary/internal/store"
)

// WindowDays is the size of the rolling analysis window.
const WindowDays = 30

const topToolLimit = 10

// DayCost is one point in the daily cost series.
type DayCost struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// ToolUsage ranks one tool by call volume with its accumulated cost.
type ToolUsage struct {
	Name  string  `json:"name"`
	Calls int     `json:"calls"`
	Cost  float64 `json:"cost"`
}

// Pattern is one discovered behavioral pattern.
type Pattern struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Suggestion  string  `json:"suggestion,omitempty"`
}

// Stats is the full analytics output for the window.
type Stats struct {
	CostToday    float64            `json:"costToday"`
	CostThisWeek float64            `json:"costThisWeek"`
	CostByModel  map[string]float64 `json:"costByModel"`
	CostByTool   map[string]float64 `json:"costByTool"`
	DailyCosts   []DayCost          `json:"dailyCosts"`

	TotalSessions  int     `json:"totalSessions"`
	TotalToolCalls int     `json:"totalToolCalls"`
	AvgSessionMS   float64 `json:"avgSessionDuration"`
	FailureRate    float64 `json:"failureRate"`

	TopTools []ToolUsage `json:"topTools"`
	Patterns []Pattern   `json:"patterns"`
}

// window holds the loaded events partitioned per calendar day,
// oldest first; the last entry is today.
type window struct {
	dates []time.Time
	days  [][]event.Event
}

// Compute loads the window ending today and produces the full Stats.
func Compute(s *store.Store, today time.Time) (Stats, error) {
	w, err := loadWindow(s, today)
	if err != nil {
		return Stats{}, err
	}
	return computeFrom(w), nil
}

func loadWindow(s *store.Store, today time.Time) (window, error) {
	var w window
	for i := WindowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		events, err := s.Load(date)
		if err != nil {
			return window{}, fmt.Errorf("load window day %s: %w", date.Format(store.DateFormat), err)
		}
		store.SortByTime(events)
		w.dates = append(w.dates, date)
		w.days = append(w.days, events)
	}
	return w, nil
}

func computeFrom(w window) Stats {
	stats := Stats{
		CostByModel: make(map[string]float64),
		CostByTool:  make(map[string]float64),
	}

	sessions := make(map[string]bool)
	toolCalls := make(map[string]int)
	var encounter []string

	var results, failures int
	var durationSum float64
	var endedSessions int

	for i, day := range w.days {
		var dayCost float64
		for _, e := range day {
			if e.SessionID != "" {
				sessions[e.SessionID] = true
			}
			if e.TokenUsage != nil {
				dayCost += e.TokenUsage.EstimatedCost
				model := e.Model
				if model == "" {
					model = "unknown"
				}
				stats.CostByModel[model] += e.TokenUsage.EstimatedCost
				if e.ToolName != "" {
					stats.CostByTool[e.ToolName] += e.TokenUsage.EstimatedCost
				}
			}

			switch e.Type {
			case event.TypeToolCall:
				stats.TotalToolCalls++
				if _, seen := toolCalls[e.ToolName]; !seen {
					encounter = append(encounter, e.ToolName)
				}
				toolCalls[e.ToolName]++
			case event.TypeToolResult:
				results++
				if e.Failed() {
					failures++
				}
			case event.TypeSessionEnd:
				// Only sessions that recorded an explicit duration count;
				// sessions without an end event are excluded, not estimated.
				if e.DurationMS > 0 {
					durationSum += float64(e.DurationMS)
					endedSessions++
				}
			}
		}

		stats.DailyCosts = append(stats.DailyCosts, DayCost{Date: w.dates[i], Cost: dayCost})
	}

	n := len(stats.DailyCosts)
	stats.CostToday = stats.DailyCosts[n-1].Cost
	for _, dc := range stats.DailyCosts[n-7:] {
		stats.CostThisWeek += dc.Cost
	}

	stats.TotalSessions = len(sessions)
	if endedSessions > 0 {
		stats.AvgSessionMS = durationSum / float64(endedSessions)
	}
	if results > 0 {
		stats.FailureRate = float64(failures) / float64(results)
	}

	ranked := make([]ToolUsage, 0, len(encounter))
	for _, name := range encounter {
		ranked = append(ranked, ToolUsage{Name: name, Calls: toolCalls[name], Cost: stats.CostByTool[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Calls > ranked[j].Calls })
	if len(ranked) > topToolLimit {
		ranked = ranked[:topToolLimit]
	}
	stats.TopTools = ranked

	stats.Patterns = discoverPatterns(w)
	return stats
}
