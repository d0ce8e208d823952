package analytics

import (
	"fmt"
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/event"
)

// Pattern heuristic thresholds and confidences. Fixed constants; none
// adapt to data volume.
const (
	weekdayMinCalls    = 10
	weekdayConfidence  = 0.7
	trendMinChange     = 0.20
	trendConfidence    = 0.6
	pairMinCount       = 15
	pairConfidence     = 0.8
	peakConfidence     = 0.7
	failingMinFailures = 5
	failingConfidence  = 0.8
)

// discoverPatterns runs the fixed heuristic battery over the window. Each
// heuristic contributes zero or one pattern, independently of the others.
func discoverPatterns(w window) []Pattern {
	var patterns []Pattern
	checks := []func(window) (Pattern, bool){
		busiestWeekday,
		costTrend,
		repeatedToolPair,
		peakHour,
		mostFailingTool,
	}
	for _, check := range checks {
		if p, ok := check(w); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns
}

func busiestWeekday(w window) (Pattern, bool) {
	counts := make(map[time.Weekday]int)
	for _, day := range w.days {
		for _, e := range day {
			if e.Type == event.TypeToolCall {
				counts[e.Timestamp.Weekday()]++
			}
		}
	}

	var best time.Weekday
	bestCount := 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if counts[wd] > bestCount {
			best, bestCount = wd, counts[wd]
		}
	}
	if bestCount <= weekdayMinCalls {
		return Pattern{}, false
	}
	return Pattern{
		Description: fmt.Sprintf("Most active on %ss (%d tool calls).", best, bestCount),
		Confidence:  weekdayConfidence,
	}, true
}

// costTrend compares the mean daily cost of the last 7 days against the 7
// days before that. A zero prior-period mean suppresses the check.
func costTrend(w window) (Pattern, bool) {
	dayCost := func(events []event.Event) float64 {
		var c float64
		for _, e := range events {
			if e.TokenUsage != nil {
				c += e.TokenUsage.EstimatedCost
			}
		}
		return c
	}

	n := len(w.days)
	var recent, prior float64
	for _, day := range w.days[n-7:] {
		recent += dayCost(day)
	}
	for _, day := range w.days[n-14 : n-7] {
		prior += dayCost(day)
	}
	recent /= 7
	prior /= 7

	if prior == 0 {
		return Pattern{}, false
	}

	change := (recent - prior) / prior
	switch {
	case change > trendMinChange:
		return Pattern{
			Description: fmt.Sprintf("Cost trend: %.0f%% increase over the prior week.", change*100),
			Confidence:  trendConfidence,
			Suggestion:  "Review which tools and models are driving the increase.",
		}, true
	case change < -trendMinChange:
		return Pattern{
			Description: fmt.Sprintf("Cost trend: %.0f%% decrease over the prior week.", -change*100),
			Confidence:  trendConfidence,
		}, true
	}
	return Pattern{}, false
}

// repeatedToolPair counts consecutive ordered pairs of tool-call names in
// chronological order across the whole window.
func repeatedToolPair(w window) (Pattern, bool) {
	type pair struct{ first, second string }
	counts := make(map[pair]int)

	prev := ""
	for _, day := range w.days {
		for _, e := range day {
			if e.Type != event.TypeToolCall || e.ToolName == "" {
				continue
			}
			if prev != "" {
				counts[pair{prev, e.ToolName}]++
			}
			prev = e.ToolName
		}
	}

	var best pair
	bestCount := 0
	for p, c := range counts {
		if c > bestCount || (c == bestCount && lessPair(p.first, p.second, best.first, best.second)) {
			best, bestCount = p, c
		}
	}
	if bestCount <= pairMinCount {
		return Pattern{}, false
	}
	return Pattern{
		Description: fmt.Sprintf("You often run %s then %s (%d times).", best.first, best.second, bestCount),
		Confidence:  pairConfidence,
	}, true
}

func lessPair(a1, a2, b1, b2 string) bool {
	if b1 == "" {
		return false
	}
	if a1 != b1 {
		return a1 < b1
	}
	return a2 < b2
}

// peakHour fires whenever any tool calls exist at all.
func peakHour(w window) (Pattern, bool) {
	var counts [24]int
	total := 0
	for _, day := range w.days {
		for _, e := range day {
			if e.Type == event.TypeToolCall {
				counts[e.Timestamp.Hour()]++
				total++
			}
		}
	}
	if total == 0 {
		return Pattern{}, false
	}

	best := 0
	for h := 1; h < 24; h++ {
		if counts[h] > counts[best] {
			best = h
		}
	}
	return Pattern{
		Description: fmt.Sprintf("Peak activity around %02d:00 (%d tool calls).", best, counts[best]),
		Confidence:  peakConfidence,
	}, true
}

func mostFailingTool(w window) (Pattern, bool) {
	failures := make(map[string]int)
	var encounter []string
	for _, day := range w.days {
		for _, e := range day {
			if e.Type == event.TypeToolResult && e.Failed() && e.ToolName != "" {
				if _, seen := failures[e.ToolName]; !seen {
					encounter = append(encounter, e.ToolName)
				}
				failures[e.ToolName]++
			}
		}
	}

	best, bestCount := "", 0
	for _, name := range encounter {
		if failures[name] > bestCount {
			best, bestCount = name, failures[name]
		}
	}
	if bestCount <= failingMinFailures {
		return Pattern{}, false
	}
	return Pattern{
		Description: fmt.Sprintf("%s fails most often (%d failures).", best, bestCount),
		Confidence:  failingConfidence,
		Suggestion:  fmt.Sprintf("Check how %s is being invoked; repeated failures burn tokens.", best),
	}, true
}
