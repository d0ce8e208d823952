package aggregate

import (
	"time"

	"github.com/0xbeekeeper/claw-diary/internal/store"
)

const weeklyInsightLimit = 8

// WeeklySummary aggregates the current week, most recent Monday through
// today inclusive.
type WeeklySummary struct {
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Days           []DailySummary `json:"days"`
	TotalSessions  int            `json:"totalSessions"`
	TotalToolCalls int            `json:"totalToolCalls"`
	TotalCost      float64        `json:"totalCost"`
	TotalTokensIn  int            `json:"totalTokensIn"`
	TotalTokensOut int            `json:"totalTokensOut"`
	TotalFailures  int            `json:"totalFailures"`
	Insights       []string       `json:"insights"`
}

// SummarizeWeek summarizes every day from the most recent Monday through
// today. Insights are deduplicated across days, generic placeholders are
// dropped, and the list is capped.
func SummarizeWeek(s *store.Store, today time.Time) (WeeklySummary, error) {
	week := WeeklySummary{Start: mostRecentMonday(today), End: today}

	seen := make(map[string]bool)
	for d := week.Start; !d.After(today); d = d.AddDate(0, 0, 1) {
		day, err := SummarizeDay(s, d)
		if err != nil {
			return WeeklySummary{}, err
		}
		week.Days = append(week.Days, day)
		week.TotalSessions += day.TotalSessions
		week.TotalToolCalls += day.TotalToolCalls
		week.TotalCost += day.TotalCost
		week.TotalTokensIn += day.TotalTokensIn
		week.TotalTokensOut += day.TotalTokensOut
		week.TotalFailures += day.TotalFailures

		for _, insight := range day.Insights {
			if insight == InsightNoActivity || insight == InsightSteadyDay {
				continue
			}
			if seen[insight] || len(week.Insights) >= weeklyInsightLimit {
				continue
			}
			seen[insight] = true
			week.Insights = append(week.Insights, insight)
		}
	}
	return week, nil
}

func mostRecentMonday(today time.Time) time.Time {
	offset := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -offset)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, monday.Location())
}
