package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xbeekeeper/claw-diary/internal/analytics"
	"github.com/0xbeekeeper/claw-diary/internal/narrative"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the 30-day usage dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			stats, err := analytics.Compute(openStore(cfg), time.Now())
			if err != nil {
				return err
			}
			printStats(cmd, stats)
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, stats analytics.Stats) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, renderTitle("claw-diary · last 30 days"))
	fmt.Fprintln(out)

	overview := table{
		title:   "Overview",
		headers: []string{"Metric", "Value"},
		rows: [][]string{
			{"Cost today", costStyle.Render(narrative.FormatCost(stats.CostToday))},
			{"Cost this week", costStyle.Render(narrative.FormatCost(stats.CostThisWeek))},
			{"Sessions", fmt.Sprintf("%d", stats.TotalSessions)},
			{"Tool calls", fmt.Sprintf("%d", stats.TotalToolCalls)},
			{"Avg session", narrative.FormatDuration(int64(stats.AvgSessionMS))},
			{"Failure rate", formatRate(stats.FailureRate)},
		},
	}
	fmt.Fprintln(out, renderTable(overview))

	if len(stats.TopTools) > 0 {
		tools := table{
			title:   "Top tools",
			headers: []string{"Tool", "Calls", "Cost"},
		}
		for _, tu := range stats.TopTools {
			tools.rows = append(tools.rows, []string{
				tu.Name, fmt.Sprintf("%d", tu.Calls), narrative.FormatCost(tu.Cost),
			})
		}
		fmt.Fprintln(out, renderTable(tools))
	}

	if len(stats.CostByModel) > 0 {
		models := table{
			title:   "Cost by model",
			headers: []string{"Model", "Cost"},
		}
		names := make([]string, 0, len(stats.CostByModel))
		for name := range stats.CostByModel {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return stats.CostByModel[names[i]] > stats.CostByModel[names[j]]
		})
		for _, name := range names {
			models.rows = append(models.rows, []string{name, narrative.FormatCost(stats.CostByModel[name])})
		}
		fmt.Fprintln(out, renderTable(models))
	}

	if len(stats.Patterns) > 0 {
		fmt.Fprintln(out, headerStyle.Render("  Patterns"))
		for _, p := range stats.Patterns {
			fmt.Fprintf(out, "  - %s (confidence %.1f)\n", p.Description, p.Confidence)
			if p.Suggestion != "" {
				fmt.Fprintf(out, "    %s\n", dimStyle.Render(p.Suggestion))
			}
		}
	}
}

func formatRate(rate float64) string {
	s := fmt.Sprintf("%.1f%%", rate*100)
	if rate > 0.2 {
		return failStyle.Render(s)
	}
	return s
}
