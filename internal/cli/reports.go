package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xbeekeeper/claw-diary/internal/aggregate"
	"github.com/0xbeekeeper/claw-diary/internal/narrative"
	"github.com/0xbeekeeper/claw-diary/internal/store"
	"github.com/0xbeekeeper/claw-diary/internal/summarycache"
)

func newTodayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Summarize today's activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDay(cmd, time.Now())
		},
	}
}

func newDayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Summarize one day's activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.ParseInLocation(store.DateFormat, args[0], time.Local)
			if err != nil {
				return fmt.Errorf("bad date %q (want YYYY-MM-DD)", args[0])
			}
			return printDay(cmd, date)
		},
	}
}

func printDay(cmd *cobra.Command, date time.Time) error {
	cfg := loadConfig()
	s := openStore(cfg)
	cache := openCache(cfg)
	if cache != nil {
		defer cache.Close()
	}

	day, err := summarycache.SummarizeDay(cache, s, date)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), narrative.RenderDay(day))
	return nil
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Summarize the current week (Monday through today)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			week, err := aggregate.SummarizeWeek(openStore(cfg), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), narrative.RenderWeek(week))
			return nil
		},
	}
}
