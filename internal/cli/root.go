package cli

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0xbeekeeper/claw-diary/internal/config"
	"github.com/0xbeekeeper/claw-diary/internal/store"
	"github.com/0xbeekeeper/claw-diary/internal/summarycache"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	flagDataDir string
	flagNoCache bool
)

var rootCmd = &cobra.Command{
	Use:           "clawdiary",
	Short:         "Local activity diary for Claude Code",
	Long:          "clawdiary records agent activity through lifecycle hooks and turns the\nevent log into summaries, cost reports, and a local timeline viewer.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree. Usage errors and command failures exit
// non-zero with the error on stderr.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.SetFlags(0)
		log.Printf("clawdiary: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Override the data directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the summary cache, reparse everything")

	rootCmd.AddCommand(
		newHookCmd(),
		newTodayCmd(),
		newDayCmd(),
		newWeekCmd(),
		newStatsCmd(),
		newSearchCmd(),
		newExportCmd(),
		newServeCmd(),
		newArchiveCmd(),
		newPurgeCmd(),
		newSetupCmd(),
		newVersionCmd(),
	)
}

// loadConfig reads the config file, with the --data-dir flag taking
// precedence over the configured path.
func loadConfig() config.Config {
	cfg := config.Load()
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	return cfg
}

func openStore(cfg config.Config) *store.Store {
	return store.New(cfg.DataDir)
}

// openCache opens the day-summary cache. Any failure degrades to a nil
// cache, which every caller treats as "always reparse".
func openCache(cfg config.Config) *summarycache.Cache {
	if flagNoCache {
		return nil
	}
	cache, err := summarycache.Open(filepath.Join(cfg.DataDir, "cache.db"))
	if err != nil {
		log.Printf("warning: summary cache unavailable: %v", err)
		return nil
	}
	return cache
}
