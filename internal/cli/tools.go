package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xbeekeeper/claw-diary/internal/archive"
	"github.com/0xbeekeeper/claw-diary/internal/config"
	"github.com/0xbeekeeper/claw-diary/internal/export"
	"github.com/0xbeekeeper/claw-diary/internal/narrative"
	"github.com/0xbeekeeper/claw-diary/internal/setup"
	"github.com/0xbeekeeper/claw-diary/internal/store"
	"github.com/0xbeekeeper/claw-diary/internal/viewer"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search all stored events (case-insensitive substring)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			events, err := openStore(cfg).Search(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}
			for _, e := range events {
				cost := ""
				if e.TokenUsage != nil && e.TokenUsage.EstimatedCost > 0 {
					cost = " " + narrative.FormatCost(e.TokenUsage.EstimatedCost)
				}
				fmt.Fprintf(out, "%s  %-13s %s%s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.ToolName, cost)
			}
			fmt.Fprintf(out, "%d matches\n", len(events))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var format, dest string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all recorded activity to a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			path, err := export.Run(openStore(cfg), dest, format, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", config.CompressHome(path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatMarkdown, "Export format: markdown, html, or json")
	cmd.Flags().StringVarP(&dest, "out", "o", ".", "Destination directory")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local timeline viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if port == 0 {
				port = cfg.ViewerPort
			}

			srv := viewer.New(openStore(cfg), port)
			if err := srv.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "viewer listening on http://%s\n", srv.Addr())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	return cmd
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Compress event logs older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			res, err := archive.Run(openStore(cfg), time.Now(), cfg.RetentionDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived %d day(s)\n", len(res.Archived))
			return nil
		},
	}
}

func newPurgeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all recorded data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := store.Purge(cfg.DataDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", config.CompressHome(cfg.DataDir))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion of all recorded data")
	return cmd
}

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Manage the Claude Code hook installation",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Install the clawdiary hooks and write a starter config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.SettingsPath()
			if err != nil {
				return err
			}
			if err := setup.Install(path); err != nil {
				return err
			}
			cfgPath, err := config.WriteDefault()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config at %s\n", config.CompressHome(cfgPath))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: "Remove the clawdiary hooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.SettingsPath()
			if err != nil {
				return err
			}
			return setup.Uninstall(path)
		},
	})

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the clawdiary version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clawdiary %s\n", Version)
		},
	}
}
