package cli

import (
	"github.com/spf13/cobra"

	"github.com/0xbeekeeper/claw-diary/internal/collector"
)

func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook <before|after|session-start|session-stop>",
		Short: "Handle one lifecycle hook invocation (reads JSON from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := collector.New(loadConfig())
			return c.Run(args[0], cmd.InOrStdin())
		},
	}
}
