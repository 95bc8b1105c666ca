package commands

import (
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show recorded method invocations",
		Long: `Show the method invocations recorded by call and shell, newest first.

Given an invocation ID, show that invocation with its inputs and outputs.`,
		Example: `  wbemctl history
  wbemctl history --limit 5 -o json
  wbemctl history 0b6f6c2e-6a0e-4c59-9a55-51a1b1f3c0de`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if len(args) == 1 {
				inv, err := cmdCtx.Engine.Invocation(args[0])
				if err != nil {
					return err
				}
				return renderInvocation(cmdCtx.Renderer, inv)
			}

			invs, err := cmdCtx.Engine.History(limit)
			if err != nil {
				return err
			}
			return renderHistory(cmdCtx.Renderer, invs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of invocations to show (0 for all)")

	return cmd
}
