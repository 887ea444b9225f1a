package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newRebaseCmd creates the rebase command
func newRebaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebase <branch> <onto>",
		Short: "Rebase a branch onto a commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindRebase,
				Source: args[0],
				Target: args[1],
			})
		},
	}

	return cmd
}
