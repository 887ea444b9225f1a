package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newFFCmd creates the fast-forward command
func newFFCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ff <branch> <target>",
		Short: "Fast-forward a branch to a descendant commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindFastForward,
				Source: args[0],
				Target: args[1],
			})
		},
	}

	return cmd
}
