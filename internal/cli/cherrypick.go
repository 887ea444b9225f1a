package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newCherryPickCmd creates the cherry-pick command
func newCherryPickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cherry-pick <commit> <target-branch>",
		Short:   "Apply a single commit onto a branch",
		Aliases: []string{"cp"},
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindCherryPick,
				Source: args[0],
				Target: args[1],
			})
		},
	}

	return cmd
}
