package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newBranchCmd creates the branch command
func newBranchCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a branch at a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			target := at
			if target == "" {
				target = s.graph.Head().Hash
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindCreateBranch,
				Source: args[0],
				Target: target,
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "commit or ref to branch from (default HEAD)")

	return cmd
}
