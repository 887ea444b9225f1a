package cli

import (
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newMergeCmd creates the merge command
func newMergeCmd() *cobra.Command {
	var (
		ffOnly bool
		noFF   bool
	)

	cmd := &cobra.Command{
		Use:   "merge <source> <target-branch>",
		Short: "Merge a ref or commit into a branch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindMerge,
				Source: args[0],
				Target: args[1],
				FFOnly: ffOnly,
				NoFF:   noFF,
			})
		},
	}

	cmd.Flags().BoolVar(&ffOnly, "ff-only", false, "refuse anything but a fast-forward")
	cmd.Flags().BoolVar(&noFF, "no-ff", false, "always create a merge commit")
	cmd.MarkFlagsMutuallyExclusive("ff-only", "no-ff")

	return cmd
}
