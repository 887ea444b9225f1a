package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/engine"
)

// newResetCmd creates the reset command
func newResetCmd() *cobra.Command {
	var (
		hard  bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "reset <branch> <target>",
		Short: "Move a branch to an arbitrary commit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			if !force {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Move %s to %s? Commits no longer reachable may be lost.", args[0], args[1]),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					s.splog.Info("aborted")
					return nil
				}
			}

			return s.runIntent(cmd, engine.Intent{
				Kind:   engine.KindReset,
				Source: args[0],
				Target: args[1],
				Hard:   hard,
			})
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "reset the worktree too when moving the checked-out branch")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
