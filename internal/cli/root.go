// Package cli wires the twiggy core into a cobra command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "twiggy",
		Short: "Twiggy visualizes a repository's commit history and manipulates it directly",
		Long: `Twiggy visualizes a Git repository's commit history as a graph and performs
Git operations (branch, merge, rebase, cherry-pick) against it.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringP("repo", "C", ".", "path to the repository")

	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newBranchCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newFFCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newRebaseCmd())
	rootCmd.AddCommand(newCherryPickCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}
