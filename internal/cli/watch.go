package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/output"
	"twiggy.dev/twiggy/internal/refresh"
)

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render the graph whenever the repository changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			controller := refresh.NewController(s.repo,
				git.SnapshotOptions{MaxCommits: s.cfg.Git.MaxCommits},
				s.cfg.DebounceWindow())

			// Initial render
			update := controller.Refresh()
			if update.Err != nil {
				return update.Err
			}
			render(s, update)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() {
				for update := range controller.Updates() {
					render(s, update)
				}
			}()

			err = controller.Watch(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	return cmd
}

func render(s *session, update refresh.Update) {
	if update.Stale {
		s.splog.Warn("repository state could not be read, showing last good graph: %v", update.Err)
		return
	}
	if update.Diff.Empty() && update.Graph != nil {
		return
	}
	for _, line := range output.RenderGraph(update.Graph, update.Layout) {
		s.splog.Info("%s", line)
	}
	s.splog.Info("")
}
