package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"twiggy.dev/twiggy/internal/config"
	"twiggy.dev/twiggy/internal/engine"
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/model"
	"twiggy.dev/twiggy/internal/output"
)

// session bundles everything a command needs: the opened repository, its
// configuration and the graph built from a fresh snapshot
type session struct {
	repo   *git.Repository
	cfg    config.Config
	graph  *model.Graph
	engine *engine.Engine
	splog  *output.Splog
}

// newSession opens the repository named by --repo and loads a graph
func newSession(cmd *cobra.Command) (*session, error) {
	path, err := cmd.Flags().GetString("repo")
	if err != nil {
		path = "."
	}

	repo, err := git.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	gitDir, err := repo.GitDir()
	if err != nil {
		return nil, err
	}
	cfg := config.LoadOrDefault(gitDir)

	snap, err := repo.ReadSnapshot(git.SnapshotOptions{MaxCommits: cfg.Git.MaxCommits})
	if err != nil {
		return nil, fmt.Errorf("failed to read repository: %w", err)
	}

	graph, err := model.Load(snap)
	if err != nil {
		return nil, err
	}

	return &session{
		repo:   repo,
		cfg:    cfg,
		graph:  graph,
		engine: engine.New(repo),
		splog:  output.NewSplog(),
	}, nil
}

// runIntent validates and executes an intent, reporting the outcome
func (s *session) runIntent(cmd *cobra.Command, intent engine.Intent) error {
	plan, err := s.engine.Validate(intent, s.graph)
	if err != nil {
		return err
	}

	result := s.engine.Execute(cmd.Context(), plan)
	switch result.State {
	case engine.StateCommitted:
		if result.AlreadySatisfied {
			s.splog.Info("%s: already up to date", intent.Kind)
			return nil
		}
		s.splog.Info("%s: done", intent.Kind)
		for name, hash := range result.RefState {
			if hash == "" {
				s.splog.Debug("deleted %s", name)
			} else {
				s.splog.Debug("%s -> %s", name, hash[:7])
			}
		}
		return nil
	case engine.StateConflicted:
		s.splog.Warn("%s stopped with conflicts:", intent.Kind)
		for _, path := range result.ConflictPaths {
			s.splog.Info("  %s", path)
		}
		s.splog.Tip("resolve the conflicts, then continue or abort with git")
		return nil
	case engine.StateCanceled:
		s.splog.Warn("%s canceled before any change was made", intent.Kind)
		return nil
	default:
		return result.Err
	}
}
