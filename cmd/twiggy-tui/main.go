// Package main is the entry point for the twiggy-tui graph viewer.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"twiggy.dev/twiggy/internal/config"
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/refresh"
	"twiggy.dev/twiggy/internal/tui"
)

func main() {
	path := "."
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	repo, err := git.OpenRepository(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "twiggy-tui: %v\n", err)
		os.Exit(1)
	}

	gitDir, err := repo.GitDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "twiggy-tui: %v\n", err)
		os.Exit(1)
	}
	cfg := config.LoadOrDefault(gitDir)

	controller := refresh.NewController(repo,
		git.SnapshotOptions{MaxCommits: cfg.Git.MaxCommits},
		cfg.DebounceWindow())

	p := tea.NewProgram(tui.NewModel(controller), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "twiggy-tui: %v\n", err)
		os.Exit(1)
	}
}
