// Package refresh orchestrates re-snapshotting after internal or external
// repository changes and feeds incremental updates to consumers of the
// layout.
package refresh

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"twiggy.dev/twiggy/internal/engine"
	"twiggy.dev/twiggy/internal/git"
	"twiggy.dev/twiggy/internal/layout"
	"twiggy.dev/twiggy/internal/model"
)

// DefaultDebounceWindow coalesces bursts of filesystem events (a fetch
// writing dozens of refs) into a single refresh
const DefaultDebounceWindow = 250 * time.Millisecond

// Update carries the outcome of one refresh cycle. When Stale is true the
// snapshot could not be trusted and Graph/Layout are the previous ones, kept
// so the consumer can keep rendering instead of blanking the view.
type Update struct {
	Graph  *model.Graph
	Layout *layout.Result
	Diff   Diff
	Stale  bool
	Err    error
}

// Controller re-reads the repository on demand or on filesystem change and
// produces layout updates with diffs against the previous state
type Controller struct {
	backend git.Backend
	opts    git.SnapshotOptions
	window  time.Duration

	mu     sync.Mutex
	graph  *model.Graph
	layout *layout.Result

	updates chan Update
}

// NewController creates a controller. A zero debounce window selects
// DefaultDebounceWindow.
func NewController(backend git.Backend, opts git.SnapshotOptions, window time.Duration) *Controller {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Controller{
		backend: backend,
		opts:    opts,
		window:  window,
		updates: make(chan Update, 1),
	}
}

// Updates delivers refreshes triggered by the watch loop
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// Graph returns the most recent trusted graph
func (c *Controller) Graph() *model.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph
}

// Layout returns the most recent layout
func (c *Controller) Layout() *layout.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// Refresh re-reads the repository, rebuilds the graph and lays it out with
// the previous layout for stability. A consistency failure keeps the prior
// graph and layout and returns a stale update instead.
func (c *Controller) Refresh() Update {
	c.mu.Lock()
	prevGraph := c.graph
	prevLayout := c.layout
	c.mu.Unlock()

	snap, err := c.backend.ReadSnapshot(c.opts)
	if err != nil {
		return Update{Graph: prevGraph, Layout: prevLayout, Stale: true, Err: err}
	}

	graph, err := model.Load(snap)
	if err != nil {
		return Update{Graph: prevGraph, Layout: prevLayout, Stale: true, Err: err}
	}

	laidOut := layout.Layout(graph, prevLayout)

	c.mu.Lock()
	c.graph = graph
	c.layout = laidOut
	c.mu.Unlock()

	return Update{
		Graph:  graph,
		Layout: laidOut,
		Diff:   diff(prevGraph, graph, prevLayout, laidOut),
	}
}

// OnOperationResult refreshes after the engine reports an outcome. Even
// failed operations refresh: rollback may still have touched the worktree.
func (c *Controller) OnOperationResult(result engine.Result) Update {
	return c.Refresh()
}

// Watch runs a filesystem watch on the repository's git metadata directory
// until the context is canceled, coalescing event bursts into single
// refreshes delivered on Updates.
func (c *Controller) Watch(ctx context.Context) error {
	gitDir, err := c.backend.GitDir()
	if err != nil {
		return fmt.Errorf("failed to locate git dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// fsnotify is not recursive: watch the directories where ref updates land
	watchDirs := []string{
		gitDir,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "refs", "remotes"),
	}
	for _, dir := range watchDirs {
		// Missing subdirectories (no tags yet) are fine
		_ = watcher.Add(dir)
	}

	debounced := debounce.New(c.window)
	trigger := func() {
		update := c.Refresh()
		select {
		case c.updates <- update:
		default:
			// Drop in favor of the pending update; the consumer always
			// receives the freshest state on its next read
			select {
			case <-c.updates:
			default:
			}
			c.updates <- update
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignorableEvent(event) {
				continue
			}
			debounced(trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			select {
			case c.updates <- Update{Graph: c.Graph(), Layout: c.Layout(), Stale: true, Err: err}:
			default:
			}
		}
	}
}

// ignorableEvent filters the noise git produces while taking its own locks
func ignorableEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".lock") {
		return true
	}
	// Object writes change no refs; index churn is worktree state
	if name == "index" || name == "FETCH_HEAD" || name == "COMMIT_EDITMSG" {
		return true
	}
	return event.Op == fsnotify.Chmod
}
