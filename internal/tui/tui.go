// Package tui provides the interactive commit-graph viewer.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"twiggy.dev/twiggy/internal/output"
	"twiggy.dev/twiggy/internal/refresh"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginLeft(4)
)

// updateMsg delivers a refresh update into the bubbletea loop
type updateMsg refresh.Update

// Model is the bubbletea model for the graph viewer
type Model struct {
	controller *refresh.Controller
	cancel     context.CancelFunc

	update   refresh.Update
	cursor   int
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// NewModel creates a viewer backed by the given refresh controller. The
// controller's watch loop is started when the model initializes.
func NewModel(controller *refresh.Controller) *Model {
	return &Model{controller: controller}
}

// Init starts the watch loop and performs the first refresh
func (m *Model) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go func() {
		_ = m.controller.Watch(ctx)
	}()

	return tea.Batch(
		func() tea.Msg { return updateMsg(m.controller.Refresh()) },
		m.waitForUpdate(),
	)
}

// waitForUpdate blocks on the controller's update channel
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.controller.Updates()
		if !ok {
			return nil
		}
		return updateMsg(update)
	}
}

// Update handles bubbletea messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refreshContent()

	case updateMsg:
		m.update = refresh.Update(msg)
		if m.update.Layout != nil && m.cursor >= len(m.update.Layout.Nodes) {
			m.cursor = max(0, len(m.update.Layout.Nodes)-1)
		}
		m.refreshContent()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.refreshContent()
			}
		case "down", "j":
			if m.update.Layout != nil && m.cursor < len(m.update.Layout.Nodes)-1 {
				m.cursor++
				m.refreshContent()
			}
		case "r":
			return m, func() tea.Msg { return updateMsg(m.controller.Refresh()) }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refreshContent re-renders the graph into the viewport
func (m *Model) refreshContent() {
	if !m.ready || m.update.Graph == nil || m.update.Layout == nil {
		return
	}

	lines := output.RenderGraph(m.update.Graph, m.update.Layout)
	for i := range lines {
		if i == m.cursor {
			lines[i] = cursorStyle.Render("> ") + lines[i]
		} else {
			lines[i] = "  " + lines[i]
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// View renders the full screen
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	title := "twiggy"
	if m.update.Graph != nil {
		title = fmt.Sprintf("twiggy - %d commits", m.update.Graph.Len())
	}
	b.WriteString(titleStyle.Render(title))
	if m.update.Stale {
		b.WriteString(" ")
		b.WriteString(staleStyle.Render("[stale]"))
	}
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if detail := m.selectedDetail(); detail != "" {
		b.WriteString(detailStyle.Render(detail))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓: navigate | r: refresh | q: quit"))
	return b.String()
}

// selectedDetail summarizes the commit under the cursor
func (m *Model) selectedDetail() string {
	if m.update.Graph == nil || m.update.Layout == nil {
		return ""
	}
	nodes := m.update.Layout.Nodes
	if m.cursor < 0 || m.cursor >= len(nodes) {
		return ""
	}

	commit, ok := m.update.Graph.Commit(nodes[m.cursor].Hash)
	if !ok {
		return ""
	}

	var refs []string
	for _, ref := range m.update.Graph.RefsAt(commit.Hash) {
		refs = append(refs, ref.Name)
	}
	detail := fmt.Sprintf("%s <%s> %s", commit.Author.Name, commit.Author.Email,
		commit.Author.When.Format("2006-01-02 15:04"))
	if len(refs) > 0 {
		detail += " [" + strings.Join(refs, ", ") + "]"
	}
	return detail
}
