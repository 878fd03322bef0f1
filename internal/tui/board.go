// Package tui provides the interactive status board.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tsubasa-dev/gofer/internal/domain"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// keyMap defines the board's key bindings.
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns the bindings shown in the help line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns all bindings.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

var defaultKeys = keyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// loadedMsg carries one refresh of the backlog listing.
type loadedMsg struct {
	out *usecase.ListBacklogsOutput
	err error
}

// Model is the status board: backlogs with status glyphs, task progress
// and blocked reasons, refreshed on demand.
// Fields are ordered to minimize memory padding.
type Model struct {
	lister  *usecase.ListBacklogs
	out     *usecase.ListBacklogsOutput
	err     error
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	width   int
	loading bool
}

// New creates a status board over the listing use case.
func New(lister *usecase.ListBacklogs) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Model{
		lister:  lister,
		keys:    defaultKeys,
		help:    help.New(),
		spinner: s,
		loading: true,
	}
}

// Init starts the spinner and the first load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// load fetches the backlog listing.
func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		out, err := m.lister.Execute(context.Background())
		return loadedMsg{out: out, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case loadedMsg:
		m.loading = false
		m.out = msg.out
		m.err = msg.err

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View renders the board.
func (m Model) View() string {
	s := titleStyle.Render("gofer status") + "\n\n"

	switch {
	case m.loading:
		s += m.spinner.View() + " loading...\n"
	case m.err != nil:
		s += errStyle.Render("error: "+m.err.Error()) + "\n"
	case m.out == nil || len(m.out.Items) == 0:
		s += dimStyle.Render("No backlogs. Run 'gofer plan' to create some.") + "\n"
	default:
		if m.out.ProjectSummary != "" {
			s += dimStyle.Render(m.out.ProjectSummary) + "\n\n"
		}
		for _, item := range m.out.Items {
			s += renderItem(item) + "\n"
		}
	}

	s += "\n" + m.help.View(m.keys)
	return s
}

// renderItem renders one backlog row.
func renderItem(item usecase.BacklogProgress) string {
	b := item.Backlog

	glyph := pendingStyle.Render(glyphPending)
	switch b.Status {
	case domain.BacklogInProgress:
		glyph = activeStyle.Render(glyphActive)
	case domain.BacklogCompleted:
		glyph = doneStyle.Render(glyphDone)
	}

	progress := ""
	if item.TasksTotal > 0 {
		progress = dimStyle.Render(fmt.Sprintf("  %d/%d tasks", item.TasksCompleted, item.TasksTotal))
	}
	blocked := ""
	if len(item.UnmetDeps) > 0 && b.Status == domain.BacklogPending {
		blocked = errStyle.Render(fmt.Sprintf("  blocked on %v", item.UnmetDeps))
	}

	return fmt.Sprintf("%s #%d %s%s%s", glyph, b.ID, b.Title, progress, blocked)
}
