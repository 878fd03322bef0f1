// Package cli provides the command-line interface for gofer.
package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/tsubasa-dev/gofer/internal/app"
	"github.com/tsubasa-dev/gofer/internal/tui"
)

// Command group IDs.
const (
	groupSetup   = "setup"
	groupBacklog = "backlog"
	groupRun     = "run"
)

// launchStatusBoardFunc is a function variable so tests can stub out
// the TUI launch.
var launchStatusBoardFunc = launchStatusBoard

// NewRootCommand creates the root command for gofer.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gofer",
		Short: "Resumable plan/build/test orchestration for coding agents",
		Long: `gofer drives an external coding agent through a plan, build, test
pipeline. Every state change is appended to an event log under .gofer/,
so an interrupted run picks up exactly where it stopped.

Typical flow:
  gofer init
  gofer plan "a todo list web service"
  gofer run            # repeatedly, until all backlogs are done`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "init" || c == nil {
				return nil
			}
			cfg, err := c.ConfigLoader.Load()
			if err != nil {
				return nil
			}
			for _, w := range cfg.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			// Default: launch the status board
			return launchStatusBoardFunc(c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupBacklog, Title: "Backlog Management:"},
		&cobra.Group{ID: groupRun, Title: "Pipeline:"},
	)

	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	planCmd := newPlanCommand(c)
	planCmd.GroupID = groupBacklog

	backlogCmd := newBacklogCommand(c)
	backlogCmd.GroupID = groupBacklog

	tasksCmd := newTasksCommand(c)
	tasksCmd.GroupID = groupBacklog

	eventsCmd := newEventsCommand(c)
	eventsCmd.GroupID = groupBacklog

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupRun

	testCmd := newTestCommand(c)
	testCmd.GroupID = groupRun

	serveCmd := newServeCommand(c)
	serveCmd.GroupID = groupRun

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupBacklog

	root.AddCommand(
		initCmd,
		planCmd,
		backlogCmd,
		tasksCmd,
		eventsCmd,
		runCmd,
		testCmd,
		serveCmd,
		statusCmd,
	)

	return root
}

// launchStatusBoard starts the interactive status board.
func launchStatusBoard(c *app.Container) error {
	model := tui.New(c.ListBacklogsUseCase())
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// newStatusCommand creates the status command (explicit TUI launch).
func newStatusCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Open the interactive status board",
		RunE: func(_ *cobra.Command, _ []string) error {
			return launchStatusBoardFunc(c)
		},
	}
}
