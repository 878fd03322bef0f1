// Package app provides the dependency injection container for the application.
package app

import (
	"os"
	"path/filepath"

	"github.com/tsubasa-dev/gofer/internal/domain"
	"github.com/tsubasa-dev/gofer/internal/infra/agent"
	"github.com/tsubasa-dev/gofer/internal/infra/backlogstore"
	"github.com/tsubasa-dev/gofer/internal/infra/config"
	"github.com/tsubasa-dev/gofer/internal/infra/eventlog"
	"github.com/tsubasa-dev/gofer/internal/infra/executor"
	"github.com/tsubasa-dev/gofer/internal/infra/gitops"
	"github.com/tsubasa-dev/gofer/internal/infra/logging"
	"github.com/tsubasa-dev/gofer/internal/infra/workspace"
	"github.com/tsubasa-dev/gofer/internal/usecase"
)

// Paths holds the resolved filesystem layout for one project.
type Paths struct {
	ProjectRoot string // Directory gofer operates on
	GoferDir    string // Path to the .gofer state directory
	EventLog    string // Path to events.jsonl
	BacklogFile string // Path to backlog.json
}

// newPaths resolves the layout from the project root.
func newPaths(projectRoot string) Paths {
	goferDir := domain.ProjectGoferDir(projectRoot)
	return Paths{
		ProjectRoot: projectRoot,
		GoferDir:    goferDir,
		EventLog:    domain.EventLogPath(goferDir),
		BacklogFile: domain.BacklogPath(goferDir),
	}
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for
// use cases.
type Container struct {
	Backlogs     domain.BacklogRepository
	Events       domain.EventLog
	Agent        domain.AgentClient
	Parser       domain.ResponseParser
	Prompts      domain.PromptBuilder
	Workspace    domain.WorkspaceWriter
	Executor     domain.CommandExecutor
	Starter      domain.ChildStarter
	Committer    domain.Committer
	ConfigLoader domain.ConfigLoader
	Clock        domain.Clock
	Sleeper      domain.Sleeper

	Logger *logging.Logger
	State  *usecase.ProjectState

	Paths Paths
}

// New creates a Container rooted at the given project directory.
func New(projectRoot string) (*Container, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}
	paths := newPaths(root)

	var configLoader domain.ConfigLoader
	if home, err := os.UserConfigDir(); err == nil {
		configLoader = config.NewLoaderWithGlobalDir(paths.GoferDir, domain.GlobalGoferDir(home))
	} else {
		configLoader = config.NewLoader(paths.GoferDir)
	}
	appConfig, err := configLoader.Load()
	if err != nil {
		appConfig = domain.NewDefaultConfig()
	}

	logger := logging.New(paths.GoferDir, logging.ParseLevel(appConfig.Log.Level))
	for _, w := range appConfig.Warnings {
		logger.Warn("config", "warning", w)
	}

	clock := domain.RealClock{}
	events := eventlog.New(paths.EventLog, logger.Slog())
	execClient := executor.NewClient()

	// Commit wrapping only works inside a repository; everything else
	// runs fine without one.
	var committer domain.Committer
	if c, err := gitops.Open(root, clock); err == nil {
		committer = c
	} else {
		logger.Debug("commit wrapping disabled", "reason", err.Error())
	}

	c := &Container{
		Backlogs:     backlogstore.New(paths.BacklogFile),
		Events:       events,
		Agent:        agent.NewClient(appConfig.Agent, root, logger.Slog()),
		Parser:       agent.NewParser(logger.Slog()),
		Prompts:      agent.Prompts{},
		Workspace:    workspace.NewWriter(root),
		Executor:     execClient,
		Starter:      execClient,
		Committer:    committer,
		ConfigLoader: configLoader,
		Clock:        clock,
		Sleeper:      domain.RealSleeper{},
		Logger:       logger,
		Paths:        paths,
	}
	c.State = usecase.NewProjectState(events, clock)
	return c, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	return c.Logger.Close()
}

// UseCase factory methods

// InitProjectUseCase returns a new InitProject use case.
func (c *Container) InitProjectUseCase() *usecase.InitProject {
	return usecase.NewInitProject(c.Backlogs, c.Logger)
}

// PlanBacklogsUseCase returns a new PlanBacklogs use case.
func (c *Container) PlanBacklogsUseCase() *usecase.PlanBacklogs {
	return usecase.NewPlanBacklogs(c.Backlogs, c.Agent, c.Parser, c.Prompts, c.State,
		c.ConfigLoader, c.Clock, c.Sleeper, c.Logger)
}

// RunBacklogUseCase returns a new RunBacklog use case.
func (c *Container) RunBacklogUseCase() *usecase.RunBacklog {
	return usecase.NewRunBacklog(c.Backlogs, c.Agent, c.Parser, c.Prompts, c.State,
		c.Workspace, c.Executor, c.Committer, c.ConfigLoader, c.Clock, c.Sleeper,
		c.Logger, c.Paths.ProjectRoot)
}

// RunNextUseCase returns a new RunNext use case.
func (c *Container) RunNextUseCase() *usecase.RunNext {
	return usecase.NewRunNext(c.Backlogs, c.RunBacklogUseCase(), c.Logger)
}

// RunTestsUseCase returns a new RunTests use case.
func (c *Container) RunTestsUseCase() *usecase.RunTests {
	return usecase.NewRunTests(c.Executor, c.State, c.ConfigLoader, c.Logger, c.Paths.ProjectRoot)
}

// AddBacklogUseCase returns a new AddBacklog use case.
func (c *Container) AddBacklogUseCase() *usecase.AddBacklog {
	return usecase.NewAddBacklog(c.Backlogs, c.Clock, c.Logger)
}

// ResetBacklogUseCase returns a new ResetBacklog use case.
func (c *Container) ResetBacklogUseCase() *usecase.ResetBacklog {
	return usecase.NewResetBacklog(c.Backlogs, c.Logger)
}

// ListBacklogsUseCase returns a new ListBacklogs use case.
func (c *Container) ListBacklogsUseCase() *usecase.ListBacklogs {
	return usecase.NewListBacklogs(c.Backlogs, c.State)
}

// ShowTasksUseCase returns a new ShowTasks use case.
func (c *Container) ShowTasksUseCase() *usecase.ShowTasks {
	return usecase.NewShowTasks(c.Backlogs, c.State)
}

// ShowEventsUseCase returns a new ShowEvents use case.
func (c *Container) ShowEventsUseCase() *usecase.ShowEvents {
	return usecase.NewShowEvents(c.State)
}

// ImportBacklogsUseCase returns a new ImportBacklogs use case.
func (c *Container) ImportBacklogsUseCase() *usecase.ImportBacklogs {
	return usecase.NewImportBacklogs(c.Backlogs, c.Clock, c.Logger)
}

// ExportBacklogsUseCase returns a new ExportBacklogs use case.
func (c *Container) ExportBacklogsUseCase() *usecase.ExportBacklogs {
	return usecase.NewExportBacklogs(c.Backlogs)
}

// ServeUseCase returns a new Serve use case.
func (c *Container) ServeUseCase() *usecase.Serve {
	return usecase.NewServe(c.Starter, c.ConfigLoader, c.Logger, c.Paths.ProjectRoot)
}
