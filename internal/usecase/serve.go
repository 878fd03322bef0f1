package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Serve is the "stay alive" terminal state: start the configured child
// process and wait until the context is cancelled, then best-effort
// terminate the child's process group before returning.
type Serve struct {
	starter      domain.ChildStarter
	configLoader domain.ConfigLoader
	logger       domain.Logger
	workDir      string
}

// NewServe creates a new Serve use case.
func NewServe(starter domain.ChildStarter, configLoader domain.ConfigLoader, logger domain.Logger, workDir string) *Serve {
	return &Serve{
		starter:      starter,
		configLoader: configLoader,
		logger:       logger,
		workDir:      workDir,
	}
}

// Execute starts the child and blocks until ctx is cancelled.
func (uc *Serve) Execute(ctx context.Context) error {
	config, err := uc.configLoader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if config.Serve.Command == "" {
		return fmt.Errorf("no serve command configured")
	}

	child, err := uc.starter.Start(uc.workDir, config.Serve.Command)
	if err != nil {
		return fmt.Errorf("start serve command: %w", err)
	}
	uc.logger.Info("serving", "command", config.Serve.Command)

	<-ctx.Done()

	if err := child.Terminate(); err != nil {
		uc.logger.Warn("child termination", "error", err.Error())
	}
	uc.logger.Info("serve stopped")
	return nil
}
