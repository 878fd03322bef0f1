package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
	"gopkg.in/yaml.v3"
)

// ExportBacklogs renders the backlog store as a YAML document suitable
// for editing and re-import.
type ExportBacklogs struct {
	backlogs domain.BacklogRepository
}

// NewExportBacklogs creates a new ExportBacklogs use case.
func NewExportBacklogs(backlogs domain.BacklogRepository) *ExportBacklogs {
	return &ExportBacklogs{backlogs: backlogs}
}

// Execute returns the store contents as YAML.
func (uc *ExportBacklogs) Execute(_ context.Context) (string, error) {
	file, err := uc.backlogs.Load()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(file)
	if err != nil {
		return "", fmt.Errorf("marshal backlog document: %w", err)
	}
	return string(data), nil
}
