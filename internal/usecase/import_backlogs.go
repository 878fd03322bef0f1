package usecase

import (
	"context"
	"fmt"

	"github.com/tsubasa-dev/gofer/internal/domain"
	"gopkg.in/yaml.v3"
)

// ImportBacklogsInput contains the parameters for importing backlogs
// from YAML.
type ImportBacklogsInput struct {
	// Content is the YAML document (the export format).
	Content string
	// Replace discards the existing backlog set instead of appending.
	Replace bool
}

// ImportBacklogsOutput reports what was imported.
type ImportBacklogsOutput struct {
	Imported int
}

// ImportBacklogs reads a YAML backlog document into the store. Imported
// backlogs are re-assigned ids from the store's own sequence; dependency
// references inside the document are remapped accordingly.
type ImportBacklogs struct {
	backlogs domain.BacklogRepository
	clock    domain.Clock
	logger   domain.Logger
}

// NewImportBacklogs creates a new ImportBacklogs use case.
func NewImportBacklogs(backlogs domain.BacklogRepository, clock domain.Clock, logger domain.Logger) *ImportBacklogs {
	return &ImportBacklogs{backlogs: backlogs, clock: clock, logger: logger}
}

// Execute imports the document into the backlog store.
func (uc *ImportBacklogs) Execute(_ context.Context, in ImportBacklogsInput) (*ImportBacklogsOutput, error) {
	var doc domain.BacklogFile
	if err := yaml.Unmarshal([]byte(in.Content), &doc); err != nil {
		return nil, fmt.Errorf("parse backlog document: %w", err)
	}
	if len(doc.Backlogs) == 0 {
		return nil, domain.ErrNoBacklogs
	}

	now := uc.clock.Now()
	err := uc.backlogs.Update(func(f *domain.BacklogFile) error {
		// Ids keep counting from the historical maximum so they are
		// never reused, even across a replace.
		nextID := f.NextID()
		if in.Replace {
			f.Backlogs = nil
		}
		if doc.ProjectSummary != "" {
			f.ProjectSummary = doc.ProjectSummary
		}
		if len(doc.RuntimeRequirements) > 0 {
			f.RuntimeRequirements = doc.RuntimeRequirements
		}
		if len(doc.TechnicalConsiderations) > 0 {
			f.TechnicalConsiderations = doc.TechnicalConsiderations
		}

		idMap := make(map[int]int, len(doc.Backlogs))
		for i, b := range doc.Backlogs {
			if b.Title == "" {
				return fmt.Errorf("backlog %d: %w", i+1, domain.ErrEmptyTitle)
			}
			oldID := b.ID
			b.ID = nextID
			nextID++
			idMap[oldID] = b.ID

			if !b.Status.IsValid() {
				b.Status = domain.BacklogPending
			}
			if b.CreatedAt.IsZero() {
				b.CreatedAt = now
			}
		}
		for _, b := range doc.Backlogs {
			var deps []int
			for _, dep := range b.Dependencies {
				if mapped, ok := idMap[dep]; ok {
					deps = append(deps, mapped)
				} else if f.Get(dep) != nil {
					deps = append(deps, dep)
				}
			}
			b.Dependencies = deps
			f.Backlogs = append(f.Backlogs, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("backlogs imported", "count", len(doc.Backlogs), "replace", in.Replace)
	return &ImportBacklogsOutput{Imported: len(doc.Backlogs)}, nil
}
