// Package workspace applies agent-declared file changes to the project
// tree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Writer implements domain.WorkspaceWriter rooted at the project
// directory. Paths are joined to the root with simple cleaning; there is
// no further path-escape validation, matching the documented limitation
// of the agent contract.
type Writer struct {
	root string
}

// NewWriter creates a Writer for the given project root.
func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

// Ensure Writer implements domain.WorkspaceWriter.
var _ domain.WorkspaceWriter = (*Writer)(nil)

// WriteFiles writes each change, creating parent directories as needed,
// and returns the relative paths written in input order. An unwritable
// target aborts the batch; files already written stay written
// (resumability over rollback).
func (w *Writer) WriteFiles(files []domain.FileChange) ([]string, error) {
	var written []string
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		rel := filepath.Clean(f.Path)
		target := filepath.Join(w.root, rel)

		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return written, fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(f.Content), 0o640); err != nil { //nolint:gosec // project files stay group-readable
			return written, fmt.Errorf("write %s: %w", rel, err)
		}
		written = append(written, rel)
	}
	return written, nil
}
