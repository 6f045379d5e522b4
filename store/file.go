package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowstack/flowstack/engine"
)

// FileStore loads workflow documents from a directory, one JSON file
// per stack named "<stackID>.json". Files are re-read on every lookup
// so edits take effect without a restart.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ engine.WorkflowStore = (*FileStore)(nil)

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

// GetWorkflow loads and validates the workflow document for the stack.
// A missing file maps to ErrWorkflowNotFound.
func (s *FileStore) GetWorkflow(_ context.Context, stackID string) (*engine.StoredWorkflow, error) {
	filename := stackID + ".json"
	if filepath.Base(filename) != filename || strings.Contains(stackID, "..") {
		return nil, fmt.Errorf("invalid stack ID %q", stackID)
	}

	path := filepath.Join(s.dir, filename)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, engine.ErrWorkflowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	workflow, err := DecodeWorkflow(data, stackID)
	if err != nil {
		return nil, fmt.Errorf("workflow file %s: %w", filename, err)
	}
	s.logger.Debug("workflow loaded",
		slog.String("stack_id", stackID),
		slog.Int("nodes", workflow.Graph.Len()))
	return workflow, nil
}
