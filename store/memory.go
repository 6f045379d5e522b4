package store

import (
	"context"
	"sync"

	"github.com/flowstack/flowstack/engine"
)

// MemoryStore is an in-memory WorkflowStore, safe for concurrent use.
// It is the storage used by tests and by embedders that manage workflow
// definitions themselves.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]*engine.StoredWorkflow
}

var _ engine.WorkflowStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{workflows: make(map[string]*engine.StoredWorkflow)}
}

// Put registers or replaces the workflow for a stack.
func (s *MemoryStore) Put(stackID string, workflow *engine.StoredWorkflow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[stackID] = workflow
}

// GetWorkflow returns the workflow for the stack, or ErrWorkflowNotFound.
func (s *MemoryStore) GetWorkflow(_ context.Context, stackID string) (*engine.StoredWorkflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workflow, exists := s.workflows[stackID]
	if !exists {
		return nil, engine.ErrWorkflowNotFound
	}
	return workflow, nil
}
