package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
)

// MemoryBackend is an in-memory implementation of Backend for testing and
// for the MCP server when no store directory is configured.
type MemoryBackend struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{runs: make(map[string]*Run)}
}

// Initialize implements Backend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		m.runs = make(map[string]*Run)
	}
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = nil
	return nil
}

// SaveRun implements Backend.
func (m *MemoryBackend) SaveRun(ctx context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs == nil {
		return ErrNotInitialized
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

// GetRun implements Backend.
func (m *MemoryBackend) GetRun(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return cloneRun(r), nil
}

// ListRuns implements Backend.
func (m *MemoryBackend) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, cloneRun(r))
	}
	// IDs are time-ordered, so descending ID is newest first.
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// DeleteRun implements Backend.
func (m *MemoryBackend) DeleteRun(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	delete(m.runs, id)
	return nil
}

// cloneRun copies r so the stored run shares no slices or maps with callers.
func cloneRun(r *Run) *Run {
	cp := *r
	cp.Nodes = slices.Clone(r.Nodes)
	cp.Edges = slices.Clone(r.Edges)
	cp.Strands = maps.Clone(r.Strands)
	cp.Candidates = clonePaths(r.Candidates)
	cp.Paths = clonePaths(r.Paths)
	return &cp
}

func clonePaths(paths []Path) []Path {
	if paths == nil {
		return nil
	}
	out := make([]Path, len(paths))
	for i, p := range paths {
		p.Fragments = slices.Clone(p.Fragments)
		out[i] = p
	}
	return out
}
