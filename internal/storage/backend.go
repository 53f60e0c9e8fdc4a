// Package storage persists solver runs.
//
// It defines the Backend interface that all implementations satisfy, along
// with the run record types shared by the CLI and the MCP server.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrNotInitialized is returned when a backend is used before Initialize.
var ErrNotInitialized = errors.New("storage backend not initialized")

// Path is a stored candidate or path result.
type Path struct {
	Description    string   `json:"description"`
	Sequence       string   `json:"sequence"`
	AmpliconLength int      `json:"amplicon_length"`
	Fragments      []string `json:"fragments,omitempty"`
}

// Run is the persisted record of one pipeline run.
type Run struct {
	// ID is a time-ordered UUID assigned by NewRunID.
	ID string `json:"id"`

	// CreatedAt is when the run finished.
	CreatedAt time.Time `json:"created_at"`

	// Source names where the graph came from (a file path, "mcp", ...).
	Source string `json:"source,omitempty"`

	Start string `json:"start"`
	End   string `json:"end"`
	Seed  uint64 `json:"seed"`

	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`

	// Strands maps node names to their generated sequences.
	Strands map[string]string `json:"strands"`

	// Products is the number of assembly products.
	Products int `json:"products"`

	Candidates []Path `json:"candidates"`
	Paths      []Path `json:"paths"`

	Duration time.Duration `json:"duration"`
}

// Found reports whether the run produced at least one path.
func (r *Run) Found() bool {
	return len(r.Paths) > 0
}

// NewRunID returns a fresh time-ordered run ID.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Backend defines the interface for run stores.
//
// Implementations must be thread-safe and support concurrent access.
type Backend interface {
	// Initialize opens or creates the store at the given path.
	// If readOnly is true, the store is opened in read-only mode.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the backend.
	Close() error

	// SaveRun stores a run, assigning an ID when it has none.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun returns the run with the given ID or ErrRunNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first. A limit of zero or
	// less returns every run.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// DeleteRun removes a run. Deleting a missing run returns ErrRunNotFound.
	DeleteRun(ctx context.Context, id string) error
}
