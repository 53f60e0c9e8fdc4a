package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Key prefixes for different data types
const (
	prefixRun = "run:" // run records, keyed by time-ordered ID
)

// BadgerBackend is a BadgerDB-backed run store.
type BadgerBackend struct {
	db          *badger.DB
	initialized bool
	readOnly    bool
	mu          sync.RWMutex
	runCount    int
}

// NewBadgerBackend creates a new BadgerDB backend.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.readOnly = readOnly
	b.runCount = b.countRuns()

	return nil
}

func (b *BadgerBackend) countRuns() int {
	count := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Close releases all resources held by the backend.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// RunCount returns the number of stored runs.
func (b *BadgerBackend) RunCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.runCount
}

// SaveRun stores a run, replacing any run with the same ID.
func (b *BadgerBackend) SaveRun(ctx context.Context, run *Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}
	if run.ID == "" {
		run.ID = NewRunID()
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}

	txn := b.db.NewTransaction(true)
	defer txn.Discard()

	_, err = txn.Get(b.runKey(run.ID))
	isNew := errors.Is(err, badger.ErrKeyNotFound)
	if err != nil && !isNew {
		return fmt.Errorf("checking run: %w", err)
	}

	if err := txn.Set(b.runKey(run.ID), data); err != nil {
		return fmt.Errorf("setting run: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}

	if isNew {
		b.runCount++
	}
	return nil
}

// GetRun returns the run with the given ID.
func (b *BadgerBackend) GetRun(ctx context.Context, id string) (*Run, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	txn := b.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(b.runKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}

	var run Run
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &run)
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling run: %w", err)
	}

	return &run, nil
}

// ListRuns returns up to limit runs, newest first.
func (b *BadgerBackend) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, ErrNotInitialized
	}

	var runs []*Run
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixRun)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last key with the prefix.
		seek := append([]byte(prefixRun), 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var run Run
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &run)
			}); err != nil {
				return fmt.Errorf("unmarshaling run: %w", err)
			}
			runs = append(runs, &run)
			if limit > 0 && len(runs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteRun removes a run.
func (b *BadgerBackend) DeleteRun(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return ErrNotInitialized
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(b.runKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrRunNotFound, id)
			}
			return err
		}
		return txn.Delete(b.runKey(id))
	})
	if err != nil {
		return err
	}
	b.runCount--
	return nil
}

func (b *BadgerBackend) runKey(id string) []byte {
	return []byte(prefixRun + id)
}
