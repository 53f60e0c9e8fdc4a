package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Benny93/adleman-go/internal/config"
	"github.com/Benny93/adleman-go/internal/graph"
)

// DefaultDebounce is how long the watcher waits after the last change before
// re-running.
const DefaultDebounce = 2 * time.Second

// ResultHandler receives the outcome of every run started by WatchGraph.
type ResultHandler func(result *Result, err error)

// Watcher re-runs the pipeline whenever a graph file changes.
type Watcher struct {
	Path     string
	Config   config.Config
	Debounce time.Duration
	Handle   ResultHandler
	Logger   *slog.Logger
	Options  []Option
}

// WatchGraph runs the pipeline on the graph file at path, then again after
// every change to it. Blocks until the context is cancelled.
func WatchGraph(ctx context.Context, path string, cfg config.Config, handle ResultHandler, opts ...Option) error {
	w := &Watcher{
		Path:     path,
		Config:   cfg,
		Debounce: DefaultDebounce,
		Handle:   handle,
		Options:  opts,
	}
	return w.Watch(ctx)
}

// Watch blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	logger := w.Logger
	if logger == nil {
		logger = discardLogger()
	}
	handle := w.Handle
	if handle == nil {
		handle = func(*Result, error) {}
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", w.Path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	w.runOnce(ctx, target, handle)

	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop() // Don't start yet
	defer batchTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Debug("graph changed", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			// Start/restart batch timer
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", slog.Any("error", err))

		case <-batchTimer.C:
			w.runOnce(ctx, target, handle)
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, path string, handle ResultHandler) {
	g, err := graph.LoadFile(path)
	if err != nil {
		handle(nil, err)
		return
	}
	handle(Run(ctx, g, w.Config, w.Options...))
}
