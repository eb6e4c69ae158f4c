package watcher

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// WatchCoordinator routes debounced fixture file changes to a ChangeHandler.
type WatchCoordinator struct {
	files   FileWatcher
	handler ChangeHandler
	log     *slog.Logger
}

// NewWatchCoordinator creates a new watch coordinator. A nil logger discards
// output.
func NewWatchCoordinator(files FileWatcher, handler ChangeHandler, log *slog.Logger) *WatchCoordinator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WatchCoordinator{
		files:   files,
		handler: handler,
		log:     log,
	}
}

// Start begins routing changes to the handler.
// Blocks until context is cancelled.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	filesErr := make(chan error, 1)

	go func() {
		if err := c.files.Start(ctx, func(files []string) { c.handleFileChange(ctx, files) }); err != nil {
			filesErr <- err
		}
	}()

	select {
	case err := <-filesErr:
		c.cleanup()
		return err
	case <-ctx.Done():
		c.cleanup()
		return ctx.Err()
	}
}

// cleanup stops the file watcher.
func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		c.log.Warn("file watcher stop failed", "error", err)
	}
}

// handleFileChange runs the handler for one batch. Handler errors are
// logged and watching continues.
func (c *WatchCoordinator) handleFileChange(ctx context.Context, files []string) {
	if len(files) == 0 {
		return
	}

	c.log.Info("fixture files changed", "count", len(files), "files", files)

	start := time.Now()
	if err := c.handler.HandleChange(ctx, files); err != nil {
		c.log.Error("re-run failed", "error", err)
		return
	}

	c.log.Info("re-run finished", "duration", time.Since(start))
}
