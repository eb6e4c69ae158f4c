package watcher

import "context"

// FileWatcher monitors fixture files for changes with debouncing.
type FileWatcher interface {
	// Start begins watching, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error
}

// ChangeHandler reacts to a batch of changed fixture files, typically by
// reloading and re-running them.
type ChangeHandler interface {
	HandleChange(ctx context.Context, files []string) error
}

// ChangeHandlerFunc adapts a function to ChangeHandler.
type ChangeHandlerFunc func(ctx context.Context, files []string) error

// HandleChange calls f.
func (f ChangeHandlerFunc) HandleChange(ctx context.Context, files []string) error {
	return f(ctx, files)
}
