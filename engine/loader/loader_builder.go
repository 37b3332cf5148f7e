package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the size of the translation worker pool. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the worker count (minimum 1)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithQueueSize sets how many frames may wait for a worker before submission blocks.
//
// Parameters:
//   - n: the queue capacity (minimum 1)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the queue size to a loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.queueSize = max(n, 1)
	}
}
