package download

import "context"

// Batcher defines the interface front ends use to start batch runs.
type Batcher interface {
	// Run starts a batch download of the given viewer URLs into directory,
	// with at most maxParallel fetches in flight. It fails only when the
	// destination directory is unusable; per-URL problems surface as task
	// outcomes on the returned handle.
	Run(ctx context.Context, urls []string, directory string, maxParallel int) (*Run, error)
}
