package download

// Package download implements the core batch-fetch pipeline on top of a
// browser capability (see internal/browser). It decodes viewer URLs into
// resource refs, replays the file request through a page with the right
// session context, resolves collision-free destination paths, and runs many
// fetches concurrently under one cancellable run handle that reports progress
// as a finite event sequence.
