package download

import (
	"os"
	"sync"

	"github.com/etdget/etd-downloader/internal/model"
)

// Resolver maps resource refs to collision-free destination paths within one
// batch run. Claims are taken under a single mutex before any write begins,
// so two concurrent tasks can never race to the same suffix, and pre-existing
// files are never overwritten unless overwrite was requested explicitly.
type Resolver struct {
	directory string
	overwrite bool

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewResolver creates a resolver for one run's destination directory
func NewResolver(directory string, overwrite bool) *Resolver {
	return &Resolver{
		directory: directory,
		overwrite: overwrite,
		claimed:   make(map[string]struct{}),
	}
}

// Resolve claims and returns the destination path for ref. The base filename
// is deterministic (DBCODE_RECORDID.pdf); when it is taken, numeric suffixes
// are tried in order until a path is free both on disk and among this run's
// claims.
func (r *Resolver) Resolve(ref *model.ResourceRef) (model.DestinationPath, error) {
	base := model.DestinationPath{Directory: r.directory, Filename: ref.SuggestedFilename()}

	r.mu.Lock()
	defer r.mu.Unlock()

	for n := 0; ; n++ {
		candidate := base
		if n > 0 {
			candidate = base.WithSuffix(n)
		}
		path := candidate.Path()

		if _, taken := r.claimed[path]; taken {
			continue
		}
		// Overwrite only ever applies to the base name; suffixed candidates
		// must be genuinely free.
		if !r.overwrite || n > 0 {
			if _, err := os.Stat(path); err == nil {
				continue
			} else if !os.IsNotExist(err) {
				return model.DestinationPath{}, model.NewFetchError(model.KindWriteFailure,
					"cannot probe %s: %v", path, err)
			}
		}

		r.claimed[path] = struct{}{}
		return candidate, nil
	}
}
