package pipeline

import (
	"fmt"
	"sync"

	"arxiv-similarity-search/internal/models"
)

// Factory constructs the pipeline for a mode. Called at most once per mode
// for successful constructions.
type Factory func(mode models.Mode) (Pipeline, error)

// Registry lazily creates and memoizes one pipeline per mode for the process
// lifetime. Construction happens under the lock, so concurrent first requests
// for the same mode observe a single handle.
type Registry struct {
	mu        sync.Mutex
	factory   Factory
	pipelines map[models.Mode]Pipeline
}

func NewRegistry(factory Factory) *Registry {
	return &Registry{
		factory:   factory,
		pipelines: make(map[models.Mode]Pipeline),
	}
}

// Get returns the pipeline for mode, constructing it on first use. A failed
// construction is not cached; the next caller retries. Handles for different
// modes are independent: one mode failing to construct does not affect the
// other.
func (r *Registry) Get(mode models.Mode) (Pipeline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pipelines[mode]; ok {
		return p, nil
	}

	p, err := r.factory(mode)
	if err != nil {
		return nil, fmt.Errorf("constructing %s pipeline: %w", mode, err)
	}

	r.pipelines[mode] = p
	return p, nil
}
