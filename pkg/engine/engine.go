// Package engine holds the document-processing backends a worker can
// dispatch a job to.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gouravtechskillsnxmx/GPU-Vision-AI/pkg/jobs"
)

// Engine processes one input document and produces a JSON result.
type Engine interface {
	Name() jobs.Type
	Process(ctx context.Context, inputURI string) (json.RawMessage, error)
}

// Registry maps job types to their engines.
type Registry struct {
	engines map[jobs.Type]Engine
}

func NewRegistry(engines ...Engine) *Registry {
	r := &Registry{engines: make(map[jobs.Type]Engine, len(engines))}
	for _, e := range engines {
		r.engines[e.Name()] = e
	}
	return r
}

// Lookup returns the engine for a job type.
func (r *Registry) Lookup(t jobs.Type) (Engine, error) {
	e, ok := r.engines[t]
	if !ok {
		return nil, fmt.Errorf("unknown job_type %q", t)
	}
	return e, nil
}
