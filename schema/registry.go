package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownModel is returned when a model name is not registered.
var ErrUnknownModel = errors.New("schema: unknown model")

// Registry resolves models by name. Refs between models are resolved through it.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry creates a registry holding the supplied models.
func NewRegistry(models ...*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a model. Names must be unique.
func (r *Registry) Register(m *Model) error {
	if m == nil {
		return errors.New("schema: cannot register a nil model")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.models == nil {
		r.models = make(map[string]*Model)
	}
	if _, exists := r.models[m.Name()]; exists {
		return fmt.Errorf("schema: model %q already registered", m.Name())
	}
	r.models[m.Name()] = m
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns every registered model sorted by name.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// CheckRefs verifies that every Ref field points at a registered model.
func (r *Registry) CheckRefs() error {
	var errs []error
	for _, m := range r.Models() {
		for _, f := range m.fields {
			if !f.IsRef() {
				continue
			}
			if _, err := r.Lookup(f.Ref); err != nil {
				errs = append(errs, fmt.Errorf("model %s field %s: %w", m.Name(), f.Path, err))
			}
		}
	}
	return errors.Join(errs...)
}
