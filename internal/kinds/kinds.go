// Package kinds maps the kind names used in component manifests to the Go
// code that implements them.
//
// A manifest says which component name to define and which kind implements
// it. Every definition needs its own constructor identity, so a kind is a
// factory: each manifest entry gets a fresh constructor built from its spec.
package kinds

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/componentry/internal/registry"
)

// ErrUnknownKind is returned by Build for kinds nothing registered.
var ErrUnknownKind = errors.New("unknown component kind")

// Spec is one component entry of a manifest.
type Spec struct {
	Name               string
	Kind               string
	Extends            string
	ObservedAttributes []string
	Settings           map[string]string
}

// Setting returns the named setting or def when it is absent.
func (s Spec) Setting(name, def string) string {
	if v, ok := s.Settings[name]; ok {
		return v
	}
	return def
}

// Factory builds a constructor for one manifest entry.
type Factory func(spec Spec) (registry.Constructor, error)

// Module is implemented by every package that provides kinds.
type Module interface {
	Register(r *Registry)
}

// Registry holds the known kinds.
type Registry struct {
	factories map[string]Factory
}

// New creates an empty kind registry.
func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a kind. Registering a kind name twice is a programmer error.
func (r *Registry) Register(kind string, f Factory) {
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("component kind '%s' already registered", kind))
	}
	slog.Debug("Registering component kind.", "kind", kind)
	r.factories[kind] = f
}

// Build creates the constructor for spec.
func (r *Registry) Build(spec Spec) (registry.Constructor, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("component '%s': %w '%s'", spec.Name, ErrUnknownKind, spec.Kind)
	}
	ctor, err := f(spec)
	if err != nil {
		return nil, fmt.Errorf("component '%s' of kind '%s': %w", spec.Name, spec.Kind, err)
	}
	return ctor, nil
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
