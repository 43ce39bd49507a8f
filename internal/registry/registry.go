package registry

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
)

// Tree is the part of the host tree the registry scans on registration.
type Tree interface {
	Query(typeName, designator string) []*dom.Node
}

// Upgrader upgrades one node to a definition.
type Upgrader interface {
	Upgrade(ctx context.Context, n *dom.Node, def *Definition) error
}

// ErrorObserver receives per-node failures that have no other caller to go to.
type ErrorObserver func(ctx context.Context, n *dom.Node, err error)

// closed is returned by WhenDefined for names that are already defined.
var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Registry holds the component definitions of one engine instance.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Definition
	ordered  []*Definition
	waiting  map[string]chan struct{}
	tree     Tree
	upgrader Upgrader
	onError  ErrorObserver
}

// New creates an empty registry over tree.
func New(tree Tree) *Registry {
	return &Registry{
		byName:  make(map[string]*Definition),
		waiting: make(map[string]chan struct{}),
		tree:    tree,
	}
}

// SetUpgrader installs the engine that upgrades nodes found by the
// registration scan.
func (r *Registry) SetUpgrader(u Upgrader) { r.upgrader = u }

// SetErrorObserver installs the hook that is told about every node the
// registration scan failed to upgrade.
func (r *Registry) SetErrorObserver(fn ErrorObserver) { r.onError = fn }

// Register validates and publishes a definition, upgrades the matching nodes
// already in the tree, and wakes WhenDefined waiters.
//
// Validation and conflict errors leave the registry unchanged. Once the
// definition is published Register never unpublishes it: failures of the
// upgrade scan are returned joined, after every candidate was tried and the
// waiters were woken. Such an error matches ErrConstruction.
func (r *Registry) Register(ctx context.Context, name string, ctor Constructor, opts Options) error {
	logger := ctxlog.FromContext(ctx)
	name = strings.ToLower(name)

	if err := validateConstructor(name, ctor); err != nil {
		return err
	}
	if !IsValidName(name) {
		return &ValidationError{Name: name, Reason: "not a valid component name"}
	}

	baseType := name
	if opts.Extends != "" {
		ext := strings.ToLower(opts.Extends)
		if IsValidName(ext) || !IsPrimitiveName(ext) {
			return &ValidationError{Name: name, Reason: "must extend a primitive type, got " + ext}
		}
		baseType = ext
	}

	cb := extractCallbacks(ctor)
	def := &Definition{
		Name:               name,
		BaseType:           baseType,
		Constructor:        ctor,
		ObservedAttributes: extractObservedAttributes(ctor, cb),
		Callbacks:          cb,
	}

	if err := r.publish(def); err != nil {
		return err
	}
	logger.Debug("Registered component definition.", "component", name, "base_type", baseType, "observed", def.ObservedAttributes)

	var errs []error
	if r.tree != nil && r.upgrader != nil {
		candidates := r.tree.Query(baseType, def.Designator())
		logger.Debug("Upgrading existing nodes.", "component", name, "candidates", len(candidates))
		for _, n := range candidates {
			if err := r.upgrader.Upgrade(ctx, n, def); err != nil {
				logger.Debug("Existing node failed to upgrade.", "component", name, "node", n.ID(), "error", err)
				if r.onError != nil {
					r.onError(ctx, n, err)
				}
				errs = append(errs, err)
			}
		}
	}

	r.mu.Lock()
	ch, ok := r.waiting[name]
	delete(r.waiting, name)
	r.mu.Unlock()
	if ok {
		close(ch)
	}

	return errors.Join(errs...)
}

func (r *Registry) publish(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[def.Name]; exists {
		return &ConflictError{Name: def.Name, Reason: "name is already defined"}
	}
	for _, d := range r.ordered {
		if d.Constructor == def.Constructor {
			return &ConflictError{Name: def.Name, Reason: "constructor is already registered as " + d.Name}
		}
	}
	r.byName[def.Name] = def
	r.ordered = append(r.ordered, def)
	return nil
}

func validateConstructor(name string, ctor Constructor) error {
	if ctor == nil {
		return &ValidationError{Name: name, Reason: "constructor is nil"}
	}
	v := reflect.ValueOf(ctor)
	if !v.Type().Comparable() {
		return &ValidationError{Name: name, Reason: "constructor type " + v.Type().String() + " is not comparable"}
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface, reflect.Slice:
		if v.IsNil() {
			return &ValidationError{Name: name, Reason: "constructor is a nil " + v.Kind().String()}
		}
	}
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Get returns the constructor registered under name.
func (r *Registry) Get(name string) (Constructor, bool) {
	def, ok := r.Lookup(name)
	if !ok {
		return nil, false
	}
	return def.Constructor, true
}

// LookupByConstructor returns the definition whose constructor is ctor.
func (r *Registry) LookupByConstructor(ctor Constructor) (*Definition, bool) {
	if ctor == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.ordered {
		if d.Constructor == ctor {
			return d, true
		}
	}
	return nil, false
}

// DefinitionOf resolves the definition a node is eligible for: the one named
// by its designator attribute when present, otherwise the one named by its
// type. The definition's base type must match the node's type.
func (r *Registry) DefinitionOf(n *dom.Node) (*Definition, bool) {
	name := n.Type()
	if is, ok := n.Attribute(dom.DesignatorAttribute); ok {
		name = strings.ToLower(is)
	}
	def, ok := r.Lookup(name)
	if !ok || def.BaseType != n.Type() {
		return nil, false
	}
	return def, true
}

// WhenDefined returns a channel that is closed once name is defined. Every
// caller waiting on the same undefined name shares one channel.
func (r *Registry) WhenDefined(name string) (<-chan struct{}, error) {
	if !IsValidName(name) {
		return nil, &ValidationError{Name: name, Reason: "not a valid component name"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return closed, nil
	}
	ch, ok := r.waiting[name]
	if !ok {
		ch = make(chan struct{})
		r.waiting[name] = ch
	}
	return ch, nil
}

// Definitions returns the registered definitions sorted by name.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	out := make([]*Definition, len(r.ordered))
	copy(out, r.ordered)
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
