package inmemorystore

import (
	"runtime"
	"sync"
	"weak"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/registry"
)

type entry struct {
	state nodestore.State
	def   *registry.Definition
}

// Store is an in-memory nodestore.Store.
type Store struct {
	entries sync.Map // Key: weak.Pointer[dom.Node], Value: entry
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) load(n *dom.Node) (weak.Pointer[dom.Node], entry) {
	key := weak.Make(n)
	v, ok := s.entries.Load(key)
	if !ok {
		return key, entry{}
	}
	return key, v.(entry)
}

func (s *Store) save(n *dom.Node, key weak.Pointer[dom.Node], e entry) {
	if _, loaded := s.entries.Swap(key, e); !loaded {
		runtime.AddCleanup(n, func(k weak.Pointer[dom.Node]) {
			s.entries.Delete(k)
		}, key)
	}
}

// State implements nodestore.Store.
func (s *Store) State(n *dom.Node) nodestore.State {
	if n == nil {
		return nodestore.Unset
	}
	_, e := s.load(n)
	return e.state
}

// SetState implements nodestore.Store.
func (s *Store) SetState(n *dom.Node, state nodestore.State) error {
	key, e := s.load(n)
	if e.state == state {
		return nil
	}
	if e.state != nodestore.Unset || state == nodestore.Unset {
		return nodestore.ErrTerminal
	}
	e.state = state
	s.save(n, key, e)
	return nil
}

// Bind implements nodestore.Store.
func (s *Store) Bind(n *dom.Node, def *registry.Definition) {
	key, e := s.load(n)
	e.def = def
	s.save(n, key, e)
}

// Definition implements nodestore.Store.
func (s *Store) Definition(n *dom.Node) (*registry.Definition, bool) {
	if n == nil {
		return nil, false
	}
	_, e := s.load(n)
	return e.def, e.def != nil
}

// Counts implements nodestore.Store.
func (s *Store) Counts() map[nodestore.State]int {
	out := make(map[nodestore.State]int)
	s.entries.Range(func(k, v any) bool {
		if k.(weak.Pointer[dom.Node]).Value() != nil {
			out[v.(entry).state]++
		}
		return true
	})
	return out
}
