package inspect

import (
	"sync"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/engine"
	"github.com/specialistvlad/componentry/internal/registry"
)

// ComponentView describes one registered definition.
type ComponentView struct {
	Name               string   `json:"name"`
	BaseType           string   `json:"base_type"`
	Autonomous         bool     `json:"autonomous"`
	ObservedAttributes []string `json:"observed_attributes"`
	Callbacks          []string `json:"callbacks"`
}

// NodeView describes one node of the document.
type NodeView struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Connected  bool       `json:"connected"`
	State      string     `json:"state"`
	Component  string     `json:"component,omitempty"`
	Attributes []dom.Attr `json:"attributes"`
	Children   []string   `json:"children"`
}

// Source is what the API reads from.
type Source interface {
	Components() []ComponentView
	Node(id string) (NodeView, bool)
	States() map[string]int
}

// EngineSource reads an engine. Every read holds mu, which the goroutine
// driving the engine must hold while it mutates the document or settles.
type EngineSource struct {
	eng *engine.Engine
	mu  sync.Locker
}

// NewEngineSource creates a Source over eng guarded by mu.
func NewEngineSource(eng *engine.Engine, mu sync.Locker) *EngineSource {
	return &EngineSource{eng: eng, mu: mu}
}

// Components implements Source.
func (s *EngineSource) Components() []ComponentView {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := s.eng.Definitions()
	out := make([]ComponentView, 0, len(defs))
	for _, d := range defs {
		out = append(out, componentView(d))
	}
	return out
}

// Node implements Source.
func (s *EngineSource) Node(id string) (NodeView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.eng.Document().NodeByID(id)
	if !ok {
		return NodeView{}, false
	}
	v := NodeView{
		ID:         n.ID(),
		Type:       n.Type(),
		Connected:  n.IsConnected(),
		State:      s.eng.State(n).String(),
		Attributes: n.Attributes(),
		Children:   []string{},
	}
	if v.Attributes == nil {
		v.Attributes = []dom.Attr{}
	}
	if def, ok := s.eng.DefinitionFor(n); ok {
		v.Component = def.Name
	}
	for _, c := range n.Children() {
		v.Children = append(v.Children, c.ID())
	}
	return v, true
}

// States implements Source.
func (s *EngineSource) States() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int)
	for state, n := range s.eng.Counts() {
		out[state.String()] = n
	}
	return out
}

func componentView(d *registry.Definition) ComponentView {
	v := ComponentView{
		Name:               d.Name,
		BaseType:           d.BaseType,
		Autonomous:         d.Autonomous(),
		ObservedAttributes: d.ObservedAttributes,
		Callbacks:          []string{},
	}
	if v.ObservedAttributes == nil {
		v.ObservedAttributes = []string{}
	}
	if d.Callbacks.Connected != nil {
		v.Callbacks = append(v.Callbacks, "connected")
	}
	if d.Callbacks.Disconnected != nil {
		v.Callbacks = append(v.Callbacks, "disconnected")
	}
	if d.Callbacks.Adopted != nil {
		v.Callbacks = append(v.Callbacks, "adopted")
	}
	if d.Callbacks.AttributeChanged != nil {
		v.Callbacks = append(v.Callbacks, "attribute_changed")
	}
	return v
}
