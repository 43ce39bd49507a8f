package registry

import (
	"context"
	"slices"
	"strings"

	"github.com/specialistvlad/componentry/internal/dom"
)

// Builder is the engine-owned construction context handed to a constructor.
// Element is the shared base capability: it returns the node being upgraded,
// or a fresh node when nothing is pending.
type Builder interface {
	Context() context.Context
	Definition() *Definition
	Element() (*dom.Node, error)
}

// Constructor is the application's construction chain for one component. Its
// dynamic value is the component's identity and must be comparable (pointer
// receivers are the usual choice). Its method set is the behavior surface:
// implementing any of the callback interfaces below opts into that reaction.
type Constructor interface {
	Construct(b Builder) (*dom.Node, error)
}

// ConnectedCallback runs after the node is inserted into the document.
type ConnectedCallback interface {
	Connected(ctx context.Context, n *dom.Node) error
}

// DisconnectedCallback runs after the node is removed from the document.
type DisconnectedCallback interface {
	Disconnected(ctx context.Context, n *dom.Node) error
}

// AdoptedCallback runs after the node moves to another document.
type AdoptedCallback interface {
	Adopted(ctx context.Context, n *dom.Node, from, to *dom.Document) error
}

// AttributeChangedCallback runs after an observed attribute changes.
type AttributeChangedCallback interface {
	AttributeChanged(ctx context.Context, n *dom.Node, change AttributeChange) error
}

// AttributeObserver is the static declaration of which attributes an
// AttributeChangedCallback wants to hear about.
type AttributeObserver interface {
	ObservedAttributes() []string
}

// AttributeChange is the argument of an attribute-changed reaction.
type AttributeChange struct {
	Name      string
	OldValue  dom.NullString
	NewValue  dom.NullString
	Namespace string
}

// Callbacks holds the lifecycle capabilities found on a constructor. A nil
// field means the capability is absent.
type Callbacks struct {
	Connected        ConnectedCallback
	Disconnected     DisconnectedCallback
	Adopted          AdoptedCallback
	AttributeChanged AttributeChangedCallback
}

// Options are the registration options.
type Options struct {
	// Extends names the primitive base type of a customized built-in.
	Extends string
}

// Definition is a registered component. It is immutable once published.
type Definition struct {
	Name               string
	BaseType           string
	Constructor        Constructor
	ObservedAttributes []string
	Callbacks          Callbacks
}

// Autonomous reports whether the component is its own node type rather than
// a customized primitive.
func (d *Definition) Autonomous() bool { return d.BaseType == d.Name }

// Observes reports whether name is one of the observed attributes.
func (d *Definition) Observes(name string) bool {
	return slices.Contains(d.ObservedAttributes, name)
}

// Designator is the value a matching node's designator attribute must carry,
// empty for autonomous components.
func (d *Definition) Designator() string {
	if d.Autonomous() {
		return ""
	}
	return d.Name
}

func extractCallbacks(ctor Constructor) Callbacks {
	var cb Callbacks
	if c, ok := ctor.(ConnectedCallback); ok {
		cb.Connected = c
	}
	if c, ok := ctor.(DisconnectedCallback); ok {
		cb.Disconnected = c
	}
	if c, ok := ctor.(AdoptedCallback); ok {
		cb.Adopted = c
	}
	if c, ok := ctor.(AttributeChangedCallback); ok {
		cb.AttributeChanged = c
	}
	return cb
}

func extractObservedAttributes(ctor Constructor, cb Callbacks) []string {
	if cb.AttributeChanged == nil {
		return nil
	}
	obs, ok := ctor.(AttributeObserver)
	if !ok {
		return nil
	}
	var out []string
	for _, name := range obs.ObservedAttributes() {
		// Attribute names are case-insensitive in the tree.
		name = strings.ToLower(name)
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
