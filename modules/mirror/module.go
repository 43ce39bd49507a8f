package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Kind is the manifest kind name of this module.
const Kind = "mirror"

const (
	// DefaultPrefix is prepended to mirrored attribute names.
	DefaultPrefix = "data-mirror-"
	// UpgradedAttribute is set while the node is constructed.
	UpgradedAttribute = "data-upgraded"
	// ConnectedAttribute tracks whether the node is in the document.
	ConnectedAttribute = "data-connected"
)

// Module implements the kinds.Module interface for this package.
type Module struct{}

// Component copies its observed attributes onto prefixed attributes and marks
// its own lifecycle on the node.
type Component struct {
	observed []string
	prefix   string
}

// New builds a component from a manifest entry. The "prefix" setting changes
// the prefix of mirrored attributes.
func New(spec kinds.Spec) (registry.Constructor, error) {
	prefix := strings.ToLower(spec.Setting("prefix", DefaultPrefix))
	if prefix == "" {
		return nil, fmt.Errorf("prefix setting must not be empty")
	}
	for _, name := range spec.ObservedAttributes {
		name = strings.ToLower(name)
		// Observing its own output would feed back forever.
		if strings.HasPrefix(name, prefix) || name == UpgradedAttribute || name == ConnectedAttribute {
			return nil, fmt.Errorf("cannot observe attribute '%s' written by the mirror itself", name)
		}
	}
	return &Component{observed: spec.ObservedAttributes, prefix: prefix}, nil
}

// Construct implements registry.Constructor.
func (c *Component) Construct(b registry.Builder) (*dom.Node, error) {
	n, err := b.Element()
	if err != nil {
		return nil, err
	}
	n.SetAttribute(UpgradedAttribute, "true")
	return n, nil
}

// ObservedAttributes implements registry.AttributeObserver.
func (c *Component) ObservedAttributes() []string { return c.observed }

// Connected implements registry.ConnectedCallback.
func (c *Component) Connected(_ context.Context, n *dom.Node) error {
	n.SetAttribute(ConnectedAttribute, "true")
	return nil
}

// Disconnected implements registry.DisconnectedCallback.
func (c *Component) Disconnected(_ context.Context, n *dom.Node) error {
	n.SetAttribute(ConnectedAttribute, "false")
	return nil
}

// AttributeChanged implements registry.AttributeChangedCallback.
func (c *Component) AttributeChanged(_ context.Context, n *dom.Node, change registry.AttributeChange) error {
	target := c.prefix + change.Name
	if change.NewValue.Valid {
		n.SetAttribute(target, change.NewValue.Value)
	} else {
		n.RemoveAttribute(target)
	}
	return nil
}

// Register registers the kind.
func (m *Module) Register(r *kinds.Registry) {
	r.Register(Kind, New)
}
