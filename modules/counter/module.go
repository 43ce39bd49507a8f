package counter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Kind is the manifest kind name of this module.
const Kind = "counter"

// DefaultAttribute holds the reaction count when no "attribute" setting is given.
const DefaultAttribute = "data-reactions"

// Module implements the kinds.Module interface for this package.
type Module struct{}

// Component counts the lifecycle reactions each node receives and keeps the
// count in an attribute of the node.
type Component struct {
	observed  []string
	attribute string
}

// New builds a component from a manifest entry.
func New(spec kinds.Spec) (registry.Constructor, error) {
	attr := strings.ToLower(spec.Setting("attribute", DefaultAttribute))
	if attr == "" {
		return nil, fmt.Errorf("attribute setting must not be empty")
	}
	for _, name := range spec.ObservedAttributes {
		if strings.ToLower(name) == attr {
			return nil, fmt.Errorf("cannot observe the counter attribute '%s'", attr)
		}
	}
	return &Component{observed: spec.ObservedAttributes, attribute: attr}, nil
}

// Count returns the number of reactions n received so far.
func (c *Component) Count(n *dom.Node) int {
	v, ok := n.Attribute(c.attribute)
	if !ok {
		return 0
	}
	count, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return count
}

func (c *Component) bump(n *dom.Node) {
	n.SetAttribute(c.attribute, strconv.Itoa(c.Count(n)+1))
}

// Construct implements registry.Constructor.
func (c *Component) Construct(b registry.Builder) (*dom.Node, error) {
	return b.Element()
}

// ObservedAttributes implements registry.AttributeObserver.
func (c *Component) ObservedAttributes() []string { return c.observed }

// Connected implements registry.ConnectedCallback.
func (c *Component) Connected(_ context.Context, n *dom.Node) error {
	c.bump(n)
	return nil
}

// Disconnected implements registry.DisconnectedCallback.
func (c *Component) Disconnected(_ context.Context, n *dom.Node) error {
	c.bump(n)
	return nil
}

// AttributeChanged implements registry.AttributeChangedCallback.
func (c *Component) AttributeChanged(_ context.Context, n *dom.Node, _ registry.AttributeChange) error {
	c.bump(n)
	return nil
}

// Register registers the kind.
func (m *Module) Register(r *kinds.Registry) {
	r.Register(Kind, New)
}
