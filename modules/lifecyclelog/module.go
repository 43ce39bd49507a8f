package lifecyclelog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/kinds"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Kind is the manifest kind name of this module.
const Kind = "lifecycle_log"

// Module implements the kinds.Module interface for this package.
type Module struct{}

// Component logs every lifecycle reaction it receives.
type Component struct {
	name     string
	observed []string
	level    slog.Level
}

// New builds a component from a manifest entry. The "level" setting picks the
// log level (debug, info, warn, error; default info).
func New(spec kinds.Spec) (registry.Constructor, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(spec.Setting("level", "info")))); err != nil {
		return nil, fmt.Errorf("invalid level setting: %w", err)
	}
	return &Component{name: spec.Name, observed: spec.ObservedAttributes, level: level}, nil
}

func (c *Component) log(ctx context.Context, msg string, n *dom.Node, args ...any) {
	args = append([]any{"component", c.name, "node", n.ID()}, args...)
	ctxlog.FromContext(ctx).Log(ctx, c.level, msg, args...)
}

// Construct implements registry.Constructor.
func (c *Component) Construct(b registry.Builder) (*dom.Node, error) {
	n, err := b.Element()
	if err != nil {
		return nil, err
	}
	c.log(b.Context(), "Component constructed.", n, "type", n.Type())
	return n, nil
}

// ObservedAttributes implements registry.AttributeObserver.
func (c *Component) ObservedAttributes() []string { return c.observed }

// Connected implements registry.ConnectedCallback.
func (c *Component) Connected(ctx context.Context, n *dom.Node) error {
	c.log(ctx, "Component connected.", n)
	return nil
}

// Disconnected implements registry.DisconnectedCallback.
func (c *Component) Disconnected(ctx context.Context, n *dom.Node) error {
	c.log(ctx, "Component disconnected.", n)
	return nil
}

// Adopted implements registry.AdoptedCallback.
func (c *Component) Adopted(ctx context.Context, n *dom.Node, _, _ *dom.Document) error {
	c.log(ctx, "Component adopted.", n)
	return nil
}

// AttributeChanged implements registry.AttributeChangedCallback.
func (c *Component) AttributeChanged(ctx context.Context, n *dom.Node, change registry.AttributeChange) error {
	c.log(ctx, "Component attribute changed.", n,
		"attribute", change.Name,
		"old", change.OldValue.String(),
		"new", change.NewValue.String(),
	)
	return nil
}

// Register registers the kind.
func (m *Module) Register(r *kinds.Registry) {
	r.Register(Kind, New)
}
