// Package upgrade turns plain nodes into component instances.
//
// An upgrade runs at most once per node. Reactions for the node's current
// state (one attribute-changed per present attribute, then connected) are
// queued before the construction chain starts, so they run after it in the
// next flush and observe a fully constructed node.
package upgrade

import (
	"context"
	"fmt"

	"github.com/specialistvlad/componentry/internal/construct"
	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/registry"
	"github.com/specialistvlad/componentry/internal/scheduler"
)

// Definitions resolves the definition a node is eligible for.
type Definitions interface {
	DefinitionOf(n *dom.Node) (*registry.Definition, bool)
}

// Engine is the upgrade state machine.
type Engine struct {
	defs    Definitions
	store   nodestore.Store
	coord   *construct.Coordinator
	sched   scheduler.Deferrer
	onError registry.ErrorObserver
}

// New creates an upgrade engine.
func New(defs Definitions, store nodestore.Store, coord *construct.Coordinator, sched scheduler.Deferrer, onError registry.ErrorObserver) *Engine {
	return &Engine{defs: defs, store: store, coord: coord, sched: sched, onError: onError}
}

// Upgrade constructs n as an instance of def. It is a no-op for nodes that are
// already custom or failed. A construction failure marks n failed for good
// and is returned as a *registry.ConstructionError.
func (e *Engine) Upgrade(ctx context.Context, n *dom.Node, def *registry.Definition) error {
	if e.store.State(n) != nodestore.Unset {
		return nil
	}
	logger := ctxlog.FromContext(ctx).With("node", n.ID(), "component", def.Name)

	for _, a := range n.Attributes() {
		e.sched.EnqueueFor(ctx, n, def, scheduler.Reaction{
			Kind: scheduler.AttributeChanged,
			Change: registry.AttributeChange{
				Name:      a.Name,
				NewValue:  dom.Some(a.Value),
				Namespace: a.Namespace,
			},
		})
	}
	if n.IsConnected() {
		e.sched.EnqueueFor(ctx, n, def, scheduler.Reaction{Kind: scheduler.Connected})
	}

	if err := e.coord.Push(def, n); err != nil {
		return e.fail(ctx, n, def, err)
	}
	got, consumed, err := e.construct(ctx, n, def)
	if err != nil {
		return e.fail(ctx, n, def, err)
	}
	if !consumed {
		return e.fail(ctx, n, def, &registry.ConstructionError{
			Name:   def.Name,
			NodeID: n.ID(),
			Reason: "construction chain never reached the base element",
		})
	}
	if got != n {
		return e.fail(ctx, n, def, &registry.ConstructionError{
			Name:   def.Name,
			NodeID: n.ID(),
			Reason: "constructor did not return the node being upgraded",
		})
	}

	if err := e.store.SetState(n, nodestore.Custom); err != nil {
		return e.fail(ctx, n, def, err)
	}
	e.store.Bind(n, def)
	logger.Debug("Node upgraded.")
	return nil
}

// construct runs the construction chain for the entry pushed for n. The entry
// is popped even when the chain panics; a panic becomes a construction error.
func (e *Engine) construct(ctx context.Context, n *dom.Node, def *registry.Definition) (got *dom.Node, consumed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			got, err = nil, &registry.ConstructionError{
				Name:   def.Name,
				NodeID: n.ID(),
				Reason: fmt.Sprintf("construction chain panicked: %v", r),
			}
		}
		consumed = e.coord.Pop(def)
	}()
	got, err = e.coord.Construct(ctx, def.Constructor)
	return got, false, err
}

func (e *Engine) fail(ctx context.Context, n *dom.Node, def *registry.Definition, cause error) error {
	if err := e.store.SetState(n, nodestore.Failed); err != nil {
		ctxlog.FromContext(ctx).Debug("Could not mark node failed.", "node", n.ID(), "error", err)
	}
	ctxlog.FromContext(ctx).Debug("Node upgrade failed.", "node", n.ID(), "component", def.Name, "error", cause)
	if ce, ok := cause.(*registry.ConstructionError); ok && ce.NodeID != "" {
		return ce
	}
	return &registry.ConstructionError{Name: def.Name, NodeID: n.ID(), Reason: "construction failed", Err: cause}
}

// TryUpgrade schedules an upgrade of n if a definition applies to it. It
// reports whether one was scheduled. Failures of the deferred upgrade go to
// the error observer.
func (e *Engine) TryUpgrade(ctx context.Context, n *dom.Node) bool {
	if e.store.State(n) != nodestore.Unset {
		return false
	}
	def, ok := e.defs.DefinitionOf(n)
	if !ok {
		return false
	}
	e.sched.Defer(fmt.Sprintf("upgrade %s", def.Name), n, func(ctx context.Context) error {
		if err := e.Upgrade(ctx, n, def); err != nil {
			if e.onError != nil {
				e.onError(ctx, n, err)
			}
		}
		return nil
	})
	return true
}

// Bound resolves the definition a custom node was bound to when it was
// constructed. It is the scheduler's resolver: reactions never re-derive the
// definition from attributes that may have changed since.
type Bound struct {
	Store nodestore.Store
}

// Resolve implements scheduler.Resolver.
func (b Bound) Resolve(n *dom.Node) (*registry.Definition, bool) {
	if b.Store.State(n) != nodestore.Custom {
		return nil, false
	}
	return b.Store.Definition(n)
}
