// Package observer turns batches of tree mutations into upgrade attempts and
// lifecycle reactions.
//
// The observer pulls its records from the document when the owner calls Pump,
// the quiescent point of the tree. Each batch is handled synchronously: the
// top-level nodes named in the records are dealt with immediately, while
// their descendants are visited by deferred steps, one per node, on the
// scheduler queue. A node reached more
// than once within a batch is handled once per direction (added, removed).
package observer

import (
	"context"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/registry"
	"github.com/specialistvlad/componentry/internal/scheduler"
)

// Upgrader schedules upgrades of nodes that are not custom yet.
type Upgrader interface {
	TryUpgrade(ctx context.Context, n *dom.Node) bool
}

// States reports the upgrade state of nodes.
type States interface {
	State(n *dom.Node) nodestore.State
}

// Observer is the tree change observer of one document.
type Observer struct {
	states States
	up     Upgrader
	sched  scheduler.Deferrer
	sub    *dom.Subscription
}

// New creates an observer. It does nothing until it is attached.
func New(states States, up Upgrader, sched scheduler.Deferrer) *Observer {
	return &Observer{states: states, up: up, sched: sched}
}

// Attach subscribes the observer to doc. Records accumulate until Pump.
func (o *Observer) Attach(doc *dom.Document) {
	o.Detach()
	o.sub = doc.Observe(nil)
}

// Pump handles the records accumulated since the previous call as one batch
// and reports whether there were any.
func (o *Observer) Pump(ctx context.Context) bool {
	if o.sub == nil {
		return false
	}
	records := o.sub.TakeRecords()
	if len(records) == 0 {
		return false
	}
	o.HandleBatch(ctx, records)
	return true
}

// Detach stops observing.
func (o *Observer) Detach() {
	if o.sub != nil {
		o.sub.Disconnect()
		o.sub = nil
	}
}

// HandleBatch processes one batch of records.
func (o *Observer) HandleBatch(ctx context.Context, records []dom.MutationRecord) {
	ctxlog.FromContext(ctx).Debug("Handling mutation batch.", "records", len(records))
	b := &batch{
		o:       o,
		added:   make(map[*dom.Node]struct{}),
		removed: make(map[*dom.Node]struct{}),
	}
	for _, r := range records {
		switch r.Type {
		case dom.ChildList:
			for _, n := range r.Added {
				b.visitAdded(ctx, n)
			}
			for _, n := range r.Removed {
				b.visitRemoved(ctx, n)
			}
		case dom.Attributes:
			o.attributeChanged(ctx, r)
		}
	}
}

func (o *Observer) attributeChanged(ctx context.Context, r dom.MutationRecord) {
	n := r.Target
	if o.states.State(n) != nodestore.Custom {
		return
	}
	var current dom.NullString
	if v, ok := n.AttributeNS(r.AttributeNamespace, r.AttributeName); ok {
		current = dom.Some(v)
	}
	o.sched.Enqueue(ctx, n, scheduler.Reaction{
		Kind: scheduler.AttributeChanged,
		Change: registry.AttributeChange{
			Name:      r.AttributeName,
			OldValue:  r.OldValue,
			NewValue:  current,
			Namespace: r.AttributeNamespace,
		},
	})
}

// batch holds the visited sets of one delivered batch. Deferred visits keep
// a reference to it, so the sets outlive HandleBatch until the last visit ran.
type batch struct {
	o       *Observer
	added   map[*dom.Node]struct{}
	removed map[*dom.Node]struct{}
}

func (b *batch) visitAdded(ctx context.Context, n *dom.Node) {
	if _, seen := b.added[n]; seen {
		return
	}
	b.added[n] = struct{}{}

	if b.o.states.State(n) == nodestore.Custom {
		b.o.sched.Enqueue(ctx, n, scheduler.Reaction{Kind: scheduler.Connected})
	} else {
		b.o.up.TryUpgrade(ctx, n)
	}
	for _, child := range n.Children() {
		b.o.sched.Defer("visit added", child, func(ctx context.Context) error {
			b.visitAdded(ctx, child)
			return nil
		})
	}
}

func (b *batch) visitRemoved(ctx context.Context, n *dom.Node) {
	if _, seen := b.removed[n]; seen {
		return
	}
	b.removed[n] = struct{}{}

	if b.o.states.State(n) == nodestore.Custom {
		b.o.sched.Enqueue(ctx, n, scheduler.Reaction{Kind: scheduler.Disconnected})
	}
	// Plain containers can hold custom descendants.
	for _, child := range n.Children() {
		b.o.sched.Defer("visit removed", child, func(ctx context.Context) error {
			b.visitRemoved(ctx, child)
			return nil
		})
	}
}
