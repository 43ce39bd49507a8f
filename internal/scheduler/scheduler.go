package scheduler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/registry"
)

type queued struct {
	name string
	node *dom.Node
	fn   Task
}

// Scheduler is the single deferred queue of an engine instance. It is not
// safe for concurrent use.
type Scheduler struct {
	resolver Resolver
	onError  registry.ErrorObserver
	queue    []queued
	flushing bool
}

// New creates a scheduler that resolves definitions through resolver.
func New(resolver Resolver, onError registry.ErrorObserver) *Scheduler {
	return &Scheduler{resolver: resolver, onError: onError}
}

// Defer implements Deferrer.
func (s *Scheduler) Defer(name string, n *dom.Node, task Task) {
	s.queue = append(s.queue, queued{name: name, node: n, fn: task})
}

// Enqueue implements Deferrer. It reports whether a reaction was queued.
func (s *Scheduler) Enqueue(ctx context.Context, n *dom.Node, r Reaction) bool {
	def, ok := s.resolver.Resolve(n)
	if !ok {
		return false
	}
	return s.EnqueueFor(ctx, n, def, r)
}

// EnqueueFor queues a reaction using def's callbacks instead of resolving
// them. The upgrade engine uses it before the node is bound to def.
func (s *Scheduler) EnqueueFor(ctx context.Context, n *dom.Node, def *registry.Definition, r Reaction) bool {
	cb := def.Callbacks
	var task Task
	switch r.Kind {
	case Connected:
		if cb.Connected == nil {
			return false
		}
		task = func(ctx context.Context) error { return cb.Connected.Connected(ctx, n) }
	case Disconnected:
		if cb.Disconnected == nil {
			return false
		}
		task = func(ctx context.Context) error { return cb.Disconnected.Disconnected(ctx, n) }
	case Adopted:
		if cb.Adopted == nil {
			return false
		}
		task = func(ctx context.Context) error { return cb.Adopted.Adopted(ctx, n, r.From, r.To) }
	case AttributeChanged:
		if cb.AttributeChanged == nil || !def.Observes(r.Change.Name) {
			return false
		}
		change := r.Change
		task = func(ctx context.Context) error { return cb.AttributeChanged.AttributeChanged(ctx, n, change) }
	default:
		return false
	}
	ctxlog.FromContext(ctx).Debug("Reaction enqueued.", "node", n.ID(), "component", def.Name, "reaction", r.Kind.String())
	s.Defer(def.Name+"."+r.Kind.String(), n, task)
	return true
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int { return len(s.queue) }

// Flush runs the tasks queued before it was called and returns how many ran.
// A Flush issued from inside a running task does nothing.
func (s *Scheduler) Flush(ctx context.Context) int {
	if s.flushing || len(s.queue) == 0 {
		return 0
	}
	s.flushing = true
	defer func() { s.flushing = false }()

	batch := s.queue
	s.queue = nil
	for _, t := range batch {
		s.run(ctx, t)
	}
	return len(batch)
}

// Drain flushes until the queue is empty and returns how many tasks ran.
func (s *Scheduler) Drain(ctx context.Context) int {
	total := 0
	for {
		n := s.Flush(ctx)
		if n == 0 {
			return total
		}
		total += n
	}
}

func (s *Scheduler) run(ctx context.Context, t queued) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task %s panicked: %v", t.name, r)
			}
		}()
		return t.fn(ctx)
	}()
	if err == nil {
		return
	}
	logger := ctxlog.FromContext(ctx)
	if t.node != nil {
		logger = logger.With("node", t.node.ID())
	}
	logger.Debug("Deferred task failed.", "task", t.name, "error", err)
	if s.onError != nil {
		s.onError(ctx, t.node, fmt.Errorf("%s: %w", t.name, err))
	}
}
