package scheduler

import (
	"context"
	"fmt"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Kind is the lifecycle reaction kind.
type Kind int

const (
	Connected Kind = iota
	Disconnected
	Adopted
	AttributeChanged
)

func (k Kind) String() string {
	switch k {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Adopted:
		return "adopted"
	case AttributeChanged:
		return "attribute_changed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reaction is one lifecycle notification for a node.
type Reaction struct {
	Kind Kind
	// Change is set for AttributeChanged.
	Change registry.AttributeChange
	// From and To are set for Adopted.
	From, To *dom.Document
}

// Resolver finds the definition whose callbacks apply to a node.
type Resolver interface {
	Resolve(n *dom.Node) (*registry.Definition, bool)
}

// Task is a deferred step.
type Task func(ctx context.Context) error

// Deferrer is what the upgrade engine and the tree observer need from the
// scheduler.
type Deferrer interface {
	// Defer queues a task. n may be nil; it is only used for error reports.
	Defer(name string, n *dom.Node, task Task)
	// Enqueue queues a lifecycle reaction on n if its definition has the
	// matching capability.
	Enqueue(ctx context.Context, n *dom.Node, r Reaction) bool
	// EnqueueFor is Enqueue with the definition supplied by the caller.
	EnqueueFor(ctx context.Context, n *dom.Node, def *registry.Definition, r Reaction) bool
}
