// Package nodestore defines the per-node upgrade state side-table.
//
// The upgrade state of a node is kept outside the node itself, keyed by node
// identity. A node starts Unset the first time it is looked at and can make
// exactly one transition, to Custom or to Failed. Both are terminal.
//
// The store also remembers which definition a node was bound to when its
// behavior surface was applied, so reactions resolve the definition the node
// actually carries rather than re-deriving it from attributes that may have
// changed since.
package nodestore

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/registry"
)

// State is the upgrade state of a node.
type State int

const (
	// Unset means the node has not been upgraded or failed yet.
	Unset State = iota
	// Custom means the node carries a component's behavior.
	Custom
	// Failed means construction failed; the node will never be upgraded.
	Failed
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Custom:
		return "custom"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrTerminal is returned when a transition out of a terminal state is attempted.
var ErrTerminal = errors.New("node upgrade state is terminal")

// Store tracks upgrade state per node.
//
// Writes come from the single engine goroutine; reads must also be safe from
// other goroutines (the inspection server).
type Store interface {
	// State returns the node's state, Unset when it was never recorded.
	State(n *dom.Node) State

	// SetState moves a node from Unset to s. Any other transition returns
	// ErrTerminal and leaves the state unchanged. Setting the current state
	// again is a no-op.
	SetState(n *dom.Node, s State) error

	// Bind records the definition whose behavior surface was applied to n.
	Bind(n *dom.Node, def *registry.Definition)

	// Definition returns the definition n was bound to.
	Definition(n *dom.Node) (*registry.Definition, bool)

	// Counts returns how many live nodes are in each state.
	Counts() map[State]int
}
