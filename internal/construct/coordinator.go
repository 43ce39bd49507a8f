// Package construct is the construction coordinator.
//
// A node can be instantiated two ways: the upgrade engine pre-allocates it and
// then runs the component's constructor, or application code runs the
// constructor directly. Both paths end in Builder.Element, which must return
// the pre-allocated node in the first case and a fresh node in the second.
// The coordinator keeps one LIFO stack per definition to tell the two apart.
package construct

import (
	"context"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Definitions resolves the definition a constructor belongs to.
type Definitions interface {
	LookupByConstructor(ctor registry.Constructor) (*registry.Definition, bool)
}

// NodeFactory allocates bare nodes for the direct construction path.
type NodeFactory interface {
	CreateNode(typeName string) (*dom.Node, error)
}

// alreadyConstructed replaces a stack entry once Element has handed it out.
var alreadyConstructed = new(dom.Node)

// Coordinator pairs engine-driven pre-allocation with application-driven
// construction.
type Coordinator struct {
	defs   Definitions
	store  nodestore.Store
	nodes  NodeFactory
	stacks map[*registry.Definition][]*dom.Node
}

// New creates a coordinator.
func New(defs Definitions, store nodestore.Store, nodes NodeFactory) *Coordinator {
	return &Coordinator{
		defs:   defs,
		store:  store,
		nodes:  nodes,
		stacks: make(map[*registry.Definition][]*dom.Node),
	}
}

// Push registers n as the node the next construction of def must return.
// The stack holds at most one entry; a second push means a construction of
// def started before the previous one completed.
func (c *Coordinator) Push(def *registry.Definition, n *dom.Node) error {
	if len(c.stacks[def]) > 0 {
		return &registry.ConstructionError{
			Name:   def.Name,
			NodeID: n.ID(),
			Reason: "reentrant construction before prior completion",
		}
	}
	c.stacks[def] = append(c.stacks[def], n)
	return nil
}

// Pop removes the top entry of def's stack and reports whether Element had
// consumed it.
func (c *Coordinator) Pop(def *registry.Definition) (consumed bool) {
	stack := c.stacks[def]
	if len(stack) == 0 {
		return false
	}
	top := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(c.stacks, def)
	} else {
		c.stacks[def] = stack[:len(stack)-1]
	}
	return top == alreadyConstructed
}

// Depth returns the size of def's construction stack.
func (c *Coordinator) Depth(def *registry.Definition) int {
	return len(c.stacks[def])
}

// Construct runs ctor's construction chain. The active definition is the
// one ctor is registered under.
func (c *Coordinator) Construct(ctx context.Context, ctor registry.Constructor) (*dom.Node, error) {
	def, ok := c.defs.LookupByConstructor(ctor)
	if !ok {
		return nil, &registry.ConstructionError{Reason: "no definition registered for constructor"}
	}
	ctxlog.FromContext(ctx).Debug("Running construction chain.", "component", def.Name, "stack_depth", c.Depth(def))
	return ctor.Construct(&Builder{ctx: ctx, coord: c, def: def})
}

// Builder is the registry.Builder handed to constructors.
type Builder struct {
	ctx   context.Context
	coord *Coordinator
	def   *registry.Definition
}

// Context returns the context of the call that started the construction.
func (b *Builder) Context() context.Context { return b.ctx }

// Definition returns the definition being constructed.
func (b *Builder) Definition() *registry.Definition { return b.def }

// Element is the shared base capability. With nothing pending it allocates a
// fresh node of the base type, already custom. Otherwise it claims the
// pending node exactly once.
func (b *Builder) Element() (*dom.Node, error) {
	c, def := b.coord, b.def
	stack := c.stacks[def]

	if len(stack) == 0 {
		n, err := c.nodes.CreateNode(def.BaseType)
		if err != nil {
			return nil, &registry.ConstructionError{Name: def.Name, Reason: "allocate base node", Err: err}
		}
		if !def.Autonomous() {
			n.SetAttribute(dom.DesignatorAttribute, def.Name)
		}
		c.store.Bind(n, def)
		if err := c.store.SetState(n, nodestore.Custom); err != nil {
			return nil, &registry.ConstructionError{Name: def.Name, NodeID: n.ID(), Reason: "mark custom", Err: err}
		}
		return n, nil
	}

	top := stack[len(stack)-1]
	if top == alreadyConstructed {
		return nil, &registry.ConstructionError{
			Name:   def.Name,
			Reason: "reentrant construction before prior completion",
		}
	}
	c.store.Bind(top, def)
	stack[len(stack)-1] = alreadyConstructed
	return top, nil
}
