package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/specialistvlad/componentry/internal/construct"
	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/inmemorystore"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/observer"
	"github.com/specialistvlad/componentry/internal/registry"
	"github.com/specialistvlad/componentry/internal/scheduler"
	"github.com/specialistvlad/componentry/internal/upgrade"
)

// DefaultMaxSettleRounds bounds Settle when no option overrides it.
const DefaultMaxSettleRounds = 1000

// ErrNotSettled is returned by Settle when the tree is still changing after
// the configured number of rounds.
var ErrNotSettled = errors.New("tree did not settle")

// Engine is the component engine of one document.
type Engine struct {
	doc       *dom.Document
	reg       *registry.Registry
	store     nodestore.Store
	coord     *construct.Coordinator
	sched     *scheduler.Scheduler
	up        *upgrade.Engine
	obs       *observer.Observer
	logger    *slog.Logger
	onError   registry.ErrorObserver
	maxRounds int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used when a call's context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithErrorObserver installs the hook told about failures that have no
// caller to return to: deferred upgrades and failing reactions. Without it
// such failures are only logged at debug level.
func WithErrorObserver(fn registry.ErrorObserver) Option {
	return func(e *Engine) { e.onError = fn }
}

// WithMaxSettleRounds bounds the number of rounds Settle may take.
func WithMaxSettleRounds(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRounds = n
		}
	}
}

// WithStore replaces the in-memory upgrade state store.
func WithStore(s nodestore.Store) Option {
	return func(e *Engine) { e.store = s }
}

// New wires an engine over doc and starts observing it.
func New(doc *dom.Document, opts ...Option) *Engine {
	e := &Engine{doc: doc, maxRounds: DefaultMaxSettleRounds}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = inmemorystore.New()
	}

	report := e.reportError
	e.reg = registry.New(doc)
	e.sched = scheduler.New(upgrade.Bound{Store: e.store}, report)
	e.coord = construct.New(e.reg, e.store, doc)
	e.up = upgrade.New(e.reg, e.store, e.coord, e.sched, report)
	e.obs = observer.New(e.store, e.up, e.sched)
	e.reg.SetUpgrader(e.up)
	// The registration scan returns its failures to the caller of Define;
	// the hook only has to log them.
	e.reg.SetErrorObserver(func(ctx context.Context, n *dom.Node, err error) {
		ctxlog.FromContext(ctx).Debug("Registration scan failed for node.", "node", n.ID(), "error", err)
	})
	e.obs.Attach(doc)
	return e
}

func (e *Engine) context(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.logger != nil && !ctxlog.Has(ctx) {
		ctx = ctxlog.WithLogger(ctx, e.logger)
	}
	return ctx
}

func (e *Engine) reportError(ctx context.Context, n *dom.Node, err error) {
	logger := ctxlog.FromContext(ctx)
	if n != nil {
		logger = logger.With("node", n.ID(), "type", n.Type())
	}
	logger.Debug("Deferred failure.", "error", err)
	if e.onError != nil {
		e.onError(ctx, n, err)
	}
}

// Document returns the observed document.
func (e *Engine) Document() *dom.Document { return e.doc }

// Define registers a component. Existing matching nodes are upgraded before
// Define returns; their failures are returned joined, while the definition
// itself stays registered. Insertions still waiting for Settle are delivered
// later as additions, so settle before defining to avoid a second connected
// reaction for nodes the scan upgrades.
func (e *Engine) Define(ctx context.Context, name string, ctor registry.Constructor, opts registry.Options) error {
	ctx = e.context(ctx)
	ctxlog.FromContext(ctx).Debug("Defining component.", "component", name, "extends", opts.Extends)
	return e.reg.Register(ctx, name, ctor, opts)
}

// Get returns the constructor registered under name.
func (e *Engine) Get(name string) (registry.Constructor, bool) {
	return e.reg.Get(name)
}

// WhenDefined returns a channel closed once name is defined.
func (e *Engine) WhenDefined(name string) (<-chan struct{}, error) {
	return e.reg.WhenDefined(name)
}

// Definitions returns the registered definitions sorted by name.
func (e *Engine) Definitions() []*registry.Definition {
	return e.reg.Definitions()
}

// Construct runs ctor directly, producing a new custom node.
func (e *Engine) Construct(ctx context.Context, ctor registry.Constructor) (*dom.Node, error) {
	return e.coord.Construct(e.context(ctx), ctor)
}

// CreateElement creates a detached node of typeName. When a definition applies
// (named by is, or by typeName when is is empty) the node is upgraded before
// it is returned. A non-empty is naming no matching definition is an error.
func (e *Engine) CreateElement(ctx context.Context, typeName, is string) (*dom.Node, error) {
	ctx = e.context(ctx)
	n, err := e.doc.CreateNode(typeName)
	if err != nil {
		return nil, err
	}

	var def *registry.Definition
	if is != "" {
		is = strings.ToLower(is)
		d, ok := e.reg.Lookup(is)
		if !ok || d.BaseType != n.Type() {
			return nil, &registry.ValidationError{Name: is, Reason: fmt.Sprintf("no definition of %q extends %q", is, n.Type())}
		}
		def = d
	} else if d, ok := e.reg.DefinitionOf(n); ok {
		def = d
	}

	if def != nil {
		if err := e.up.Upgrade(ctx, n, def); err != nil {
			return nil, err
		}
	}
	if is != "" {
		n.SetAttribute(dom.DesignatorAttribute, is)
	}
	return n, nil
}

// State returns the upgrade state of n.
func (e *Engine) State(n *dom.Node) nodestore.State {
	return e.store.State(n)
}

// DefinitionFor returns the definition n was constructed as, if it is custom.
func (e *Engine) DefinitionFor(n *dom.Node) (*registry.Definition, bool) {
	return upgrade.Bound{Store: e.store}.Resolve(n)
}

// Counts returns how many live nodes are in each upgrade state.
func (e *Engine) Counts() map[nodestore.State]int {
	return e.store.Counts()
}

// Settle handles pending mutation batches and runs deferred work until the
// tree is quiescent. Within a round the queue is drained before the next
// batch is taken. It returns ErrNotSettled when the configured number of
// rounds is exhausted, which usually means reactions keep mutating the tree.
func (e *Engine) Settle(ctx context.Context) error {
	ctx = e.context(ctx)
	logger := ctxlog.FromContext(ctx)
	for round := 1; ; round++ {
		handled := e.obs.Pump(ctx)
		ran := e.sched.Drain(ctx)
		delivered := e.doc.Deliver()
		if !handled && ran == 0 && !delivered {
			logger.Debug("Tree settled.", "rounds", round)
			return nil
		}
		if round >= e.maxRounds {
			return fmt.Errorf("%w after %d rounds", ErrNotSettled, round)
		}
	}
}
