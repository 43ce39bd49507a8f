package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/specialistvlad/componentry/internal/config"
	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/dom"
	"github.com/specialistvlad/componentry/internal/engine"
	"github.com/specialistvlad/componentry/internal/hcldoc"
	"github.com/specialistvlad/componentry/internal/kinds"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *config.Config
	kinds  *kinds.Registry
	bundle *hcldoc.Bundle

	// mu serializes everything that touches the engine: the run loop holds
	// it while mutating or settling, the inspection server while reading.
	mu  sync.Mutex
	doc *dom.Document
	eng *engine.Engine
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and kinds
// registry. Failing to load the HCL files is a fatal startup error and
// panics.
func NewApp(outW io.Writer, cfg *config.Config, modules ...kinds.Module) *App {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := kinds.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All component kinds registered.", "count", len(modules), "kinds", reg.Kinds())

	// Merge all configuration paths into a single collection for the loader.
	paths := append([]string{}, cfg.DocumentPaths...)
	paths = append(paths, cfg.ComponentPaths...)
	bundle, err := hcldoc.NewLoader().Load(ctx, paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("HCL files loaded.", "top_level_nodes", len(bundle.Nodes), "components", len(bundle.Components))

	doc := dom.NewDocument()
	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		kinds:  reg,
		bundle: bundle,
		doc:    doc,
	}
	a.eng = engine.New(doc,
		engine.WithLogger(logger),
		engine.WithErrorObserver(a.reportFailure),
		engine.WithMaxSettleRounds(cfg.MaxSettleRounds),
	)
	return a
}

// reportFailure is the engine's hook for failures nobody else sees: deferred
// upgrades and failing reactions.
func (a *App) reportFailure(ctx context.Context, n *dom.Node, err error) {
	logger := ctxlog.FromContext(ctx)
	if n != nil {
		logger = logger.With("node", n.ID(), "type", n.Type())
	}
	logger.Warn("Component failure.", "error", err)
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.eng
}

// Document returns the application's document. This is primarily for testing.
func (a *App) Document() *dom.Document {
	return a.doc
}

// Kinds returns the registered component kinds.
func (a *App) Kinds() *kinds.Registry {
	return a.kinds
}
