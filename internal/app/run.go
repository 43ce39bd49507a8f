package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/componentry/internal/ctxlog"
	"github.com/specialistvlad/componentry/internal/feed"
	"github.com/specialistvlad/componentry/internal/hcldoc"
	"github.com/specialistvlad/componentry/internal/inspect"
	"github.com/specialistvlad/componentry/internal/nodestore"
	"github.com/specialistvlad/componentry/internal/registry"
)

// Run executes the main application logic.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.InspectPort > 0 {
		srv := inspect.NewServer(a.config.InspectPort, inspect.NewRouter(inspect.NewEngineSource(a.eng, &a.mu), a.logger), a.logger)
		srv.Start()
		defer srv.Shutdown(context.WithoutCancel(ctx))
	}

	if err := a.load(ctx); err != nil {
		return err
	}

	switch {
	case a.config.FeedEnabled():
		if err := a.follow(ctx); err != nil {
			return err
		}
	case a.config.InspectPort > 0:
		a.logger.Info("Serving inspection API until interrupted.")
		<-ctx.Done()
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// load builds the document, defines the manifest components and settles.
func (a *App) load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	nodes, err := hcldoc.Build(a.doc.Root(), a.bundle.Nodes)
	if err != nil {
		return fmt.Errorf("failed to build document: %w", err)
	}
	a.logger.Debug("Document built.", "top_level_nodes", len(nodes))

	// Take the insertion batch while nothing is defined, so the upgrades done
	// by Define are the only source of connected reactions.
	if err := a.eng.Settle(ctx); err != nil {
		return err
	}

	for _, spec := range a.bundle.Components {
		ctor, err := a.kinds.Build(spec)
		if err != nil {
			return fmt.Errorf("failed to build component: %w", err)
		}
		err = a.eng.Define(ctx, spec.Name, ctor, registry.Options{Extends: spec.Extends})
		switch {
		case err == nil:
		case errors.Is(err, registry.ErrConstruction):
			// The definition is registered; only some existing nodes failed.
			a.logger.Warn("Some nodes failed to upgrade.", "component", spec.Name, "error", err)
		default:
			return fmt.Errorf("failed to define component: %w", err)
		}
	}
	a.logger.Info("Components defined.", "count", len(a.bundle.Components))

	if err := a.eng.Settle(ctx); err != nil {
		return err
	}
	a.logSummary()
	return nil
}

// follow applies feed batches until ctx is done.
func (a *App) follow(ctx context.Context) error {
	client, err := feed.Dial(ctx, *a.config.Feed)
	if err != nil {
		return fmt.Errorf("failed to connect to feed: %w", err)
	}
	defer client.Close()

	a.logger.Info("🚀 Following mutation feed...")
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("🏁 Feed stopped.")
			return nil
		case batch := <-client.Batches():
			if err := a.ApplyBatch(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// ApplyBatch applies one feed batch and settles the engine. An invalid
// operation ends the batch early but is not fatal; a tree that does not
// settle is.
func (a *App) ApplyBatch(ctx context.Context, batch feed.Batch) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.mu.Lock()
	defer a.mu.Unlock()

	applied, err := feed.Apply(a.doc, batch)
	if err != nil {
		a.logger.Warn("Feed batch partially applied.", "applied", applied, "total", len(batch.Ops), "error", err)
	}
	if err := a.eng.Settle(ctx); err != nil {
		return err
	}
	a.logger.Debug("Feed batch settled.", "applied", applied)
	return nil
}

func (a *App) logSummary() {
	counts := a.eng.Counts()
	a.logger.Info("Tree settled.",
		"components", len(a.eng.Definitions()),
		"custom", counts[nodestore.Custom],
		"failed", counts[nodestore.Failed],
	)
}
