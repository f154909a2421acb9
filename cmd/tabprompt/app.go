package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/verte-zerg/tabprompt/internal/bridge"
	"github.com/verte-zerg/tabprompt/internal/clock"
	"github.com/verte-zerg/tabprompt/internal/gesture"
	"github.com/verte-zerg/tabprompt/internal/glasses"
	"github.com/verte-zerg/tabprompt/internal/library"
	"github.com/verte-zerg/tabprompt/internal/model"
	"github.com/verte-zerg/tabprompt/internal/scheduler"
	"github.com/verte-zerg/tabprompt/internal/session"
	"github.com/verte-zerg/tabprompt/internal/store"
)

// app is one running teleprompter: the catalog and session, the simulated
// device, and everything reacting to session changes.
type app struct {
	cfg     model.Config
	log     *slog.Logger
	db      *store.Store
	session *session.Store
	device  *bridge.Loopback
	display *glasses.Display
	sched   *scheduler.Scheduler
	mirror  model.Disposer
	routes  model.Disposer
}

func startApp(ctx context.Context, cfg model.Config, files []string, logger *slog.Logger, clk clock.Clock) (*app, error) {
	db, err := store.Open(cfg.LibraryDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	docs, err := library.Catalog(ctx, library.Sources{Store: db, Dirs: cfg.LibraryDirs, Files: files}, logger)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on startup failure.
			_ = cerr
		}
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		db:      db,
		session: session.New(session.Options{LinesPerWindow: cfg.LinesPerWindow, Tempo: cfg.Tempo}),
		device:  bridge.NewLoopback(),
	}
	for _, doc := range docs {
		a.session.AddDocument(doc)
	}

	a.display = glasses.NewDisplay(a.device, clk, cfg.ThrottleWindow, logger)
	if err := a.display.Init(ctx, glasses.SplashView); err != nil {
		logger.Debug("continuing without display", "error", err)
	}
	a.sched = scheduler.Start(a.session, a.display, clk, logger)
	a.mirror = glasses.Mirror(a.session, a.display)
	router := gesture.New(a.session, a.display, a.device, logger, gesture.Options{
		WidthCols: cfg.WidthCols,
		Rows:      cfg.LinesPerWindow,
	})
	a.routes = router.Attach()
	return a, nil
}

func (a *app) Close() {
	a.routes.Release()
	a.mirror.Release()
	a.sched.Stop()
	a.display.Close()
	if err := a.db.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}
