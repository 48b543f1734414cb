package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinAdvisor/internal/domain/repository"
	"FinAdvisor/internal/services/registry"
	"FinAdvisor/pkg/config"
	xhttp "FinAdvisor/pkg/http"
	applogger "FinAdvisor/pkg/logger"
)

// modelLoadTimeout bounds the startup artifact load.
const modelLoadTimeout = 30 * time.Second

type namedCloser struct {
	name string
	c    io.Closer
}

// Option configures App.
type Option func(*App)

// WithCloser registers an infrastructure client closed on shutdown, in
// registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) { a.closers = append(a.closers, namedCloser{name: name, c: c}) }
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	registry   *registry.Registry
	publisher  repository.EventPublisher
	closers    []namedCloser
	l          *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	httpServer *xhttp.Server,
	reg *registry.Registry,
	pub repository.EventPublisher,
	l *applogger.Logger,
	opts ...Option,
) *App {
	a := &App{
		cfg:        cfg,
		httpServer: httpServer,
		registry:   reg,
		publisher:  pub,
		l:          l,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, modelLoadTimeout)
	err := a.registry.LoadModels(loadCtx)
	cancel()
	if err != nil {
		a.l.Warn("model load incomplete, serving with defaults", applogger.Error(err))
	}
	for name, st := range a.registry.GetModelStatus() {
		a.l.Info("model status",
			applogger.String("model", name),
			applogger.String("version", st.Version),
			applogger.Bool("loaded", st.Loaded),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("application started", applogger.String("env", a.cfg.Environment), applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	// Cancels a running retrain and waits for it before the stores go away.
	a.registry.Close()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("event publisher close error", applogger.Error(err))
		}
	}
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn("client close error", applogger.String("client", nc.name), applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
