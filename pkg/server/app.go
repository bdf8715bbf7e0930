package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"IntraCast/internal/domain/service"
	"IntraCast/internal/handler/ws"
	"IntraCast/internal/usecase"
	pkgch "IntraCast/pkg/clickhouse"
	"IntraCast/pkg/config"
	xhttp "IntraCast/pkg/http"
	applogger "IntraCast/pkg/logger"
)

// App encapsulates the entire application lifecycle: the tick scheduler,
// the HTTP server, the websocket heartbeat, and graceful teardown of the
// infrastructure clients.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	pipe       *usecase.Pipeline
	handler    xhttp.Handler
	hub        *ws.Hub
	chClient   *pkgch.Client
	publisher  service.SignalPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipe *usecase.Pipeline,
	handler xhttp.Handler,
	hub *ws.Hub,
	chClient *pkgch.Client,
	publisher service.SignalPublisher,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		pipe:      pipe,
		handler:   handler,
		hub:       hub,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler, a.l,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
	)

	if a.hub != nil {
		go a.hub.Run(ctx)
		a.l.Info("heartbeat hub started", applogger.Duration("interval", a.cfg.Heartbeat.Interval))
	}

	go a.schedule(ctx)
	a.l.Info("pipeline scheduler started",
		applogger.String("symbol", a.cfg.Market.Symbol),
		applogger.Duration("tick_interval", a.cfg.Pipeline.TickInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// schedule runs one pipeline tick per interval until ctx is cancelled. The
// first tick fires immediately so a restart does not wait a full interval
// to reconverge.
func (a *App) schedule(ctx context.Context) {
	a.tick(ctx)

	ticker := time.NewTicker(a.cfg.Pipeline.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *App) tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, a.cfg.Pipeline.TickInterval)
	defer cancel()

	skipped, err := a.pipe.RunTick(tickCtx, a.cfg.Market.Symbol)
	if err != nil {
		if usecase.IsExpected(err) {
			a.l.Warn("tick ended early", applogger.Error(err))
			return
		}
		a.l.Error("tick error", applogger.Error(err))
		return
	}
	if skipped {
		a.l.Debug("tick skipped, market closed")
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
