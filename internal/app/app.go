package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	inhttp "github.com/yungbote/adaptedu-backend/internal/http"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
	"github.com/yungbote/adaptedu-backend/internal/realtime/bus"
)

const sessionSweepEvery = time.Minute

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *inhttp.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
	background   *errgroup.Group
}

// New loads configuration from configPath (app.env, optional) and the
// environment, then wires the whole dependency graph.
func New(configPath string) (*App, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.AppEnv,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	hub := realtime.NewSSEHub(log)
	var emitter realtime.Emitter = hub
	if clients.SSEBus != nil {
		emitter = bus.NewEmitter(clients.SSEBus, hub, log)
	}

	reposet := wireRepos(clients.Postgres.DB(), log, clients, cfg)
	serviceset := wireServices(clients.Postgres.DB(), log, cfg, reposet, clients, emitter)
	handlerset := wireHandlers(log, clients, serviceset, hub)
	middleware := wireMiddleware(log, clients, serviceset)
	server := wireServer(log, cfg, metrics, otelShutdown != nil, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       hub,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background loops: the SSE bus forwarder, the session
// sweepers and the metrics listener.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			cancel()
			a.cancel = nil
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}

	g := &errgroup.Group{}
	g.Go(func() error {
		a.Services.Creation.Run(ctx, sessionSweepEvery)
		return nil
	})
	g.Go(func() error {
		a.Services.Viewer.Run(ctx, sessionSweepEvery)
		return nil
	})
	a.background = g
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown drains HTTP, stops the loops (which close every live session)
// and flushes traces in parallel, then closes the clients.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.Server.Shutdown(gctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if a.cancel != nil {
			a.cancel()
		}
		if a.background != nil {
			return a.background.Wait()
		}
		return nil
	})
	if a.otelShutdown != nil {
		g.Go(func() error {
			if err := a.otelShutdown(gctx); err != nil {
				return fmt.Errorf("otel shutdown: %w", err)
			}
			return nil
		})
	}
	err := g.Wait()
	a.Clients.Close(a.Log)
	a.Log.Sync()
	return err
}
