package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	httpapi "github.com/yungbote/dojoquest-backend/internal/http"
	httpH "github.com/yungbote/dojoquest-backend/internal/http/handlers"
	httpMW "github.com/yungbote/dojoquest-backend/internal/http/middleware"
	"github.com/yungbote/dojoquest-backend/internal/observability"
	"github.com/yungbote/dojoquest-backend/internal/platform/logger"
	"github.com/yungbote/dojoquest-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Router   *gin.Engine
	Metrics  *observability.Metrics

	server       *httpapi.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New wires the API process. Background loops (SSE forwarder, collectors)
// are bound to ctx.
func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log = log.With("service", cfg.ServiceName)

	ctx, cancel := context.WithCancel(ctx)
	a := &App{Log: log, Cfg: cfg, cancel: cancel}

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	a.Metrics = observability.Init(log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients

	a.SSEHub = realtime.NewSSEHub(log)
	a.Repos = wireRepos(clients.Postgres.DB(), log)

	svcs, err := wireServices(ctx, log, cfg, clients, a.Repos, a.SSEHub)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = svcs

	a.Router = httpapi.NewRouter(a.routerConfig())
	a.server = httpapi.NewServer(httpapi.ServerConfig{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}, a.Router)

	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, log, cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, log, clients.Postgres.DB())
		if clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, log, clients.Redis)
		}
	}
	return a, nil
}

func (a *App) routerConfig() httpapi.RouterConfig {
	log := a.Log
	uc := a.Services.Gamification
	return httpapi.RouterConfig{
		Log:            log,
		ServiceName:    a.Cfg.ServiceName,
		AllowedOrigins: a.Cfg.AllowedOrigins,
		Metrics:        a.Metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, a.Services.Auth),

		XPHandler:             httpH.NewXPHandler(log, uc),
		ChallengeHandler:      httpH.NewChallengeHandler(log, uc, a.Cfg.MaxUploadBytes),
		DailyChallengeHandler: httpH.NewDailyChallengeHandler(log, uc),
		HabitHandler:          httpH.NewHabitHandler(log, uc),
		PvpHandler:            httpH.NewPvpHandler(log, uc),
		LeaderboardHandler:    httpH.NewLeaderboardHandler(log, uc),
		RealtimeHandler:       httpH.NewRealtimeHandler(log, a.SSEHub),

		HealthHandler: httpH.NewHealthHandler(a.healthChecks()...),
	}
}

func (a *App) healthChecks() []httpH.HealthCheck {
	checks := []httpH.HealthCheck{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			sqlDB, err := a.Clients.Postgres.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if rdb := a.Clients.Redis; rdb != nil {
		checks = append(checks, httpH.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return checks
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	a.Clients.Close(a.Log)
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	a.Log.Sync()
}
