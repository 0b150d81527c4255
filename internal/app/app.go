package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	"github.com/veltahq/backoffice-backend/internal/data/db"
	"github.com/veltahq/backoffice-backend/internal/events"
	"github.com/veltahq/backoffice-backend/internal/observability"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Redis    *goredis.Client
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Hub      *realtime.Hub

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "backoffice-api",
		Environment: os.Getenv("DEPLOY_ENV"),
		Version:     os.Getenv("SERVICE_VERSION"),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	rdb, err := redisclients.NewClient()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	hub := realtime.NewHub(log)

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, rdb, hub)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, reposet, serviceset, hub)
	middlewareset := wireMiddleware(log, serviceset)
	router := wireRouter(handlerset, middlewareset)

	return &App{
		Log:          log,
		DB:           theDB,
		Redis:        rdb,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Hub:          hub,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background machinery: the event consumer's polling loop
// and the domain-event forwarder that re-enters the state machine.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Services.Bus.StartForwarder(ctx, func(ev events.Event) {
		a.Services.AgentStatus.HandleDomainEvent(ctx, ev)
	}); err != nil {
		cancel()
		a.cancel = nil
		return fmt.Errorf("start event forwarder: %w", err)
	}
	a.Services.Consumer.Start(ctx)
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.Services.Elector != nil {
		a.Services.Elector.Resign(shutdownCtx)
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(shutdownCtx)
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
