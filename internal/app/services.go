package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	"github.com/veltahq/backoffice-backend/internal/events"
	"github.com/veltahq/backoffice-backend/internal/modules/account"
	"github.com/veltahq/backoffice-backend/internal/modules/agentstatus"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

type Services struct {
	Auth        account.Auth
	AgentStatus agentstatus.Usecases
	Settings    agentstatus.GeneralSettingsProvider
	Consumer    *agentstatus.Consumer
	EventStore  redisclients.EventStore
	Bus         events.Bus
	Elector     *redisclients.LeaderElector
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, rdb *goredis.Client, hub *realtime.Hub) (Services, error) {
	auth := account.NewAuth(account.AuthDeps{
		DB:        db,
		Log:       log,
		Users:     repos.Users,
		JWTSecret: cfg.JWTSecretKey,
		TokenTTL:  cfg.AccessTokenTTL,
	})

	store := redisclients.NewEventStore(log, rdb)

	settings := agentstatus.NewGeneralSettingsCache(log, repos.GeneralSettings, agentstatus.SettingsCacheConfig{
		TTL:                       cfg.SettingsCacheTTL,
		DefaultMaxInactiveSeconds: cfg.DefaultMaxInactiveSeconds,
	})

	status := agentstatus.NewUsecases(agentstatus.UsecasesDeps{
		DB:            db,
		Log:           log,
		WorkingTime:   repos.WorkingTime,
		BreakSettings: repos.BreakSettings,
		Users:         repos.Users,
		Settings:      settings,
		Events:        store,
		Notifier:      hub,
	})

	bus, err := events.NewRedisBus(log, rdb)
	if err != nil {
		return Services{}, err
	}

	var elector *redisclients.LeaderElector
	gate := func(ctx context.Context) bool { return false }
	if cfg.CronRunner {
		elector = redisclients.NewLeaderElector(log, rdb, cfg.LeaderLeaseTTL)
		gate = elector.IsLeader
	}

	consumer := agentstatus.NewConsumer(log, store, bus, gate, agentstatus.ConsumerConfig{
		PollInterval: cfg.ConsumerPollInterval,
		ForwardSkew:  cfg.ConsumerForwardSkew,
	})

	return Services{
		Auth:        auth,
		AgentStatus: status,
		Settings:    settings,
		Consumer:    consumer,
		EventStore:  store,
		Bus:         bus,
		Elector:     elector,
	}, nil
}
