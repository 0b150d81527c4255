package app

import (
	"time"

	"github.com/veltahq/backoffice-backend/internal/platform/envutil"
)

type Config struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration

	// Event consumer cadence and forward skew.
	ConsumerPollInterval time.Duration
	ConsumerForwardSkew  time.Duration

	// CronRunner marks this instance as eligible for leader election; in a
	// horizontally scaled deployment one pool runs with it enabled.
	CronRunner     bool
	LeaderLeaseTTL time.Duration

	// Fallback max inactivity for workspaces without a settings row, used
	// by break safety-expiration math.
	DefaultMaxInactiveSeconds int64

	SettingsCacheTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL: envutil.Seconds("ACCESS_TOKEN_TTL", time.Hour),

		ConsumerPollInterval: envutil.Seconds("CONSUMER_POLL_INTERVAL", 10*time.Second),
		ConsumerForwardSkew:  envutil.Seconds("CONSUMER_FORWARD_SKEW", 3*time.Second),

		CronRunner:     envutil.Bool("CRON_RUNNER", true),
		LeaderLeaseTTL: envutil.Seconds("LEADER_LEASE_TTL", 30*time.Second),

		DefaultMaxInactiveSeconds: int64(envutil.Int("DEFAULT_MAX_INACTIVE_SECONDS", 3600)),

		SettingsCacheTTL: envutil.Seconds("SETTINGS_CACHE_TTL", 4*3600*time.Second),
	}
}
