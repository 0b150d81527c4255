package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

// LeaderElector elects a single cron-runner process across horizontally
// scaled instances. Holding the lease is what makes the event consumer's
// tick run in exactly one process; the consumer's in-process running flag
// only guards overlapping ticks within that process.
type LeaderElector struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
	id  string
	ttl time.Duration
}

const leaderKey = "agent_status:cron_leader"

func NewLeaderElector(log *logger.Logger, rdb *goredis.Client, ttl time.Duration) *LeaderElector {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeaderElector{
		log: log.With("component", "LeaderElector"),
		rdb: rdb,
		key: leaderKey,
		id:  uuid.NewString(),
		ttl: ttl,
	}
}

// IsLeader attempts to take or refresh the lease. Any Redis error counts as
// "not the leader": losing a tick is cheaper than running two consumers.
func (l *LeaderElector) IsLeader(ctx context.Context) bool {
	ok, err := l.rdb.SetNX(ctx, l.key, l.id, l.ttl).Result()
	if err != nil {
		l.log.Warn("leader election failed", "error", err)
		return false
	}
	if ok {
		return true
	}
	holder, err := l.rdb.Get(ctx, l.key).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			l.log.Warn("leader lease read failed", "error", err)
		}
		return false
	}
	if holder != l.id {
		return false
	}
	if err := l.rdb.PExpire(ctx, l.key, l.ttl).Err(); err != nil {
		l.log.Warn("leader lease refresh failed", "error", err)
		return false
	}
	return true
}

// Resign drops the lease if this process holds it, so a clean shutdown hands
// over without waiting for the TTL.
func (l *LeaderElector) Resign(ctx context.Context) {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`
	if err := l.rdb.Eval(ctx, script, []string{l.key}, l.id).Err(); err != nil {
		l.log.Warn("leader resign failed", "error", err)
	}
}
