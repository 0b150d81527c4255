package agentstatus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	"github.com/veltahq/backoffice-backend/internal/events"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

var errUnknownEventType = errors.New("unknown scheduled event type")

type ConsumerConfig struct {
	// PollInterval is the tick cadence.
	PollInterval time.Duration
	// ForwardSkew over-fetches events due slightly in the future so
	// UI-facing expirations feel synchronized with the backend.
	ForwardSkew time.Duration
}

// Consumer drains due events from the event store once per tick and turns
// them into domain events. The gate elects a single running process across
// scaled instances; the in-process running flag only prevents overlapping
// ticks within this process.
type Consumer struct {
	log       *logger.Logger
	store     redisclients.EventStore
	publisher events.Publisher
	gate      func(ctx context.Context) bool
	cfg       ConsumerConfig
	running   atomic.Bool
	now       func() time.Time
}

func NewConsumer(log *logger.Logger, store redisclients.EventStore, publisher events.Publisher, gate func(ctx context.Context) bool, cfg ConsumerConfig) *Consumer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.ForwardSkew < 0 {
		cfg.ForwardSkew = 0
	}
	return &Consumer{
		log:       log.With("component", "EventConsumer"),
		store:     store,
		publisher: publisher,
		gate:      gate,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				func() {
					defer func() {
						if r := recover(); r != nil {
							c.log.Error("event consumer tick panic", "panic", r)
						}
					}()
					c.Tick(ctx)
				}()
			}
		}
	}()
}

// Tick processes one polling round. Dispatch happens before removal, so a
// crash in between replays the event on a later tick; downstream transitions
// are idempotent by contract.
func (c *Consumer) Tick(ctx context.Context) {
	if c.gate != nil && !c.gate(ctx) {
		return
	}
	if !c.running.CompareAndSwap(false, true) {
		c.log.Debug("previous tick still running, skipping")
		return
	}
	defer c.running.Store(false)

	until := c.now().Add(c.cfg.ForwardSkew).UnixMilli()
	due := c.store.ExpiredEvents(ctx, until)
	for _, ev := range due {
		if err := c.DispatchEvent(ctx, ev); err != nil {
			c.log.Error("event dispatch failed", "event_type", ev.Type, "workspace_id", ev.WorkspaceID, "user_id", ev.UserID, "error", err)
			if errors.Is(err, errUnknownEventType) {
				// An unrecognized member would be refetched forever.
				_ = c.store.RemoveMember(ctx, ev.Member)
			}
			// Otherwise leave the member in place; the next tick retries.
			continue
		}
		if err := c.store.RemoveMember(ctx, ev.Member); err != nil {
			c.log.Warn("processed event cleanup failed", "event_type", ev.Type, "error", err)
		}
	}
}

// DispatchEvent maps one due event to its domain notification. Also the
// manual entry point for operational triggering outside the polling cadence.
func (c *Consumer) DispatchEvent(ctx context.Context, ev redisclients.ScheduledEvent) error {
	data := events.Data{WorkspaceID: ev.WorkspaceID, UserID: ev.UserID}
	switch ev.Type {
	case redisclients.EventLastAccess:
		return c.publisher.Send(ctx, events.Event{Type: events.TypeStartInactive, Data: data})
	case redisclients.EventBreakExpiration:
		return c.publisher.Send(ctx, events.Event{Type: events.TypeEndInactive, Data: data})
	default:
		return fmt.Errorf("%w: %q", errUnknownEventType, ev.Type)
	}
}
