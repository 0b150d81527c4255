package agentstatus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	"github.com/veltahq/backoffice-backend/internal/events"
)

func newTestConsumer(t *testing.T, store *fakeEventStore, pub *fakePublisher, gate func(ctx context.Context) bool, skew time.Duration) *Consumer {
	c := NewConsumer(testLogger(t), store, pub, gate, ConsumerConfig{
		PollInterval: time.Hour,
		ForwardSkew:  skew,
	})
	c.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return c
}

func TestConsumerTick_SkipsWhenNotLeader(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	pub := &fakePublisher{}
	c := newTestConsumer(t, store, pub, func(ctx context.Context) bool { return false }, 0)

	ctx := context.Background()
	if err := store.AddEvent(ctx, redisclients.EventLastAccess, ws, user, 1, nil); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	c.Tick(ctx)

	if len(pub.sent) != 0 {
		t.Fatalf("non-leader must not dispatch, sent %v", pub.sent)
	}
	if store.pending(redisclients.EventLastAccess, ws, user) == nil {
		t.Fatalf("non-leader must not consume events")
	}
}

func TestConsumerTick_DispatchesAndRemovesDueEvents(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	pub := &fakePublisher{}
	c := newTestConsumer(t, store, pub, nil, 0)
	ctx := context.Background()

	now := int64(1_700_000_000_000)
	if err := store.AddEvent(ctx, redisclients.EventLastAccess, ws, user, now-1000, nil); err != nil {
		t.Fatalf("seed due event: %v", err)
	}
	future := uuid.New()
	if err := store.AddEvent(ctx, redisclients.EventLastAccess, ws, future, now+60_000, nil); err != nil {
		t.Fatalf("seed future event: %v", err)
	}

	c.Tick(ctx)

	if got := pub.types(); got != string(events.TypeStartInactive) {
		t.Fatalf("dispatched %q, want one START_INACTIVE", got)
	}
	if store.pending(redisclients.EventLastAccess, ws, user) != nil {
		t.Fatalf("processed event must be removed")
	}
	if store.pending(redisclients.EventLastAccess, ws, future) == nil {
		t.Fatalf("future event must stay pending")
	}
}

func TestConsumerTick_ForwardSkewPullsNearFutureEvents(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	pub := &fakePublisher{}
	c := newTestConsumer(t, store, pub, nil, 3*time.Second)
	ctx := context.Background()

	now := int64(1_700_000_000_000)
	if err := store.AddEvent(ctx, redisclients.EventBreakExpiration, ws, user, now+2000, nil); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	c.Tick(ctx)

	if got := pub.types(); got != string(events.TypeEndInactive) {
		t.Fatalf("dispatched %q, want END_INACTIVE within the skew window", got)
	}
}

func TestConsumerTick_FailedDispatchKeepsEventForRetry(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	pub := &fakePublisher{errFor: events.TypeStartInactive}
	c := newTestConsumer(t, store, pub, nil, 0)
	ctx := context.Background()

	if err := store.AddEvent(ctx, redisclients.EventLastAccess, ws, user, 1, nil); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	c.Tick(ctx)

	if store.pending(redisclients.EventLastAccess, ws, user) == nil {
		t.Fatalf("failed dispatch must leave the event for the next tick")
	}

	pub.errFor = ""
	c.Tick(ctx)
	if store.pending(redisclients.EventLastAccess, ws, user) != nil {
		t.Fatalf("retry should consume the event")
	}
}

func TestConsumerTick_UnknownEventTypeIsDropped(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	pub := &fakePublisher{}
	c := newTestConsumer(t, store, pub, nil, 0)
	ctx := context.Background()

	if err := store.AddEvent(ctx, redisclients.EventType("LEGACY_PING"), ws, user, 1, nil); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	c.Tick(ctx)

	if len(pub.sent) != 0 {
		t.Fatalf("unknown types must not be dispatched")
	}
	if store.pending(redisclients.EventType("LEGACY_PING"), ws, user) != nil {
		t.Fatalf("unknown types must be dropped, not retried forever")
	}
}

func TestDispatchEvent_MapsScheduledToDomainEvents(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	pub := &fakePublisher{}
	c := newTestConsumer(t, &fakeEventStore{}, pub, nil, 0)
	ctx := context.Background()

	err := c.DispatchEvent(ctx, redisclients.ScheduledEvent{
		Type: redisclients.EventLastAccess, WorkspaceID: ws, UserID: user,
	})
	if err != nil {
		t.Fatalf("dispatch last-access: %v", err)
	}
	err = c.DispatchEvent(ctx, redisclients.ScheduledEvent{
		Type: redisclients.EventBreakExpiration, WorkspaceID: ws, UserID: user,
	})
	if err != nil {
		t.Fatalf("dispatch break-expiration: %v", err)
	}
	if got := pub.types(); got != "START_INACTIVE,END_INACTIVE" {
		t.Fatalf("dispatched %q", got)
	}
	if pub.sent[0].Data.WorkspaceID != ws || pub.sent[0].Data.UserID != user {
		t.Fatalf("event data = %+v", pub.sent[0].Data)
	}
}

func TestHandleDomainEvent_RoutesIntoStateMachine(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	f := newFixture(t, ws, enabledGeneral(ws))
	ctx := context.Background()

	if _, err := f.uc.Connect(ctx, ws, user); err != nil {
		t.Fatalf("connect: %v", err)
	}

	f.uc.HandleDomainEvent(ctx, events.Event{
		Type: events.TypeStartInactive,
		Data: events.Data{WorkspaceID: ws, UserID: user},
	})
	rec, err := f.uc.FindActiveByUserAndWorkspace(ctx, ws, user)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if rec == nil || rec.Type != "inactive" {
		t.Fatalf("expected inactive after START_INACTIVE, got %+v", rec)
	}

	f.uc.HandleDomainEvent(ctx, events.Event{
		Type: events.TypeEndInactive,
		Data: events.Data{WorkspaceID: ws, UserID: user},
	})
	rec, err = f.uc.FindActiveByUserAndWorkspace(ctx, ws, user)
	if err != nil {
		t.Fatalf("find active: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected offline after END_INACTIVE, got %+v", rec)
	}
}
