package events

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

func testBus(t *testing.T) (*redisBus, func()) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s not reachable: %v", addr, err)
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	bus := &redisBus{
		log:     log,
		rdb:     rdb,
		channel: fmt.Sprintf("test:agent_status:domain_events:%s", uuid.NewString()),
	}
	return bus, func() { rdb.Close() }
}

func TestRedisBus_DeliversEventsToForwarder(t *testing.T) {
	bus, cleanup := testBus(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	if err := bus.StartForwarder(ctx, func(ev Event) {
		received <- ev
	}); err != nil {
		t.Fatalf("start forwarder: %v", err)
	}

	want := Event{
		Type: TypeStartInactive,
		Data: Data{WorkspaceID: uuid.New(), UserID: uuid.New()},
	}
	if err := bus.Send(ctx, want); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case got := <-received:
		if got.Type != want.Type || got.Data != want.Data {
			t.Fatalf("received %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("forwarder did not deliver the event")
	}
}

func TestRedisBus_ForwarderStopsOnContextCancel(t *testing.T) {
	bus, cleanup := testBus(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan Event, 4)
	if err := bus.StartForwarder(ctx, func(ev Event) {
		received <- ev
	}); err != nil {
		t.Fatalf("start forwarder: %v", err)
	}
	cancel()
	// Give the subscription loop a moment to observe the cancellation.
	time.Sleep(200 * time.Millisecond)

	ev := Event{Type: TypeEndInactive, Data: Data{WorkspaceID: uuid.New(), UserID: uuid.New()}}
	if err := bus.Send(context.Background(), ev); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case got := <-received:
		t.Fatalf("cancelled forwarder still delivered %+v", got)
	case <-time.After(500 * time.Millisecond):
	}
}
