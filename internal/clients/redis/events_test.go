package redis

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

func TestMemberCodec_RoundTrip(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	fireAt := int64(1_700_000_123_456)
	payload := map[string]any{"lastAccess": float64(1_700_000_000_000)}

	member, err := encodeMember(EventLastAccess, ws, user, fireAt, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev, err := decodeMember(member, fireAt)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventLastAccess || ev.WorkspaceID != ws || ev.UserID != user {
		t.Fatalf("key fields lost in round trip: %+v", ev)
	}
	if ev.Timestamp != fireAt {
		t.Fatalf("timestamp = %d, want %d", ev.Timestamp, fireAt)
	}
	if got := ev.Payload["lastAccess"]; got != float64(1_700_000_000_000) {
		t.Fatalf("payload lastAccess = %v", got)
	}
	if ev.Member != member {
		t.Fatalf("raw member must be preserved for removal")
	}
}

func TestMemberCodec_PayloadWithColonsAndBraces(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	payload := map[string]any{"note": "a:b:{c}:d"}

	member, err := encodeMember(EventBreakExpiration, ws, user, 42, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ev, err := decodeMember(member, 42)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Payload["note"] != "a:b:{c}:d" {
		t.Fatalf("payload corrupted: %v", ev.Payload)
	}
}

func TestMemberCodec_RejectsMalformedMembers(t *testing.T) {
	cases := []string{
		"",
		"LAST_ACCESS",
		"LAST_ACCESS:not-a-uuid:also-not:{}",
		fmt.Sprintf("LAST_ACCESS:%s:%s:not-json", uuid.New(), uuid.New()),
	}
	for _, member := range cases {
		if _, err := decodeMember(member, 0); err == nil {
			t.Fatalf("expected decode error for %q", member)
		}
	}
}

func TestMemberCodec_ScoreBackfillsMissingTimestamp(t *testing.T) {
	ws, user := uuid.New(), uuid.New()
	member := fmt.Sprintf("BREAK_EXPIRATION:%s:%s:{}", ws, user)
	ev, err := decodeMember(member, 777)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Timestamp != 777 {
		t.Fatalf("timestamp = %d, want score fallback 777", ev.Timestamp)
	}
}

func testEventStore(t *testing.T) (*eventStore, func()) {
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
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	key := fmt.Sprintf("test:agent_status:events:%s", uuid.NewString())
	store := &eventStore{log: log, rdb: rdb, key: key}
	cleanup := func() {
		rdb.Del(context.Background(), key)
		rdb.Close()
	}
	return store, cleanup
}

func TestEventStore_RearmSupersedesPendingEvent(t *testing.T) {
	store, cleanup := testEventStore(t)
	defer cleanup()
	ctx := context.Background()
	ws, user := uuid.New(), uuid.New()

	if err := store.AddEvent(ctx, EventLastAccess, ws, user, 1000, map[string]any{"lastAccess": 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEvent(ctx, EventLastAccess, ws, user, 2000, map[string]any{"lastAccess": 2}); err != nil {
		t.Fatalf("rearm: %v", err)
	}

	ev, err := store.Event(ctx, EventLastAccess, ws, user)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev == nil || ev.Timestamp != 2000 {
		t.Fatalf("expected single rearmed event at 2000, got %+v", ev)
	}

	count, err := store.rdb.ZCard(ctx, store.key).Result()
	if err != nil {
		t.Fatalf("zcard: %v", err)
	}
	if count != 1 {
		t.Fatalf("rearm must not accumulate members, set has %d", count)
	}
}

func TestEventStore_ExpiryBoundaryIsInclusive(t *testing.T) {
	store, cleanup := testEventStore(t)
	defer cleanup()
	ctx := context.Background()
	ws := uuid.New()
	deadline := int64(5000)

	before, at, after := uuid.New(), uuid.New(), uuid.New()
	if err := store.AddEvent(ctx, EventBreakExpiration, ws, before, deadline-1, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEvent(ctx, EventBreakExpiration, ws, at, deadline, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEvent(ctx, EventBreakExpiration, ws, after, deadline+1, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	due := store.ExpiredEvents(ctx, deadline)
	if len(due) != 2 {
		t.Fatalf("got %d due events, want 2 (T-1 and T, not T+1)", len(due))
	}
	for _, ev := range due {
		if ev.UserID == after {
			t.Fatalf("event scored after the deadline must not be returned")
		}
	}
}

func TestEventStore_RemoveEventScopedByKeyPrefix(t *testing.T) {
	store, cleanup := testEventStore(t)
	defer cleanup()
	ctx := context.Background()
	ws, user, other := uuid.New(), uuid.New(), uuid.New()

	if err := store.AddEvent(ctx, EventLastAccess, ws, user, 1000, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEvent(ctx, EventBreakExpiration, ws, user, 2000, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddEvent(ctx, EventLastAccess, ws, other, 3000, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := store.RemoveEvent(ctx, EventLastAccess, ws, user); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if ev, _ := store.Event(ctx, EventLastAccess, ws, user); ev != nil {
		t.Fatalf("removed event still pending: %+v", ev)
	}
	if ev, _ := store.Event(ctx, EventBreakExpiration, ws, user); ev == nil {
		t.Fatalf("other event type for same user must survive")
	}
	if ev, _ := store.Event(ctx, EventLastAccess, ws, other); ev == nil {
		t.Fatalf("same event type for other user must survive")
	}
}

func TestEventStore_RemoveMissingEventIsNoop(t *testing.T) {
	store, cleanup := testEventStore(t)
	defer cleanup()

	if err := store.RemoveEvent(context.Background(), EventLastAccess, uuid.New(), uuid.New()); err != nil {
		t.Fatalf("removing a missing event must not error: %v", err)
	}
}

func TestEventStore_MalformedMemberDroppedDuringScan(t *testing.T) {
	store, cleanup := testEventStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.rdb.ZAdd(ctx, store.key, goredis.Z{Score: 1, Member: "garbage"}).Err(); err != nil {
		t.Fatalf("seed garbage: %v", err)
	}
	ws, user := uuid.New(), uuid.New()
	if err := store.AddEvent(ctx, EventLastAccess, ws, user, 2, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	due := store.ExpiredEvents(ctx, 10)
	if len(due) != 1 || due[0].UserID != user {
		t.Fatalf("expected only the valid event, got %+v", due)
	}
	count, err := store.rdb.ZCard(ctx, store.key).Result()
	if err != nil {
		t.Fatalf("zcard: %v", err)
	}
	if count != 1 {
		t.Fatalf("malformed member must be purged, set has %d members", count)
	}
}
