package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type EventType string

const (
	EventLastAccess      EventType = "LAST_ACCESS"
	EventBreakExpiration EventType = "BREAK_EXPIRATION"
)

// ScheduledEvent is one deferred event parsed back out of the sorted set.
type ScheduledEvent struct {
	Type        EventType
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	// Timestamp is the intended fire time, epoch milliseconds. It equals
	// the member's sort score.
	Timestamp int64
	Payload   map[string]any
	// Member is the raw encoded member, kept so the consumer can remove
	// exactly what it processed.
	Member string
}

// EventStore is a deferred-event primitive over a single sorted set: members
// are scored by fire time, keyed by (type, workspace, user). One pending
// event per key; rearming is last-write-wins.
type EventStore interface {
	// AddEvent removes any pending event for the same (type, workspace,
	// user) before inserting, so a rearm never accumulates stale members.
	AddEvent(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID, fireAt int64, payload map[string]any) error
	// RemoveEvent deletes all members matching the key prefix. Zero
	// matches is not an error.
	RemoveEvent(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID) error
	// Event returns the pending event for the key, or nil.
	Event(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID) (*ScheduledEvent, error)
	// ExpiredEvents returns every event scored at or before until. A store
	// outage degrades to an empty result: the next poll retries, the
	// caller never crashes.
	ExpiredEvents(ctx context.Context, until int64) []ScheduledEvent
	// RemoveMember deletes one raw member after it has been processed.
	RemoveMember(ctx context.Context, member string) error
}

type eventStore struct {
	log *logger.Logger
	rdb *goredis.Client
	key string
}

const defaultEventsKey = "agent_status:events"

func NewEventStore(log *logger.Logger, rdb *goredis.Client) EventStore {
	return &eventStore{
		log: log.With("component", "EventStore"),
		rdb: rdb,
		key: defaultEventsKey,
	}
}

type memberBody struct {
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func memberPrefix(typ EventType, workspaceID, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s:", typ, workspaceID, userID)
}

func encodeMember(typ EventType, workspaceID, userID uuid.UUID, fireAt int64, payload map[string]any) (string, error) {
	body, err := json.Marshal(memberBody{Timestamp: fireAt, Payload: payload})
	if err != nil {
		return "", err
	}
	return memberPrefix(typ, workspaceID, userID) + string(body), nil
}

// decodeMember parses "{TYPE}:{workspaceID}:{userID}:{json}". The UUID and
// type segments never contain a colon, so a 4-way split is unambiguous.
func decodeMember(member string, score int64) (ScheduledEvent, error) {
	parts := strings.SplitN(member, ":", 4)
	if len(parts) != 4 {
		return ScheduledEvent{}, fmt.Errorf("malformed event member %q", member)
	}
	workspaceID, err := uuid.Parse(parts[1])
	if err != nil {
		return ScheduledEvent{}, fmt.Errorf("bad workspace id in member %q: %w", member, err)
	}
	userID, err := uuid.Parse(parts[2])
	if err != nil {
		return ScheduledEvent{}, fmt.Errorf("bad user id in member %q: %w", member, err)
	}
	var body memberBody
	if err := json.Unmarshal([]byte(parts[3]), &body); err != nil {
		return ScheduledEvent{}, fmt.Errorf("bad event body in member %q: %w", member, err)
	}
	ts := body.Timestamp
	if ts == 0 {
		ts = score
	}
	return ScheduledEvent{
		Type:        EventType(parts[0]),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   ts,
		Payload:     body.Payload,
		Member:      member,
	}, nil
}

func (s *eventStore) AddEvent(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID, fireAt int64, payload map[string]any) error {
	member, err := encodeMember(typ, workspaceID, userID, fireAt, payload)
	if err != nil {
		return err
	}
	if err := s.RemoveEvent(ctx, typ, workspaceID, userID); err != nil {
		return err
	}
	return s.rdb.ZAdd(ctx, s.key, goredis.Z{
		Score:  float64(fireAt),
		Member: member,
	}).Err()
}

func (s *eventStore) RemoveEvent(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID) error {
	members, err := s.scanPrefix(ctx, memberPrefix(typ, workspaceID, userID))
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.rdb.ZRem(ctx, s.key, args...).Err()
}

func (s *eventStore) Event(ctx context.Context, typ EventType, workspaceID, userID uuid.UUID) (*ScheduledEvent, error) {
	members, err := s.scanPrefix(ctx, memberPrefix(typ, workspaceID, userID))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	score, err := s.rdb.ZScore(ctx, s.key, members[0]).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, err
	}
	ev, err := decodeMember(members[0], int64(score))
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (s *eventStore) ExpiredEvents(ctx context.Context, until int64) []ScheduledEvent {
	res, err := s.rdb.ZRangeByScoreWithScores(ctx, s.key, &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(until, 10),
	}).Result()
	if err != nil {
		s.log.Warn("expired events fetch failed, skipping this tick", "error", err)
		return nil
	}
	events := make([]ScheduledEvent, 0, len(res))
	for _, z := range res {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		ev, err := decodeMember(member, int64(z.Score))
		if err != nil {
			// A malformed member would otherwise be refetched forever.
			s.log.Warn("dropping malformed event member", "error", err)
			_ = s.rdb.ZRem(ctx, s.key, member).Err()
			continue
		}
		events = append(events, ev)
	}
	return events
}

func (s *eventStore) RemoveMember(ctx context.Context, member string) error {
	return s.rdb.ZRem(ctx, s.key, member).Err()
}

// scanPrefix collects members whose encoded key starts with prefix. The set
// is shared by all workspaces; scoping is by member content, not by key.
func (s *eventStore) scanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor  uint64
		members []string
	)
	match := prefix + "*"
	for {
		batch, next, err := s.rdb.ZScan(ctx, s.key, cursor, match, 100).Result()
		if err != nil {
			return nil, err
		}
		// ZSCAN yields member, score pairs.
		for i := 0; i+1 < len(batch); i += 2 {
			members = append(members, batch[i])
		}
		cursor = next
		if cursor == 0 {
			return members, nil
		}
	}
}
