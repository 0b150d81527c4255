package events

import (
	"context"

	"github.com/google/uuid"
)

type Type string

const (
	// TypeStartInactive asks the state machine to move an agent from
	// ONLINE to INACTIVE after their last-access timer fired.
	TypeStartInactive Type = "START_INACTIVE"
	// TypeEndInactive asks the state machine to force-close a break or
	// inactivity interval whose safety timer fired.
	TypeEndInactive Type = "END_INACTIVE"
)

type Data struct {
	WorkspaceID uuid.UUID `json:"workspaceId"`
	UserID      uuid.UUID `json:"userId"`
}

type Event struct {
	Type Type `json:"type"`
	Data Data `json:"data"`
}

// Publisher is the downstream sink the event consumer dispatches into.
// Delivery is at-least-once: a crash between dispatch and event-store
// cleanup can replay an event, so handlers must be idempotent.
type Publisher interface {
	Send(ctx context.Context, ev Event) error
}

type Bus interface {
	Publisher
	// StartForwarder subscribes and invokes onEvent for every received
	// event until ctx is cancelled.
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
