package agentstatus

import (
	"context"

	"github.com/veltahq/backoffice-backend/internal/events"
)

// HandleDomainEvent re-enters the state machine for a delivered domain
// event. Safe under duplicate delivery: starting an already-started
// inactivity and closing an already-closed record are both no-ops.
func (u Usecases) HandleDomainEvent(ctx context.Context, ev events.Event) {
	switch ev.Type {
	case events.TypeStartInactive:
		if _, err := u.StartBreakInactive(ctx, ev.Data.WorkspaceID, ev.Data.UserID); err != nil {
			u.log.Error("start inactivity failed", "workspace_id", ev.Data.WorkspaceID, "user_id", ev.Data.UserID, "error", err)
		}
	case events.TypeEndInactive:
		if _, err := u.EndBreak(ctx, ev.Data.WorkspaceID, ev.Data.UserID, nil); err != nil {
			u.log.Error("forced close failed", "workspace_id", ev.Data.WorkspaceID, "user_id", ev.Data.UserID, "error", err)
		}
	default:
		u.log.Warn("ignoring unknown domain event", "type", ev.Type)
	}
}
