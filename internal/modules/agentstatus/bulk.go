package agentstatus

import (
	"context"

	"github.com/google/uuid"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
)

// BulkBreakChange is an admin action over many agents at once: either force
// everyone offline or put everyone on the given break policy.
type BulkBreakChange struct {
	UserIDs         []string
	BreakSettingID  *uuid.UUID
	ChangeToOffline bool
	Justification   *string
}

type BulkResult struct {
	Success bool        `json:"success"`
	Changed []uuid.UUID `json:"changed"`
	Skipped []string    `json:"skipped"`
}

// BulkBreakChangeByAdmin applies the change per user with per-user
// isolation: invalid identifiers and individual failures are skipped and
// logged, never aborting the batch. Only a missing break setting fails the
// whole call, since every user would fail the same way.
func (u Usecases) BulkBreakChangeByAdmin(ctx context.Context, workspaceID uuid.UUID, in BulkBreakChange, adminID uuid.UUID, adminName string) (BulkResult, error) {
	admin := &AdminChange{
		Justification: in.Justification,
		ChangedByID:   adminID,
		ChangedByName: adminName,
	}

	if !in.ChangeToOffline {
		if in.BreakSettingID == nil {
			return BulkResult{}, apierr.NotFoundBreakSetting(nil)
		}
		setting, err := u.deps.BreakSettings.FindByIDAndWorkspace(ctx, nil, workspaceID, *in.BreakSettingID)
		if err != nil {
			return BulkResult{}, err
		}
		if setting == nil || !setting.Enabled {
			return BulkResult{}, apierr.NotFoundBreakSetting(nil)
		}
	}

	result := BulkResult{Success: true, Changed: []uuid.UUID{}, Skipped: []string{}}
	for _, raw := range in.UserIDs {
		userID, err := uuid.Parse(raw)
		if err != nil {
			u.log.Warn("skipping invalid user id in bulk break change", "raw_id", raw)
			result.Skipped = append(result.Skipped, raw)
			continue
		}

		if in.ChangeToOffline {
			rec, err := u.EndBreak(ctx, workspaceID, userID, admin)
			if err != nil {
				u.log.Error("bulk offline failed for user", "workspace_id", workspaceID, "user_id", userID, "error", err)
				result.Skipped = append(result.Skipped, raw)
				continue
			}
			if rec == nil {
				result.Skipped = append(result.Skipped, raw)
				continue
			}
			result.Changed = append(result.Changed, userID)
			continue
		}

		active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
		if err != nil {
			u.log.Error("bulk break lookup failed for user", "workspace_id", workspaceID, "user_id", userID, "error", err)
			result.Skipped = append(result.Skipped, raw)
			continue
		}
		if active != nil && active.Type != presence.RecordOnline {
			result.Skipped = append(result.Skipped, raw)
			continue
		}
		if _, err := u.StartBreak(ctx, workspaceID, userID, *in.BreakSettingID, admin); err != nil {
			u.log.Error("bulk break start failed for user", "workspace_id", workspaceID, "user_id", userID, "error", err)
			result.Skipped = append(result.Skipped, raw)
			continue
		}
		result.Changed = append(result.Changed, userID)
	}
	return result, nil
}
