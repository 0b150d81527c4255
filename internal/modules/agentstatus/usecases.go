package agentstatus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	redisclients "github.com/veltahq/backoffice-backend/internal/clients/redis"
	accrepos "github.com/veltahq/backoffice-backend/internal/data/repos/account"
	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
	"github.com/veltahq/backoffice-backend/internal/realtime"
)

// Notifier receives presence changes for UI fan-out. Optional.
type Notifier interface {
	PresenceChanged(workspaceID uuid.UUID, event realtime.PresenceEvent, rec *presence.WorkingTimeRecord)
}

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	WorkingTime   presrepos.WorkingTimeRepo
	BreakSettings presrepos.BreakSettingRepo
	Users         accrepos.UserRepo

	Settings GeneralSettingsProvider
	Events   redisclients.EventStore
	Notifier Notifier

	// Now is the clock; nil means time.Now. Injected by tests.
	Now func() time.Time
}

// Usecases is the working-time state machine: the single source of truth for
// what an agent is doing right now. States are ONLINE, BREAK and INACTIVE;
// the absence of an open record is the implicit fourth state, offline. Every
// transition is idempotent so an at-least-once event feed can replay safely.
type Usecases struct {
	deps UsecasesDeps
	log  *logger.Logger
}

func NewUsecases(deps UsecasesDeps) Usecases {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return Usecases{
		deps: deps,
		log:  deps.Log.With("component", "AgentStatus"),
	}
}

func (u Usecases) nowMillis() int64 { return u.deps.Now().UnixMilli() }

// AdminChange is the audit trail for admin-forced transitions.
type AdminChange struct {
	Justification *string
	ChangedByID   uuid.UUID
	ChangedByName string
}

// Connect marks an agent ONLINE. Already-ONLINE agents get their inactivity
// timer refreshed and the existing record back, unchanged; an open break or
// inactivity interval is closed first.
func (u Usecases) Connect(ctx context.Context, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	settings := u.generalSettings(ctx, workspaceID)

	active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if active != nil && active.Type == presence.RecordOnline {
		u.armLastAccess(ctx, settings, workspaceID, userID)
		return active, nil
	}
	if active != nil {
		if _, err := u.closeRecord(ctx, active, nil); err != nil {
			return nil, err
		}
	}

	rec, err := u.openRecord(ctx, workspaceID, userID, presence.RecordOnline, func(r *presence.WorkingTimeRecord) {})
	if err != nil {
		return nil, err
	}

	u.armLastAccess(ctx, settings, workspaceID, userID)
	u.notify(workspaceID, realtime.EventAgentConnected, rec)
	return rec, nil
}

// Disconnect closes whatever interval is open, leaving the agent offline.
// Returns nil when nothing was open.
func (u Usecases) Disconnect(ctx context.Context, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	rec, err := u.EndBreak(ctx, workspaceID, userID, nil)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		u.notify(workspaceID, realtime.EventAgentDisconnected, rec)
	}
	return rec, nil
}

// StartBreak moves an ONLINE agent onto the named break policy. An agent
// already on a break or inactive keeps their current record; the configured
// break length is snapshotted into the record so later policy edits never
// change a running break's overtime math.
func (u Usecases) StartBreak(ctx context.Context, workspaceID, userID, settingID uuid.UUID, admin *AdminChange) (*presence.WorkingTimeRecord, error) {
	setting, err := u.deps.BreakSettings.FindByIDAndWorkspace(ctx, nil, workspaceID, settingID)
	if err != nil {
		return nil, err
	}
	if setting == nil || !setting.Enabled {
		return nil, apierr.NotFoundBreakSetting(fmt.Errorf("break setting %s not available for workspace %s", settingID, workspaceID))
	}

	active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if active != nil && active.Type != presence.RecordOnline {
		return active, nil
	}
	if active != nil {
		if _, err := u.closeRecord(ctx, active, nil); err != nil {
			return nil, err
		}
	}

	duration := setting.DurationSeconds
	rec, err := u.openRecord(ctx, workspaceID, userID, presence.RecordBreak, func(r *presence.WorkingTimeRecord) {
		r.ContextDurationSeconds = &duration
		r.BreakSettingID = &setting.ID
		applyAdmin(r, admin)
	})
	if err != nil {
		u.log.Error("start break failed", "workspace_id", workspaceID, "user_id", userID, "error", err)
		return nil, err
	}

	// Safety expiration: even if the client never calls EndBreak, the
	// consumer force-closes this record once the timer fires.
	settings := u.generalSettings(ctx, workspaceID)
	fireAt := u.nowMillis() + (settings.MaxInactiveDurationSeconds+duration)*1000
	u.armSafetyExpiration(ctx, workspaceID, userID, fireAt)

	u.notify(workspaceID, realtime.EventBreakStarted, rec)
	return rec, nil
}

// StartBreakInactive moves an ONLINE agent to INACTIVE after their
// last-access timer fired. A soft no-op when the workspace has inactivity
// detection disabled or the agent is not online: no record, no error.
func (u Usecases) StartBreakInactive(ctx context.Context, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	settings := u.generalSettings(ctx, workspaceID)
	if !settings.Enabled {
		return nil, nil
	}

	active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	if active.Type != presence.RecordOnline {
		return active, nil
	}
	if _, err := u.closeRecord(ctx, active, nil); err != nil {
		return nil, err
	}

	maxInactive := settings.MaxInactiveDurationSeconds
	rec, err := u.openRecord(ctx, workspaceID, userID, presence.RecordInactive, func(r *presence.WorkingTimeRecord) {
		r.ContextMaxInactiveDurationSeconds = &maxInactive
	})
	if err != nil {
		return nil, err
	}

	u.armSafetyExpiration(ctx, workspaceID, userID, u.nowMillis()+maxInactive*1000)
	u.notify(workspaceID, realtime.EventInactiveStarted, rec)
	return rec, nil
}

// EndBreak closes the agent's open record, computing duration and overtime.
// Returns nil when nothing is open; a concurrent closer losing the
// conditional update also gets nil rather than an error.
func (u Usecases) EndBreak(ctx context.Context, workspaceID, userID uuid.UUID, admin *AdminChange) (*presence.WorkingTimeRecord, error) {
	active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	performed, err := u.closeRecord(ctx, active, admin)
	if err != nil {
		return nil, err
	}
	if !performed {
		return nil, nil
	}
	if active.Type != presence.RecordOnline {
		u.notify(workspaceID, realtime.EventBreakEnded, active)
	}
	return active, nil
}

// EndBreakAndConnect closes the open interval and immediately reopens the
// agent as ONLINE.
func (u Usecases) EndBreakAndConnect(ctx context.Context, workspaceID, userID uuid.UUID, admin *AdminChange) (*presence.WorkingTimeRecord, error) {
	if _, err := u.EndBreak(ctx, workspaceID, userID, admin); err != nil {
		return nil, err
	}
	return u.Connect(ctx, workspaceID, userID)
}

// FindActiveByUserAndWorkspace returns the open record, annotated for ONLINE
// records with the transient last-access timestamp from the pending
// inactivity timer.
func (u Usecases) FindActiveByUserAndWorkspace(ctx context.Context, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	rec, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	u.annotateLastAccess(ctx, rec)
	return rec, nil
}

// FindActiveByUser is the cross-workspace variant used by session restore.
func (u Usecases) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	rec, err := u.deps.WorkingTime.FindActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	u.annotateLastAccess(ctx, rec)
	return rec, nil
}

// RefreshLastAccess rearms the inactivity timer for an ONLINE agent. Called
// from the activity middleware after the response has been written.
func (u Usecases) RefreshLastAccess(ctx context.Context, workspaceID, userID uuid.UUID) error {
	settings := u.generalSettings(ctx, workspaceID)
	if !settings.Enabled || settings.ExcludesUser(userID) {
		return nil
	}
	active, err := u.deps.WorkingTime.FindActiveByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		return err
	}
	if active == nil || active.Type != presence.RecordOnline {
		return nil
	}
	u.armLastAccess(ctx, settings, workspaceID, userID)
	return nil
}

func (u Usecases) openRecord(ctx context.Context, workspaceID, userID uuid.UUID, typ presence.RecordType, fill func(*presence.WorkingTimeRecord)) (*presence.WorkingTimeRecord, error) {
	teamIDs, err := u.deps.Users.GetTeamIDsByWorkspaceAndUser(ctx, nil, workspaceID, userID)
	if err != nil {
		u.log.Warn("team snapshot lookup failed", "workspace_id", workspaceID, "user_id", userID, "error", err)
	}
	encoded, err := presence.EncodeUUIDs(teamIDs)
	if err != nil {
		return nil, err
	}
	rec := &presence.WorkingTimeRecord{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Type:        typ,
		TeamIDs:     encoded,
		StartedAt:   u.nowMillis(),
	}
	fill(rec)
	return u.deps.WorkingTime.Create(ctx, nil, rec)
}

// closeRecord finalizes an open record: conditional close, derived duration
// and overtime, scheduled-event cleanup. Returns false when another caller
// closed the record first.
func (u Usecases) closeRecord(ctx context.Context, rec *presence.WorkingTimeRecord, admin *AdminChange) (bool, error) {
	endedAt := u.nowMillis()
	duration := (endedAt - rec.StartedAt) / 1000
	if duration < 0 {
		duration = 0
	}
	overtime := BreakOvertimeSeconds(rec.Type, duration, rec.ContextDurationSeconds)

	upd := presrepos.CloseUpdate{
		EndedAt:              endedAt,
		DurationInSeconds:    duration,
		BreakOvertimeSeconds: overtime,
	}
	if admin != nil {
		upd.Justification = admin.Justification
		if admin.ChangedByID != uuid.Nil {
			id := admin.ChangedByID
			name := admin.ChangedByName
			upd.ChangedByUserID = &id
			upd.ChangedByName = &name
		}
	}
	performed, err := u.deps.WorkingTime.Close(ctx, nil, rec.ID, upd)
	if err != nil {
		return false, err
	}
	if performed {
		rec.EndedAt = &endedAt
		rec.DurationInSeconds = &duration
		rec.BreakOvertimeSeconds = &overtime
		if admin != nil {
			rec.Justification = admin.Justification
			if admin.ChangedByID != uuid.Nil {
				id := admin.ChangedByID
				name := admin.ChangedByName
				rec.BreakChangedByUserID = &id
				rec.BreakChangedByName = &name
			}
		}
	}

	// Cancel before any competing rearm: a closed record must not leave a
	// timer behind.
	u.removeEvent(ctx, redisclients.EventBreakExpiration, rec.WorkspaceID, rec.UserID)
	u.removeEvent(ctx, redisclients.EventLastAccess, rec.WorkspaceID, rec.UserID)
	return performed, nil
}

// generalSettings never fails the transition: a settings outage degrades to
// "inactivity detection off" defaults.
func (u Usecases) generalSettings(ctx context.Context, workspaceID uuid.UUID) *presence.GeneralBreakSetting {
	settings, err := u.deps.Settings.Get(ctx, workspaceID)
	if err != nil || settings == nil {
		if err != nil {
			u.log.Warn("general settings lookup failed", "workspace_id", workspaceID, "error", err)
		}
		return &presence.GeneralBreakSetting{WorkspaceID: workspaceID}
	}
	return settings
}

func (u Usecases) armLastAccess(ctx context.Context, settings *presence.GeneralBreakSetting, workspaceID, userID uuid.UUID) {
	if !settings.Enabled || settings.ExcludesUser(userID) {
		u.removeEvent(ctx, redisclients.EventLastAccess, workspaceID, userID)
		return
	}
	now := u.nowMillis()
	fireAt := now + (settings.NotificationIntervalSeconds+settings.BreakStartDelaySeconds)*1000
	err := u.deps.Events.AddEvent(ctx, redisclients.EventLastAccess, workspaceID, userID, fireAt, map[string]any{
		"lastAccess": now,
	})
	if err != nil {
		u.log.Warn("arming last-access timer failed", "workspace_id", workspaceID, "user_id", userID, "error", err)
	}
}

func (u Usecases) armSafetyExpiration(ctx context.Context, workspaceID, userID uuid.UUID, fireAt int64) {
	err := u.deps.Events.AddEvent(ctx, redisclients.EventBreakExpiration, workspaceID, userID, fireAt, nil)
	if err != nil {
		u.log.Warn("arming safety expiration failed", "workspace_id", workspaceID, "user_id", userID, "error", err)
	}
}

func (u Usecases) removeEvent(ctx context.Context, typ redisclients.EventType, workspaceID, userID uuid.UUID) {
	if err := u.deps.Events.RemoveEvent(ctx, typ, workspaceID, userID); err != nil {
		u.log.Warn("removing scheduled event failed", "event_type", typ, "workspace_id", workspaceID, "user_id", userID, "error", err)
	}
}

func (u Usecases) annotateLastAccess(ctx context.Context, rec *presence.WorkingTimeRecord) {
	if rec == nil || rec.Type != presence.RecordOnline {
		return
	}
	ev, err := u.deps.Events.Event(ctx, redisclients.EventLastAccess, rec.WorkspaceID, rec.UserID)
	if err != nil || ev == nil {
		return
	}
	if raw, ok := ev.Payload["lastAccess"]; ok {
		if f, ok := raw.(float64); ok {
			ts := int64(f)
			rec.ContextLastAccess = &ts
		}
	}
}

func (u Usecases) notify(workspaceID uuid.UUID, event realtime.PresenceEvent, rec *presence.WorkingTimeRecord) {
	if u.deps.Notifier == nil {
		return
	}
	u.deps.Notifier.PresenceChanged(workspaceID, event, rec)
}

func applyAdmin(r *presence.WorkingTimeRecord, admin *AdminChange) {
	if admin == nil {
		return
	}
	r.Justification = admin.Justification
	if admin.ChangedByID != uuid.Nil {
		id := admin.ChangedByID
		name := admin.ChangedByName
		r.BreakChangedByUserID = &id
		r.BreakChangedByName = &name
	}
}
