package presence

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RecordType string

const (
	RecordOnline   RecordType = "online"
	RecordBreak    RecordType = "break"
	RecordInactive RecordType = "inactive"
)

// WorkingTimeRecord is one presence interval for a user in a workspace.
// EndedAt == nil marks the record as active; there is no separate status
// flag, and at most one active record may exist per (workspace, user).
type WorkingTimeRecord struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;not null;index:idx_working_time_ws_user;index:idx_working_time_ws_type_started,priority:1" json:"workspace_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_working_time_ws_user" json:"user_id"`
	Type        RecordType `gorm:"type:varchar(16);not null;index:idx_working_time_ws_type_started,priority:2" json:"type"`

	// Team membership snapshotted at record creation. Later membership
	// changes do not rewrite history.
	TeamIDs datatypes.JSON `gorm:"column:team_ids;type:jsonb" json:"team_ids,omitempty"`

	// Interval bounds, epoch milliseconds.
	StartedAt int64  `gorm:"not null;index;index:idx_working_time_ws_type_started,priority:3" json:"started_at"`
	EndedAt   *int64 `gorm:"index" json:"ended_at,omitempty"`

	// Computed once at close time, never recomputed.
	DurationInSeconds    *int64 `json:"duration_in_seconds,omitempty"`
	BreakOvertimeSeconds *int64 `json:"break_overtime_seconds,omitempty"`

	// Frozen policy snapshots taken when the record opened, so later admin
	// edits never retroactively change a running interval's overtime math.
	ContextDurationSeconds            *int64 `json:"context_duration_seconds,omitempty"`
	ContextMaxInactiveDurationSeconds *int64 `json:"context_max_inactive_duration_seconds,omitempty"`

	BreakSettingID *uuid.UUID `gorm:"type:uuid" json:"break_setting_id,omitempty"`

	// Audit trail for admin-forced transitions.
	Justification        *string    `json:"justification,omitempty"`
	BreakChangedByUserID *uuid.UUID `gorm:"type:uuid;column:context_break_changed_by_user_id" json:"context_break_changed_by_user_id,omitempty"`
	BreakChangedByName   *string    `gorm:"column:context_break_changed_by_user_name" json:"context_break_changed_by_user_name,omitempty"`

	// Transient read-side annotation for ONLINE records: when the agent was
	// last seen, taken from the pending inactivity timer. Never persisted.
	ContextLastAccess *int64 `gorm:"-" json:"context_last_access,omitempty"`
}

func (WorkingTimeRecord) TableName() string { return "working_time" }

// Active reports whether the record is still open.
func (r *WorkingTimeRecord) Active() bool {
	return r != nil && r.EndedAt == nil
}

// UserPresenceTotals is the analytics read contract: aggregate time per user
// over a range of closed records.
type UserPresenceTotals struct {
	UserID               uuid.UUID `json:"user_id"`
	OnlineSeconds        int64     `json:"online_seconds"`
	BreakSeconds         int64     `json:"break_seconds"`
	InactiveSeconds      int64     `json:"inactive_seconds"`
	BreakOvertimeSeconds int64     `json:"break_overtime_seconds"`
}
