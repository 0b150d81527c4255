package presence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BreakSetting is a named per-workspace break policy. Settings are
// soft-disabled rather than deleted so historic records keep a valid
// reference.
type BreakSetting struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID     uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Name            string    `gorm:"not null" json:"name"`
	DurationSeconds int64     `gorm:"not null" json:"duration_seconds"`
	Enabled         bool      `gorm:"not null;default:true" json:"enabled"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (BreakSetting) TableName() string { return "break_setting" }

// GeneralBreakSetting governs automatic inactivity detection for one
// workspace.
type GeneralBreakSetting struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"workspace_id"`

	Enabled                     bool  `gorm:"not null;default:false" json:"enabled"`
	NotificationIntervalSeconds int64 `gorm:"not null;default:0" json:"notification_interval_seconds"`
	BreakStartDelaySeconds      int64 `gorm:"not null;default:0" json:"break_start_delay_seconds"`
	MaxInactiveDurationSeconds  int64 `gorm:"not null;default:0" json:"max_inactive_duration_seconds"`

	// Users never auto-inactivated (bots, supervisors, wallboards).
	ExcludedUserIDs datatypes.JSON `gorm:"column:excluded_user_ids;type:jsonb" json:"excluded_user_ids,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (GeneralBreakSetting) TableName() string { return "general_break_setting" }

// ExcludesUser reports whether the user is exempt from inactivity detection.
func (g *GeneralBreakSetting) ExcludesUser(userID uuid.UUID) bool {
	if g == nil || len(g.ExcludedUserIDs) == 0 {
		return false
	}
	ids, err := DecodeUUIDs(g.ExcludedUserIDs)
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == userID {
			return true
		}
	}
	return false
}
