package account

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index" json:"workspace_id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	Name        string    `gorm:"not null" json:"name"`
	Role        string    `gorm:"not null;default:'agent'" json:"role"`

	// Current team memberships. Presence records snapshot these at open
	// time; this column is the live view.
	TeamIDs datatypes.JSON `gorm:"column:team_ids;type:jsonb" json:"team_ids,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
