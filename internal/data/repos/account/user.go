package account

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/account"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *account.User) (*account.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*account.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*account.User, error)
	// GetTeamIDsByWorkspaceAndUser returns the user's current team
	// memberships; presence records snapshot this at open time.
	GetTeamIDsByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) ([]uuid.UUID, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		db:  db,
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, user *account.User) (*account.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := r.handle(tx).WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*account.User, error) {
	var row account.User
	if err := r.handle(tx).WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*account.User, error) {
	var row account.User
	if err := r.handle(tx).WithContext(ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetTeamIDsByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) ([]uuid.UUID, error) {
	var row account.User
	if err := r.handle(tx).WithContext(ctx).
		Select("id", "team_ids").
		Where("id = ? AND workspace_id = ?", userID, workspaceID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return presence.DecodeUUIDs(row.TeamIDs)
}
