package presence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type GeneralBreakSettingRepo interface {
	FindByWorkspaceID(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (*presence.GeneralBreakSetting, error)
	Upsert(ctx context.Context, tx *gorm.DB, setting *presence.GeneralBreakSetting) (*presence.GeneralBreakSetting, error)
}

type generalBreakSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneralBreakSettingRepo(db *gorm.DB, baseLog *logger.Logger) GeneralBreakSettingRepo {
	return &generalBreakSettingRepo{
		db:  db,
		log: baseLog.With("repo", "GeneralBreakSettingRepo"),
	}
}

func (r *generalBreakSettingRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *generalBreakSettingRepo) FindByWorkspaceID(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) (*presence.GeneralBreakSetting, error) {
	var row presence.GeneralBreakSetting
	if err := r.handle(tx).WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *generalBreakSettingRepo) Upsert(ctx context.Context, tx *gorm.DB, setting *presence.GeneralBreakSetting) (*presence.GeneralBreakSetting, error) {
	if setting.ID == uuid.Nil {
		setting.ID = uuid.New()
	}
	err := r.handle(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "workspace_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"enabled",
				"notification_interval_seconds",
				"break_start_delay_seconds",
				"max_inactive_duration_seconds",
				"excluded_user_ids",
				"updated_at",
			}),
		}).
		Create(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}
