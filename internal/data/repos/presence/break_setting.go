package presence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type BreakSettingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, setting *presence.BreakSetting) (*presence.BreakSetting, error)
	FindByIDAndWorkspace(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID) (*presence.BreakSetting, error)
	ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, includeDisabled bool) ([]*presence.BreakSetting, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID, updates map[string]any) (bool, error)
}

type breakSettingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBreakSettingRepo(db *gorm.DB, baseLog *logger.Logger) BreakSettingRepo {
	return &breakSettingRepo{
		db:  db,
		log: baseLog.With("repo", "BreakSettingRepo"),
	}
}

func (r *breakSettingRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *breakSettingRepo) Create(ctx context.Context, tx *gorm.DB, setting *presence.BreakSetting) (*presence.BreakSetting, error) {
	if setting.ID == uuid.Nil {
		setting.ID = uuid.New()
	}
	if err := r.handle(tx).WithContext(ctx).Create(setting).Error; err != nil {
		return nil, err
	}
	return setting, nil
}

func (r *breakSettingRepo) FindByIDAndWorkspace(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID) (*presence.BreakSetting, error) {
	var row presence.BreakSetting
	if err := r.handle(tx).WithContext(ctx).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *breakSettingRepo) ListByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, includeDisabled bool) ([]*presence.BreakSetting, error) {
	q := r.handle(tx).WithContext(ctx).Where("workspace_id = ?", workspaceID)
	if !includeDisabled {
		q = q.Where("enabled = true")
	}
	var rows []*presence.BreakSetting
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *breakSettingRepo) UpdateFields(ctx context.Context, tx *gorm.DB, workspaceID, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.handle(tx).WithContext(ctx).
		Model(&presence.BreakSetting{}).
		Where("id = ? AND workspace_id = ?", id, workspaceID).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
