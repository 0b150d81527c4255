package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

// CloseUpdate carries everything written when a record is closed. Duration
// and overtime are computed once here, never recomputed.
type CloseUpdate struct {
	EndedAt              int64
	DurationInSeconds    int64
	BreakOvertimeSeconds int64
	Justification        *string
	ChangedByUserID      *uuid.UUID
	ChangedByName        *string
}

type WorkingTimeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *presence.WorkingTimeRecord) (*presence.WorkingTimeRecord, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*presence.WorkingTimeRecord, error)
	FindActiveByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error)
	FindActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*presence.WorkingTimeRecord, error)
	FindActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*presence.WorkingTimeRecord, error)
	// Close sets ended_at and the derived fields on an open record. The
	// update is conditional on ended_at IS NULL so a concurrent closer
	// (client endBreak racing the consumer's forced expiration) loses
	// cleanly: it observes zero rows and backs off. Returns whether this
	// caller performed the close.
	Close(ctx context.Context, tx *gorm.DB, id int64, upd CloseUpdate) (bool, error)
	TotalsByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, fromMs, toMs int64) ([]presence.UserPresenceTotals, error)
}

type workingTimeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkingTimeRepo(db *gorm.DB, baseLog *logger.Logger) WorkingTimeRepo {
	return &workingTimeRepo{
		db:  db,
		log: baseLog.With("repo", "WorkingTimeRepo"),
	}
}

func (r *workingTimeRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *workingTimeRepo) Create(ctx context.Context, tx *gorm.DB, rec *presence.WorkingTimeRecord) (*presence.WorkingTimeRecord, error) {
	if err := r.handle(tx).WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *workingTimeRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*presence.WorkingTimeRecord, error) {
	var row presence.WorkingTimeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *workingTimeRepo) FindActiveByWorkspaceAndUser(ctx context.Context, tx *gorm.DB, workspaceID, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	var row presence.WorkingTimeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("workspace_id = ? AND user_id = ? AND ended_at IS NULL", workspaceID, userID).
		Order("started_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *workingTimeRepo) FindActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*presence.WorkingTimeRecord, error) {
	var row presence.WorkingTimeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("user_id = ? AND ended_at IS NULL", userID).
		Order("started_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *workingTimeRepo) FindActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*presence.WorkingTimeRecord, error) {
	var rows []*presence.WorkingTimeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("workspace_id = ? AND ended_at IS NULL", workspaceID).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *workingTimeRepo) Close(ctx context.Context, tx *gorm.DB, id int64, upd CloseUpdate) (bool, error) {
	updates := map[string]any{
		"ended_at":               upd.EndedAt,
		"duration_in_seconds":    upd.DurationInSeconds,
		"break_overtime_seconds": upd.BreakOvertimeSeconds,
	}
	if upd.Justification != nil {
		updates["justification"] = *upd.Justification
	}
	if upd.ChangedByUserID != nil {
		updates["context_break_changed_by_user_id"] = *upd.ChangedByUserID
	}
	if upd.ChangedByName != nil {
		updates["context_break_changed_by_user_name"] = *upd.ChangedByName
	}
	res := r.handle(tx).WithContext(ctx).
		Model(&presence.WorkingTimeRecord{}).
		Where("id = ? AND ended_at IS NULL", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *workingTimeRepo) TotalsByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, fromMs, toMs int64) ([]presence.UserPresenceTotals, error) {
	if toMs <= 0 {
		toMs = time.Now().UnixMilli()
	}
	var rows []presence.UserPresenceTotals
	err := r.handle(tx).WithContext(ctx).
		Model(&presence.WorkingTimeRecord{}).
		Select(`user_id,
			COALESCE(SUM(CASE WHEN type = 'online' THEN duration_in_seconds ELSE 0 END), 0) AS online_seconds,
			COALESCE(SUM(CASE WHEN type = 'break' THEN duration_in_seconds ELSE 0 END), 0) AS break_seconds,
			COALESCE(SUM(CASE WHEN type = 'inactive' THEN duration_in_seconds ELSE 0 END), 0) AS inactive_seconds,
			COALESCE(SUM(break_overtime_seconds), 0) AS break_overtime_seconds`).
		Where("workspace_id = ? AND started_at >= ? AND started_at < ? AND ended_at IS NOT NULL", workspaceID, fromMs, toMs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
