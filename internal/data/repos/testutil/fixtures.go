package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/account"
	domainpresence "github.com/veltahq/backoffice-backend/internal/domain/presence"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, email string) *account.User {
	tb.Helper()
	u := &account.User{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Email:       email,
		Password:    "pw",
		Name:        "Agent",
		Role:        "agent",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedBreakSetting(tb testing.TB, ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, name string, durationSeconds int64) *domainpresence.BreakSetting {
	tb.Helper()
	s := &domainpresence.BreakSetting{
		ID:              uuid.New(),
		WorkspaceID:     workspaceID,
		Name:            name,
		DurationSeconds: durationSeconds,
		Enabled:         true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed break setting: %v", err)
	}
	return s
}

func SeedWorkingTime(tb testing.TB, ctx context.Context, tx *gorm.DB, rec *domainpresence.WorkingTimeRecord) *domainpresence.WorkingTimeRecord {
	tb.Helper()
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed working time record: %v", err)
	}
	return rec
}
