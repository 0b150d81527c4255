package db

import (
	"gorm.io/gorm"

	"github.com/veltahq/backoffice-backend/internal/domain/account"
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&account.User{},

		&presence.WorkingTimeRecord{},
		&presence.BreakSetting{},
		&presence.GeneralBreakSetting{},
	)
}

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
