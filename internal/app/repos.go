package app

import (
	"gorm.io/gorm"

	accrepos "github.com/veltahq/backoffice-backend/internal/data/repos/account"
	presrepos "github.com/veltahq/backoffice-backend/internal/data/repos/presence"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type Repos struct {
	Users           accrepos.UserRepo
	WorkingTime     presrepos.WorkingTimeRepo
	BreakSettings   presrepos.BreakSettingRepo
	GeneralSettings presrepos.GeneralBreakSettingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Users:           accrepos.NewUserRepo(db, log),
		WorkingTime:     presrepos.NewWorkingTimeRepo(db, log),
		BreakSettings:   presrepos.NewBreakSettingRepo(db, log),
		GeneralSettings: presrepos.NewGeneralBreakSettingRepo(db, log),
	}
}
