package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/data/repos/uploads"
	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

type Repos struct {
	UploadAttempt uploads.UploadAttemptRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UploadAttempt: uploads.NewUploadAttemptRepo(db, log),
	}
}
