package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/asset-gallery-backend/internal/domain/assets"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&assets.UploadAttempt{},
	)
}
