package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusPublished UploadStatus = "published"
	UploadStatusFailed    UploadStatus = "failed"
	// UploadStatusOrphaned means the primary object is still in the store
	// with no published record and no successful cleanup.
	UploadStatusOrphaned UploadStatus = "orphaned"
)

// UploadAttempt is the journal row for one Submit.
type UploadAttempt struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Category     string         `gorm:"column:category;not null;index" json:"category"`
	Name         string         `gorm:"column:name;not null;index" json:"name"`
	Timestamp    int64          `gorm:"column:ts;not null" json:"ts"`
	PrimaryKey   string         `gorm:"column:primary_key;not null" json:"primary_key"`
	ThumbnailKey string         `gorm:"column:thumbnail_key" json:"thumbnail_key"`
	Status       UploadStatus   `gorm:"column:status;not null;index" json:"status"`
	Error        string         `gorm:"column:error" json:"error,omitempty"`
	Record       datatypes.JSON `gorm:"column:record" json:"record,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UploadAttempt) TableName() string { return "upload_attempts" }
