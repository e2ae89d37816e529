package db

import (
	"testing"

	"github.com/yungbote/asset-gallery-backend/internal/platform/logger"
)

func TestNewServiceSQLiteMemoryMigrates(t *testing.T) {
	svc, err := NewService(logger.NewNop(), Config{Driver: "sqlite", DSN: "file::memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()
	if svc.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%q got=%q", DriverSQLite, svc.Driver())
	}
	if err := AutoMigrateAll(svc.DB()); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable("upload_attempts") {
		t.Fatalf("upload_attempts table missing")
	}
}

func TestNewServiceRejectsUnknownDriver(t *testing.T) {
	if _, err := NewService(logger.NewNop(), Config{Driver: "mysql"}); err == nil {
		t.Fatalf("NewService: expected error for unknown driver")
	}
}

func TestNewServicePostgresRequiresDSN(t *testing.T) {
	if _, err := NewService(logger.NewNop(), Config{Driver: "postgres"}); err == nil {
		t.Fatalf("NewService: expected error for missing dsn")
	}
}
