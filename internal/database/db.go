package database

import (
	"log"

	"sosach/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs auto-migration for all core models. Exposed separately so
// tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Rank{},
		&model.Unit{},
		&model.Department{},
		&model.Position{},
		&model.Book{},
		&model.BookEntry{},
		&model.TaskAssignment{},
		&model.TaskNote{},
		&model.TaskReminder{},
		&model.Notification{},
		&model.AuditLog{},
	)
}
