package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

// Open connects to the sqlite database at path and migrates the schema.
//
// The pool is limited to a single connection: sqlite allows one writer at a
// time, and the registration ledger relies on its transactions being
// serialized. It also keeps ":memory:" databases shared between goroutines.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	// Auto Migrate
	err = db.AutoMigrate(&models.User{}, &models.Event{}, &models.Registration{}, &models.Session{})
	if err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
}
