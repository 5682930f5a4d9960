package database

import (
	"log/slog"
	"strings"

	"github.com/arnold/goalsteps-api/internal/config"
	"github.com/arnold/goalsteps-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	db, err := Open(cfg.DatabaseURL, LogLevel(cfg.Level()))
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// Open picks PostgreSQL when url starts with postgres, otherwise treats
// url as a SQLite path or DSN.
func Open(url string, level logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(url, "postgres") {
		dialector = postgres.Open(url)
	} else {
		dialector = sqlite.Open(url)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
}

// LogLevel maps the process log level onto gorm's. SQL statements are only
// printed at debug.
func LogLevel(l slog.Level) logger.LogLevel {
	switch {
	case l <= slog.LevelDebug:
		return logger.Info
	case l >= slog.LevelError:
		return logger.Error
	default:
		return logger.Warn
	}
}

func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.GoalRecord{},
	)
}
