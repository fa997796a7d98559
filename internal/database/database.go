// Package database manages the gorm connection and schema for camwatch.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

// Initialize sets up the database connection based on the configured type
// and migrates the schema.
func Initialize() error {
	cfg := config.Get()

	var err error
	switch cfg.Database.Type {
	case "postgres":
		db, err = connectPostgres(cfg.Database)
	case "sqlite":
		db, err = connectSQLite(cfg.Database)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database initialized", "type", cfg.Database.Type)
	return nil
}

// Migrate runs schema migrations for all core models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Camera{}, &Sensor{}, &Recording{})
}

func connectPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogMode(cfg),
	})
}

func connectSQLite(cfg config.DatabaseConfig) (*gorm.DB, error) {
	path := cfg.DatabasePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormLogMode(cfg),
	})
}

func gormLogMode(cfg config.DatabaseConfig) gormlogger.Interface {
	if cfg.LogQueries {
		return gormlogger.Default.LogMode(gormlogger.Info)
	}
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// SetDB overrides the database instance (used by tests)
func SetDB(override *gorm.DB) {
	db = override
}
