package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultTimeout  = 5 * time.Second
	defaultMaxOpen  = 25
	defaultMaxIdle  = 25
	defaultLifetime = 5 * time.Minute
)

// Config captures the settings for opening the relational store.
type Config struct {
	Driver      string
	DSN         string
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	Timeout     time.Duration
	// Debug logs every statement through gorm's logger.
	Debug bool
}

// Open connects to the database, applies pool settings and verifies
// connectivity with a ping.
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: underlying pool: %w", err)
	}

	// ---- Connection Pool Settings ----
	sqlDB.SetMaxOpenConns(orInt(cfg.MaxOpen, defaultMaxOpen))
	sqlDB.SetMaxIdleConns(orInt(cfg.MaxIdle, defaultMaxIdle))
	lifetime := cfg.MaxLifetime
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users, roles and user_roles tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&roleRow{}, &userRow{}); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
