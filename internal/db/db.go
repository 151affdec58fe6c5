// Package db opens the database, applies the schema and seeds the catalog and sellers.
package db

import (
	"errors"
	"fmt"
	"log"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/literie-pos/internal/config"
	"github.com/diewo77/literie-pos/internal/models"
)

// MigrationsDir is the golang-migrate source used when MIGRATIONS is on.
var MigrationsDir = "file://migrations"

const connectAttempts = 5

// Open connects to the configured driver. Postgres is retried for a few
// seconds so the container can finish starting.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level), TranslateError: true}

	if cfg.Driver == config.DriverSQLite {
		log.Printf("Opening sqlite database %s", cfg.DSN())
		db, err := gorm.Open(sqlite.Open(cfg.DSN()), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
	if cfg.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
	}

	dsn := NormalizeDSN(cfg.DSN())
	log.Printf("Connecting to database: %s", MaskDSN(dsn))
	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Printf("Connection attempt %d/%d failed: %v", i+1, connectAttempts, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after retries: %w", err)
	}
	if err := db.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema with gorm AutoMigrate.
func Migrate(db *gorm.DB) error {
	for _, m := range models.AllModels() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"sellers", "products", "invoices"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// MigrateSQL applies the versioned SQL files in MigrationsDir. Postgres only.
func MigrateSQL(cfg config.DatabaseConfig) error {
	if cfg.Driver != config.DriverPostgres {
		return fmt.Errorf("sql migrations need postgres, got %q", cfg.Driver)
	}
	m, err := migrate.New(MigrationsDir, ToURLDSN(NormalizeDSN(cfg.DSN())))
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Setup picks SQL migrations or AutoMigrate the way MIGRATIONS asks.
func Setup(db *gorm.DB, cfg *config.Config) error {
	if cfg.App.Migrations && cfg.Database.Driver == config.DriverPostgres {
		log.Println("Running SQL migrations")
		return MigrateSQL(cfg.Database)
	}
	return Migrate(db)
}
