// Package config loads the till configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Wizard   WizardConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects postgres (the shop server) or sqlite (a tablet on its own).
type DatabaseConfig struct {
	Driver   string
	DSNValue string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
	Debug    bool
}

type AppConfig struct {
	Dev           bool
	Migrations    bool
	CatalogFile   string
	SellerName    string
	SellerPIN     string
	SessionSecret string
}

// WizardConfig drives the invoice wizard defaults.
type WizardConfig struct {
	VATRate           float64 // percent
	MinDepositPercent float64
	SessionTTL        time.Duration
	PurgeSchedule     string
	EventLocation     string
}

// DSN returns the connection string for the configured driver. DATABASE_DSN wins when set.
func (d DatabaseConfig) DSN() string {
	if d.DSNValue != "" {
		return d.DSNValue
	}
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format, as golang-migrate wants it.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			DSNValue: getEnv("DATABASE_DSN", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "literie"),
			Password: getEnv("DB_PASSWORD", "literie123"),
			DBName:   getEnv("DB_NAME", "literie"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "literie.db"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:           getEnvBool("DEV", true),
			Migrations:    getEnvBool("MIGRATIONS", false),
			CatalogFile:   getEnv("CATALOG_FILE", "catalog.yaml"),
			SellerName:    getEnv("SELLER_NAME", "vendeur"),
			SellerPIN:     getEnv("SELLER_PIN", "0000"),
			SessionSecret: getEnv("SESSION_SECRET", ""),
		},
		Wizard: WizardConfig{
			VATRate:           getEnvFloat("VAT_RATE", 20),
			MinDepositPercent: getEnvFloat("MIN_DEPOSIT_PERCENT", 10),
			SessionTTL:        time.Duration(getEnvInt("WIZARD_SESSION_TTL", 720)) * time.Minute,
			PurgeSchedule:     getEnv("PURGE_SCHEDULE", "@every 10m"),
			EventLocation:     getEnv("EVENT_LOCATION", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvFloat accepts a decimal comma ("5,5").
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
