// Package config loads the service configuration from RESERVATION_-prefixed
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BnBPlug/service-reservation/internal/platform/database"
	"github.com/spf13/viper"
)

const envPrefix = "RESERVATION"

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// BookingConfig holds the pricing and workflow settings.
type BookingConfig struct {
	CatalogPath        string
	CleaningFee        int64
	ServiceFee         int64
	Currency           string
	DraftTTL           time.Duration
	DraftSweepSchedule string
	IDMaxAttempts      int
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	MigrationsPath string
	DBConfig       database.PostgresConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	Booking        BookingConfig
}

// Load reads configuration from the environment.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	cfg := &ServiceConfig{
		Port:           normalizePort(v.GetString("SERVICE_PORT")),
		AppEnv:         v.GetString("APP_ENV"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Booking: BookingConfig{
			CatalogPath:        v.GetString("CATALOG_PATH"),
			CleaningFee:        v.GetInt64("CLEANING_FEE"),
			ServiceFee:         v.GetInt64("SERVICE_FEE"),
			Currency:           strings.ToUpper(v.GetString("CURRENCY")),
			DraftTTL:           v.GetDuration("DRAFT_TTL"),
			DraftSweepSchedule: v.GetString("DRAFT_SWEEP_SCHEDULE"),
			IDMaxAttempts:      v.GetInt("ID_MAX_ATTEMPTS"),
		},
	}

	if cfg.JWTConfig.Secret == "" && cfg.AppEnv == "development" {
		cfg.JWTConfig.Secret = "development-only-secret"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "reservation_db")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("JWT_REFRESH_TTL", 7*24*time.Hour)

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "bnbplug-")

	v.SetDefault("CATALOG_PATH", "data/properties.xml")
	v.SetDefault("CLEANING_FEE", 1500)
	v.SetDefault("SERVICE_FEE", 1000)
	v.SetDefault("CURRENCY", "KES")
	v.SetDefault("DRAFT_TTL", 30*time.Minute)
	v.SetDefault("DRAFT_SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("ID_MAX_ATTEMPTS", 3)
}

func (c *ServiceConfig) validate() error {
	var errs []error
	if c.Booking.CleaningFee < 0 {
		errs = append(errs, errors.New("CLEANING_FEE must not be negative"))
	}
	if c.Booking.ServiceFee < 0 {
		errs = append(errs, errors.New("SERVICE_FEE must not be negative"))
	}
	if c.Booking.IDMaxAttempts < 1 {
		errs = append(errs, errors.New("ID_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Booking.DraftTTL <= 0 {
		errs = append(errs, errors.New("DRAFT_TTL must be positive"))
	}
	if c.Booking.Currency == "" {
		errs = append(errs, errors.New("CURRENCY is required"))
	}
	if c.AppEnv != "development" && c.JWTConfig.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func normalizePort(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
