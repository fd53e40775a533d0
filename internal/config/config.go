package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type AppConfig struct {
	Port string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

// PricingConfig drives the checkout breakdown: a flat tax rate, a fixed
// shipping charge, and the subtotal above which shipping is free.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	ShippingCharge        decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxOnShipping         bool
}

type SessionConfig struct {
	TTL time.Duration
}

type RateLimitConfig struct {
	Capacity       int
	RefillInterval time.Duration
}

type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Pricing   PricingConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from the environment, optionally seeding it from a
// .env file first. Database settings are required; everything else falls back
// to sane defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = envOrDefault("APP_PORT", "8080")

	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"DB_HOST", &cfg.Postgres.Host},
		{"DB_PORT", &cfg.Postgres.Port},
		{"DB_USER", &cfg.Postgres.User},
		{"DB_PASSWORD", &cfg.Postgres.Password},
		{"DB_NAME", &cfg.Postgres.DBName},
	} {
		*v.dst = os.Getenv(v.name)
		if *v.dst == "" {
			return nil, fmt.Errorf("config: %s is required", v.name)
		}
	}
	cfg.Postgres.SSLMode = envOrDefault("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = envOrDefault("MIGRATIONS_PATH", "migrations")

	var err error
	if cfg.Postgres.MaxConns, err = envInt32("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.Postgres.MinConns, err = envInt32("DB_MIN_CONNS", 2); err != nil {
		return nil, err
	}
	if cfg.Postgres.MaxConnLifetime, err = envDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Pricing.TaxRate, err = envDecimal("TAX_RATE", "0.18"); err != nil {
		return nil, err
	}
	if cfg.Pricing.ShippingCharge, err = envDecimal("SHIPPING_CHARGE", "99"); err != nil {
		return nil, err
	}
	if cfg.Pricing.FreeShippingThreshold, err = envDecimal("FREE_SHIPPING_THRESHOLD", "2000"); err != nil {
		return nil, err
	}
	cfg.Pricing.TaxOnShipping = envOrDefault("TAX_ON_SHIPPING", "false") == "true"

	if cfg.Session.TTL, err = envDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Capacity, err = envIntVal("RATE_LIMIT_CAPACITY", 60); err != nil {
		return nil, err
	}
	if cfg.RateLimit.RefillInterval, err = envDuration("RATE_LIMIT_REFILL_INTERVAL", time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func envIntVal(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return n, nil
}

func envInt32(name string, def int32) (int32, error) {
	n, err := envIntVal(name, int(def))
	return int32(n), err
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

func envDecimal(name, def string) (decimal.Decimal, error) {
	v := os.Getenv(name)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	return d, nil
}
