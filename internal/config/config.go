package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/poolquote/internal/export"
	"github.com/Simplici0/poolquote/internal/pricing"
)

const (
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultEnv      = "development"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	LogLevel      string

	VatRate   decimal.Decimal
	RatePerKm decimal.Decimal

	Supplier export.Supplier
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Production injects real environment variables; .env is a local convenience.
	if n, err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to read .env")
	} else if n > 0 {
		log.Debug().Int("keys", n).Msg("loaded .env")
	}

	cfg := Config{
		Env:           os.Getenv("ENV"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DBPath:        os.Getenv("DB_PATH"),
		Port:          os.Getenv("PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		VatRate:       envDecimal("VAT_RATE", decimal.NewFromInt(pricing.DefaultVatRate)),
		RatePerKm:     envDecimal("RATE_PER_KM", decimal.NewFromInt(pricing.DefaultRatePerKm)),
		Supplier: export.Supplier{
			Name:    os.Getenv("SUPPLIER_NAME"),
			Address: os.Getenv("SUPPLIER_ADDRESS"),
			TaxID:   os.Getenv("SUPPLIER_TAX_ID"),
			Phone:   os.Getenv("SUPPLIER_PHONE"),
			Email:   os.Getenv("SUPPLIER_EMAIL"),
			Web:     os.Getenv("SUPPLIER_WEB"),
		},
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.VatRate.GreaterThan(decimal.NewFromInt(100)) {
		log.Warn().Str("key", "VAT_RATE").Str("value", cfg.VatRate.String()).Msg("VAT rate above 100 %, using default")
		cfg.VatRate = decimal.NewFromInt(pricing.DefaultVatRate)
	}

	if cfg.AdminEmail == "" {
		log.Warn().Msg("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Warn().Msg("ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Warn().Msg("SESSION_SECRET is not set")
	}

	return cfg
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Logger returns the process logger: human-readable on stderr in development,
// JSON otherwise.
func (c Config) Logger() zerolog.Logger {
	return NewLogger(os.Stderr, c.LogLevel, c.IsDev())
}

// NewLogger builds a zerolog logger writing to w at the named level. An
// unknown level falls back to info.
func NewLogger(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || v.IsNegative() {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid decimal, using default")
		return fallback
	}
	return v
}
