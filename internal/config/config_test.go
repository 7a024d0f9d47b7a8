package config

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ENV", "DB_PATH", "PORT", "LOG_LEVEL", "VAT_RATE", "RATE_PER_KM", "SUPPLIER_NAME"} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())

	cfg := Load()
	assert.Equal(t, "./dev.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsDev())
	assert.True(t, decimal.NewFromInt(21).Equal(cfg.VatRate))
	assert.True(t, decimal.NewFromInt(18).Equal(cfg.RatePerKm))
	assert.Empty(t, cfg.Supplier.Name)
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "production")
	t.Setenv("DB_PATH", "/data/quotes.db")
	t.Setenv("VAT_RATE", "12,5")
	t.Setenv("RATE_PER_KM", "oops")
	t.Setenv("SUPPLIER_NAME", "Bazény s.r.o.")

	cfg := Load()
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "/data/quotes.db", cfg.DBPath)
	assert.True(t, decimal.RequireFromString("12.5").Equal(cfg.VatRate))
	assert.True(t, decimal.NewFromInt(18).Equal(cfg.RatePerKm), "invalid value keeps the default")
	assert.Equal(t, "Bazény s.r.o.", cfg.Supplier.Name)
}

func TestLoad_VatRateAboveHundredUsesDefault(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VAT_RATE", "121")

	cfg := Load()
	assert.True(t, decimal.NewFromInt(21).Equal(cfg.VatRate), "got %s", cfg.VatRate)

	t.Setenv("VAT_RATE", "100")
	assert.True(t, decimal.NewFromInt(100).Equal(Load().VatRate))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", false)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("key", "RAL").Msg("shown")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "JSON outside development")
	assert.Contains(t, out, `"key":"RAL"`)

	assert.Equal(t, zerolog.InfoLevel, NewLogger(&buf, "bogus", true).GetLevel())
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
