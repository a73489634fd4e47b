package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-ledger/internal/errs"
	"go-pos-ledger/internal/models"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_PORT", "BASE_URL", "DB_DRIVER", "DB_DSN",
		"JWT_SECRET", "CORS_ORIGINS", "LOYALTY_CONFIG", "TIMEZONE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/pos")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.App.CORSOrigins)
	assert.Equal(t, "UTC", cfg.App.Location.String())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte(
		"APP_ENV=development\nDB_DRIVER=memory\nCORS_ORIGINS=http://a.test, http://b.test\nTIMEZONE=UTC\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSOrigins)
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]map[string]string{
		"mysql without dsn": {"DB_DRIVER": "mysql", "JWT_SECRET": "x", "TIMEZONE": "UTC"},
		"unknown driver":    {"DB_DRIVER": "oracle", "JWT_SECRET": "x", "TIMEZONE": "UTC"},
		"no secret in prod": {"DB_DRIVER": "memory", "TIMEZONE": "UTC"},
		"bad timezone":      {"DB_DRIVER": "memory", "JWT_SECRET": "x", "TIMEZONE": "Mars/Olympus"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadLoyaltyShippedProgram(t *testing.T) {
	s, err := LoadLoyalty(filepath.Join("..", "..", "config", "loyalty.yaml"))
	require.NoError(t, err)

	require.Len(t, s.EarningRules, 2)
	require.NotNil(t, s.EarningRules[0].MaxSpend)
	assert.True(t, s.EarningRules[0].MaxSpend.Equal(decimal.NewFromInt(5000)))
	assert.Nil(t, s.EarningRules[1].MaxSpend)
	assert.Equal(t, models.RedeemFixedValue, s.Redemption.Method)
	assert.Len(t, s.Tiers, 3)
	assert.Equal(t, models.Period{Value: 6, Unit: models.PeriodMonths}, s.Tiers[1].Period)
	assert.Equal(t, 1.25, s.Tiers[1].PointsMultiplier)
	assert.True(t, s.Expiry.Enabled)
}

func TestLoadLoyaltyDefaultsAndErrors(t *testing.T) {
	s, err := LoadLoyalty("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLoyaltySettings(), s)

	_, err = LoadLoyalty(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = ParseLoyalty([]byte("earning_rules: [oops"))
	assert.Error(t, err)

	_, err = ParseLoyalty([]byte(`
redemption: {method: fixedValue, points: 1, value: 1}
tiers:
  - {id: gold, name: Gold, rank: 1, points_multiplier: 2, period: {value: 1, unit: years}}
`))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
