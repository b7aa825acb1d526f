package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/polycopy/config"
	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
copier:
  poll_interval_seconds: 10
guardrails:
  conviction_ratio: 0.25
wallets:
  - address: "0xwhale"
    alias: whale-1
    overrides:
      max_exposure: 100
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.PollInterval())
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval()) // default intacto
	assert.InDelta(t, 0.25, cfg.Guardrails.ConvictionRatio, 0.001)
	assert.True(t, cfg.Copier.DryRun, "dry run por defecto")

	require.Len(t, cfg.Wallets, 1)
	assert.Equal(t, "0xwhale", cfg.Wallets[0].Address)
	require.NotNil(t, cfg.Wallets[0].Overrides.MaxExposure)
	assert.InDelta(t, 100.0, *cfg.Wallets[0].Overrides.MaxExposure, 0.001)
}

func TestLoad_AbsentBoolsKeepDefaults(t *testing.T) {
	path := writeConfig(t, `
guardrails:
  min_price: 0.05
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// copy_buys/copy_sells no aparecen en el YAML: conservan true
	assert.True(t, cfg.Guardrails.CopyBuys)
	assert.True(t, cfg.Guardrails.CopySells)
	assert.InDelta(t, 0.05, cfg.Guardrails.MinPrice, 0.001)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POLYCOPY_DSN", "/tmp/override.db")
	t.Setenv("POLYCOPY_VENUE_ADDRESS", "0xenv-account")

	path := writeConfig(t, `
storage:
  dsn: "from-yaml.db"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Storage.DSN)
	assert.Equal(t, "0xenv-account", cfg.Copier.VenueAddress)
}

func TestPolicy_FromDefaults(t *testing.T) {
	pol := config.Default().Policy()

	assert.Equal(t, domain.SizingConviction, pol.SizingMode)
	assert.InDelta(t, 0.10, pol.ConvictionRatio, 0.001)
	assert.InDelta(t, 25.0, pol.MaxCostPerTrade, 0.001)
	assert.Equal(t, 5, pol.MaxTradesPerRun)
	assert.False(t, pol.AllowOverdraft)
}
