package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-bancho-go/internal/gamemode"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BANCHO_CONFIG_FILE", "")
	cfg, err := Load("")
	require.NoError(t, err)

	b := cfg.Bancho
	assert.Equal(t, 300*time.Second, b.InactivityTimeout)
	assert.Equal(t, 30*24*time.Hour, b.DonorHorizon)
	assert.Equal(t, "Aika", b.BotName)
	assert.Equal(t, filepath.Join(".data", "osr"), b.ReplayDir())
	assert.Equal(t, 40.0, b.Surveillance.PressTimes.Value)
	assert.Equal(t, 100, b.Surveillance.PressTimes.MinPresses)
	assert.Equal(t, gamemode.VanillaTaiko, b.Surveillance.SurveilledMode())
	// no webhook configured
	assert.False(t, b.Surveillance.Active())
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BANCHO_CONFIG_FILE", "")
	t.Setenv("BANCHO_INACTIVITY_TIMEOUT", "90s")
	t.Setenv("BANCHO_SURVEILLANCE_WEBHOOK", "http://hooks.local/x")
	t.Setenv("BANCHO_SURVEILLANCE_PRESSTIME_VALUE", "45.5")
	t.Setenv("BANCHO_SURVEILLANCE_JOURNAL", "false")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", ":memory:")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Bancho.InactivityTimeout)
	assert.True(t, cfg.Bancho.Surveillance.Active())
	assert.Equal(t, 45.5, cfg.Bancho.Surveillance.PressTimes.Value)
	assert.Empty(t, cfg.Bancho.JournalDir())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestYAMLOverridesEnv(t *testing.T) {
	t.Setenv("BANCHO_CONFIG_FILE", "")
	t.Setenv("BANCHO_BOT_NAME", "FromEnv")
	t.Setenv("BANCHO_SURVEILLANCE_PRESSTIME_MIN_PRESSES", "50")

	path := filepath.Join(t.TempDir(), "bancho.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bancho:
  bot_name: FromFile
  donor_horizon: 48h
  surveillance:
    mode: mania
    hitobj_low_presstimes:
      value: 30
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "FromFile", cfg.Bancho.BotName)
	assert.Equal(t, 48*time.Hour, cfg.Bancho.DonorHorizon)
	assert.Equal(t, gamemode.VanillaMania, cfg.Bancho.Surveillance.SurveilledMode())
	assert.Equal(t, 30.0, cfg.Bancho.Surveillance.PressTimes.Value)
	// untouched keys keep their env value
	assert.Equal(t, 50, cfg.Bancho.Surveillance.PressTimes.MinPresses)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BANCHO_CONFIG_FILE", "")
	t.Setenv("BANCHO_INACTIVITY_TIMEOUT", "0s")
	t.Setenv("BANCHO_SURVEILLANCE_MODE", "pong")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inactivity timeout")
	assert.Contains(t, err.Error(), "surveillance mode")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
