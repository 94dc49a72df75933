package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:8080", cfg.GetServerAddress())
	assert.Equal(t, 8, cfg.Games.MaxPlayers)
	assert.Equal(t, "holdem.db", cfg.Server.DatabasePath)
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	cfg, err := LoadServerConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

func TestLoadServerConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  address         = "0.0.0.0"
  port            = 9090
  log_level       = "debug"
  max_store_bytes = 1048576
}

games {
  max_players            = 6
  cpu_think_seconds      = 2
  showdown_delay_seconds = 10
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadServerConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9090", cfg.GetServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, int64(1048576), cfg.Server.MaxStoreBytes)
	assert.Equal(t, 6, cfg.Games.MaxPlayers)
	// Unset values pick up defaults.
	assert.Equal(t, "holdem.db", cfg.Server.DatabasePath)
	assert.Equal(t, 3, cfg.Games.GCGraceSeconds)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultServerConfig()
	cfg.Games.MaxPlayers = 1
	assert.Error(t, cfg.Validate())
}

func TestEngineConfigConversion(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Games.CPUThinkSeconds = 2
	cfg.Games.ShowdownDelaySeconds = 7
	cfg.Server.MaxStoreBytes = 42

	engineCfg := cfg.EngineConfig()
	assert.Equal(t, 2*time.Second, engineCfg.CPUThinkDelay)
	assert.Equal(t, 7*time.Second, engineCfg.ShowdownDisplayDelay)
	assert.Equal(t, 3*time.Second, engineCfg.GCGraceWindow)
	assert.Equal(t, int64(42), engineCfg.MaxStoreBytes)
	assert.Equal(t, 8, engineCfg.MaxPlayers)
	// The table and hand blind structure is fixed.
	assert.Equal(t, 10, engineCfg.TableSmallBlind)
	assert.Equal(t, 20, engineCfg.TableBigBlind)
	assert.Equal(t, 5, engineCfg.HandSmallBlind)
	assert.Equal(t, 10, engineCfg.HandBigBlind)
}
