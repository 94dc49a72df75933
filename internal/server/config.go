package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/holdem-tables/internal/game"
)

// ServerConfig is the complete server configuration.
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Games  GameSettings   `hcl:"games,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address       string `hcl:"address,optional"`
	Port          int    `hcl:"port,optional"`
	LogLevel      string `hcl:"log_level,optional"`
	DatabasePath  string `hcl:"database_path,optional"`
	MaxStoreBytes int64  `hcl:"max_store_bytes,optional"`
}

// GameSettings tunes table defaults and pacing. Durations are in
// seconds.
type GameSettings struct {
	MaxPlayers           int `hcl:"max_players,optional"`
	StartingChips        int `hcl:"starting_chips,optional"`
	CPUThinkSeconds      int `hcl:"cpu_think_seconds,optional"`
	ShowdownDelaySeconds int `hcl:"showdown_delay_seconds,optional"`
	GCGraceSeconds       int `hcl:"gc_grace_seconds,optional"`
}

// DefaultServerConfig returns the default configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:       "localhost",
			Port:          8080,
			LogLevel:      "info",
			DatabasePath:  "holdem.db",
			MaxStoreBytes: 256 << 20,
		},
		Games: GameSettings{
			MaxPlayers:           8,
			StartingChips:        1000,
			CPUThinkSeconds:      1,
			ShowdownDelaySeconds: 5,
			GCGraceSeconds:       3,
		},
	}
}

// LoadServerConfig loads configuration from an HCL file, falling back
// to defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.DatabasePath == "" {
		config.Server.DatabasePath = defaults.Server.DatabasePath
	}
	if config.Server.MaxStoreBytes == 0 {
		config.Server.MaxStoreBytes = defaults.Server.MaxStoreBytes
	}
	if config.Games.MaxPlayers == 0 {
		config.Games.MaxPlayers = defaults.Games.MaxPlayers
	}
	if config.Games.StartingChips == 0 {
		config.Games.StartingChips = defaults.Games.StartingChips
	}
	if config.Games.CPUThinkSeconds == 0 {
		config.Games.CPUThinkSeconds = defaults.Games.CPUThinkSeconds
	}
	if config.Games.ShowdownDelaySeconds == 0 {
		config.Games.ShowdownDelaySeconds = defaults.Games.ShowdownDelaySeconds
	}
	if config.Games.GCGraceSeconds == 0 {
		config.Games.GCGraceSeconds = defaults.Games.GCGraceSeconds
	}

	return &config, nil
}

// Validate checks the configuration for nonsense values.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Games.MaxPlayers < 2 || c.Games.MaxPlayers > 10 {
		return fmt.Errorf("max players must be between 2 and 10, got %d", c.Games.MaxPlayers)
	}
	if c.Server.MaxStoreBytes < 0 {
		return fmt.Errorf("max store bytes must not be negative")
	}
	return nil
}

// GetServerAddress returns the listen address.
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EngineConfig converts the file settings into the engine's config.
func (c *ServerConfig) EngineConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.MaxStoreBytes = c.Server.MaxStoreBytes
	cfg.MaxPlayers = c.Games.MaxPlayers
	cfg.CPUThinkDelay = time.Duration(c.Games.CPUThinkSeconds) * time.Second
	cfg.ShowdownDisplayDelay = time.Duration(c.Games.ShowdownDelaySeconds) * time.Second
	cfg.GCGraceWindow = time.Duration(c.Games.GCGraceSeconds) * time.Second
	return cfg
}
