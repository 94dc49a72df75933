package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-tables/internal/accounts"
	"github.com/lox/holdem-tables/internal/game"
	"github.com/lox/holdem-tables/internal/server"
	"github.com/lox/holdem-tables/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"holdem-tables.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Database string `short:"d" long:"database" help:"Path to the player database (overrides config)"`
	Seed     int64  `long:"seed" help:"Seed for shuffles and CPU play (0 seeds from the clock)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Database != "" {
		cfg.Server.DatabasePath = CLI.Database
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("Starting holdem-tables",
		"addr", cfg.GetServerAddress(),
		"database", cfg.Server.DatabasePath)

	acct, err := accounts.Open(cfg.Server.DatabasePath)
	if err != nil {
		logger.Error("Failed to open player database", "error", err)
		ctx.Exit(1)
	}
	defer func() { _ = acct.Close() }()

	wsServer := server.NewServer(cfg.GetServerAddress(), logger)

	engineCfg := cfg.EngineConfig()
	engineCfg.Seed = CLI.Seed
	engine := game.NewEngine(store.NewMemoryStore(), acct, wsServer, logger, quartz.NewReal(), engineCfg)
	wsServer.SetEngine(engine)
	wsServer.SetAccounts(acct, cfg.Games.StartingChips)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var eg errgroup.Group
	eg.Go(func() error {
		return wsServer.Start()
	})
	eg.Go(func() error {
		<-sigCtx.Done()
		logger.Info("Shutting down server...")
		return wsServer.Stop()
	})

	if err := eg.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		ctx.Exit(1)
	}
}
