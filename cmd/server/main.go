package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "menuterm: %v\n", err)
		os.Exit(2)
	}

	// Flags override the environment
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "Listen address")
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Listen port")
	flag.StringVar(&cfg.PTY.Shell, "shell", cfg.PTY.Shell, "Shell to run in new panes (default $SHELL)")
	flag.StringVar(&cfg.PTY.WorkingDir, "workdir", cfg.PTY.WorkingDir, "Working directory for new shells (default $HOME)")
	flag.StringVar(&cfg.Settings.Path, "settings", cfg.Settings.Path, "Settings file, or - to keep settings in memory")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.Logging.File, "log-file", cfg.Logging.File, "Also write JSON logs to this file")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development mode (colored console logs)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "menuterm: invalid config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.FromConfig(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	})

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := srv.Run(ctx)
	if runErr != nil {
		logger.Error("Server error", zap.Error(runErr))
	}
	if err := srv.Close(); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if runErr != nil {
		os.Exit(1)
	}
}
