// Package main is the entry point of the fitness tracker snapshot backend.
//
// main only reads configuration, builds the logger and starts the server.
// Everything else lives under internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/fitness-tracker/internal/config"
	"github.com/sakif/fitness-tracker/internal/logger"
	"github.com/sakif/fitness-tracker/internal/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	srv, err := server.New(server.Config{
		Port:           cfg.Port,
		DataDir:        cfg.DataDir,
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
