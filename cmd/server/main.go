package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-slots/pkg/simpleslots/api"
	"github.com/tendant/simple-slots/pkg/simpleslots/config"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	serverConfig, err := config.LoadFromEnvironment()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	// Outside production missing secrets are generated per process, so
	// tokens do not survive a restart.
	if serverConfig.JWTSecret == "" {
		serverConfig.JWTSecret = uuid.NewString()
		slog.Warn("JWT_SECRET not set, using a generated secret")
	}
	if serverConfig.CSRFSecret == "" {
		serverConfig.CSRFSecret = uuid.NewString()
		slog.Warn("CSRF_SECRET not set, using a generated secret")
	}

	if serverConfig.DatabaseType == "postgres" {
		if err := serverConfig.PingPostgres(); err != nil {
			slog.Error("Failed to connect to database", "err", err)
			os.Exit(1)
		}
	}

	svc, err := serverConfig.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	handler := api.NewSlotsHandler(svc,
		api.NewJWTAuth(serverConfig.JWTSecret),
		api.NewEditTokens(serverConfig.CSRFSecret))

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	server.R.Mount("/api/v1", handler.Routes())

	slog.Info("Simple Slots server starting",
		"environment", serverConfig.Environment,
		"database", serverConfig.DatabaseType,
		"defined_slots", svc.SlotRoles().Roles(),
		"semantic_slots", serverConfig.SemanticSlots,
		"do_purge", serverConfig.DoPurge)

	server.Run()
}
