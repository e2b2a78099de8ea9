package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/config"
	"github.com/tendant/simple-slots/pkg/simpleslots/scan"
)

const usage = `Simple Slots Refresh

Performs a null edit on every page so semantic data is rebuilt from the
current slots.

USAGE:
  refresh [options]

ENVIRONMENT VARIABLES:
  CONFIG_FILE       YAML, JSON or TOML config file (optional)
  DATABASE_URL      "memory" or a PostgreSQL connection string
  DB_SCHEMA         PostgreSQL schema name (default: slots)
  DEFINED_SLOTS     Slot roles, e.g. "doc:wikitext,meta:json"
  SEMANTIC_SLOTS    Slots merged into the page data, in precedence order

  Configuration can be loaded from a .env file in the current directory.

OPTIONS:
`

func main() {
	_ = godotenv.Load()

	batchSize := flag.Int("batch-size", 100, "pages listed per batch")
	limit := flag.Int("limit", 0, "stop after this many pages (0 means all)")
	dryRun := flag.Bool("dry-run", false, "list pages without refreshing them")
	actorName := flag.String("actor", "Maintenance script", "name recorded on the null revisions")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	serverConfig, err := config.LoadFromEnvironment()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	svc, err := serverConfig.BuildService()
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	actor := simpleslots.Actor{ID: uuid.Nil, Name: *actorName}
	result, err := scan.New(svc).Scan(ctx, scan.ScanOptions{
		Processor: scan.NewRefreshProcessor(svc, actor),
		BatchSize: *batchSize,
		Limit:     *limit,
		DryRun:    *dryRun,
		OnProgress: func(processed, total int64) {
			slog.Info("Refresh progress", "processed", processed, "found", total)
		},
	})
	if err != nil {
		slog.Error("Refresh stopped", "err", err, "processed", result.TotalProcessed)
		os.Exit(1)
	}

	slog.Info("Refresh finished",
		"found", result.TotalFound,
		"processed", result.TotalProcessed,
		"failed", result.TotalFailed)
	if result.TotalFailed > 0 {
		slog.Warn("Pages failed to refresh", "titles", result.FailedTitles)
		os.Exit(2)
	}
}
