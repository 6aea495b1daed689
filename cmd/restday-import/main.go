package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/restday/internal/config"
	"github.com/claude/restday/internal/importer"
	"github.com/claude/restday/internal/journal"
	"github.com/claude/restday/internal/muscle"
	"github.com/claude/restday/internal/snapshot"
	"github.com/claude/restday/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	srcPath := flag.String("path", "", "snapshot document or directory of documents (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing to the backend")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *srcPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: restday-import -config config.yaml -path /path/to/export [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	kb, err := muscle.Load()
	if err != nil {
		log.Error("invalid knowledge base", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written")
	}

	var target snapshot.Backend
	switch cfg.Snapshot.Backend {
	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		target = db
		log.Info("database connected")
	case config.BackendJournal:
		j, err := journal.Open(cfg.Snapshot.Path)
		if err != nil {
			log.Error("failed to open journal", "path", cfg.Snapshot.Path, "error", err)
			os.Exit(1)
		}
		target = j
	default:
		target = snapshot.NewFileSource(cfg.Snapshot.Path, log)
	}
	defer target.Close()

	// Run import
	imp := importer.New(target, kb, log, *dryRun)
	stats, err := imp.Import(ctx, *srcPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete", "target", target)
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"entries", stats.Entries,
		"completed", stats.Completed,
		"planned", stats.Planned,
		"injuries", stats.Injuries,
		"skipped", stats.Skipped,
		"duplicated", stats.Duplicated,
	)
}
