package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/restday/internal/config"
	"github.com/claude/restday/internal/engine"
	"github.com/claude/restday/internal/journal"
	"github.com/claude/restday/internal/mcp"
	"github.com/claude/restday/internal/muscle"
	"github.com/claude/restday/internal/server"
	"github.com/claude/restday/internal/snapshot"
	"github.com/claude/restday/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres backend)")
	debug := flag.Bool("debug", false, "log skipped snapshot entries")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	log.Info("restday starting", "version", Version)

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

	// Open the snapshot backend
	var (
		backend snapshot.Backend
		db      *storage.DB
	)
	switch cfg.Snapshot.Backend {
	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err = storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		backend = db
		log.Info("database connected")
	case config.BackendJournal:
		j, err := journal.Open(cfg.Snapshot.Path)
		if err != nil {
			log.Error("failed to open journal", "path", cfg.Snapshot.Path, "error", err)
			os.Exit(1)
		}
		backend = j
		log.Info("journal opened", "path", cfg.Snapshot.Path)
	default:
		backend = snapshot.NewFileSource(cfg.Snapshot.Path, log)
		log.Info("using snapshot file", "path", cfg.Snapshot.Path)
	}
	defer backend.Close()

	if *migrateOnly {
		log.Info("migrate-only: nothing to migrate for backend", "backend", cfg.Snapshot.Backend)
		return
	}

	eng := engine.New(kb, engine.Options{
		AdvisoryMaxRestDays: cfg.Engine.AdvisoryMaxRestDays,
		Workers:             cfg.Engine.Workers,
	}, log)

	// Create server
	srv := server.New(eng, backend, cfg.Auth.APIKey, log)
	var rec engine.PassRecorder
	if db != nil {
		srv.SetPassLog(db)
		rec = db
	}
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(mcp.New(eng, backend, rec, Version, log)))

	// Start server on tsnet or plain HTTP
	var listener net.Listener

	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
