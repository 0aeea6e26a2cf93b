// ABOUTME: The serve subcommand: configures and starts the HTTP canvas server.
// ABOUTME: Handles SIGINT/SIGTERM for graceful shutdown of sessions, jobs, and the database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/litai12/Tanva-sub008/server"
	"github.com/litai12/Tanva-sub008/store"
)

// runServe starts the HTTP API server and blocks until a signal arrives or
// the listener fails.
func runServe(args []string) int {
	fs := flag.NewFlagSet("tanva serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML config file (TANVA_* env vars override it)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tanva serve [-config tanva.yaml]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create data directory: %v\n", err)
		return 1
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer db.Close()

	logger := log.New(os.Stderr, "[tanva] ", log.LstdFlags)

	svc := buildMediaService(cfg, logger)
	if cfg.OpenAIKey == "" && cfg.GeminiKey == "" {
		fmt.Fprintln(os.Stderr, "warning: no image provider key found; image and optimizer nodes will fail")
		fmt.Fprintln(os.Stderr, "Set TANVA_OPENAI_API_KEY or TANVA_GEMINI_API_KEY")
	}

	sessions := server.NewSessionStore(cfg.MaxSessions, cfg.SessionTTL, newRuntimeFactory(svc, db, logger))
	defer sessions.CloseAll()

	srv := server.NewServer(cfg, db, sessions, server.WithLogger(logger))

	jobs := server.StartJobs(db, sessions, cfg.DailyGrant, logger)
	defer jobs.Stop()

	// Set up context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: srv,
	}

	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.Bind)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}
