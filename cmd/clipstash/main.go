package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipstash/clipstash/internal/mcp"
	"github.com/clipstash/clipstash/internal/retention"
	"github.com/clipstash/clipstash/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("Clipstash MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	dbPath := flag.String("db", "", "database path (default ~/.clipstash/clipstash.db, env CLIPSTASH_DB_PATH)")
	retentionPeriod := flag.Duration("retention", 0, "delete entries older than this (0 keeps forever)")
	sweepInterval := flag.Duration("sweep-interval", retention.DefaultInterval, "how often the retention sweeper runs")
	flag.Parse()

	// Log to stderr; stdout is reserved for the MCP protocol.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger.Info("clipstash starting",
		"version", version, "build_mode", storage.BuildMode, "driver", storage.DriverName)

	if *dbPath == "" {
		*dbPath = os.Getenv("CLIPSTASH_DB_PATH")
	}

	server, err := mcp.NewServer(mcp.Config{
		DBPath:    *dbPath,
		Retention: *retentionPeriod,
		Interval:  *sweepInterval,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio",
			"retention", retentionPeriod.String(), "sweep_interval", sweepInterval.String())
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
