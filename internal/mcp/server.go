package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/clipstash/clipstash/internal/retention"
	"github.com/clipstash/clipstash/internal/searcher"
	"github.com/clipstash/clipstash/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "clipstash"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.clipstash"
)

// Config carries the server's construction parameters.
type Config struct {
	DBPath    string        // directory or file path; empty means DefaultDBPath
	Retention time.Duration // 0 = keep forever
	Interval  time.Duration // 0 = retention.DefaultInterval
	Logger    *slog.Logger
}

// Server exposes the entry store's consumer contract as stdio MCP tools.
type Server struct {
	mcp      *server.MCPServer
	store    *storage.Store
	searcher *searcher.Searcher
	sweeper  *retention.Sweeper
	logger   *slog.Logger
}

// NewServer opens the store (running migrations) and wires the query engine
// and retention sweeper. The sweeper is not started; Serve does that.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dbFile, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(dbFile, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		searcher: searcher.New(store),
		sweeper:  retention.New(store, cfg.Retention, cfg.Interval, cfg.Logger),
		logger:   cfg.Logger,
	}
	s.registerTools()

	return s, nil
}

// resolveDBPath expands the default location and turns a directory into the
// database file path inside it.
func resolveDBPath(dbPath string) (string, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".clipstash")
	}
	if filepath.Ext(dbPath) == ".db" {
		return dbPath, nil
	}
	return filepath.Join(dbPath, "clipstash.db"), nil
}

// Serve starts the retention sweeper and the MCP server on stdio, blocking
// until shutdown. The store and sweeper are released on return.
func (s *Server) Serve(ctx context.Context) error {
	s.sweeper.Start()
	defer s.sweeper.Stop()
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(saveEntryTool(), s.handleSaveEntry)
	s.mcp.AddTool(searchEntriesTool(), s.handleSearchEntries)
	s.mcp.AddTool(getRecentTool(), s.handleGetRecent)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
	s.mcp.AddTool(deleteEntryTool(), s.handleDeleteEntry)
	s.mcp.AddTool(clearEntriesTool(), s.handleClearEntries)
	s.mcp.AddTool(runCleanupTool(), s.handleRunCleanup)
}
