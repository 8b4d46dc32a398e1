package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/CourtHive/tods-competition-factory-sub007/internal/platform/errors/i18n"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/mcp/domain"
	"github.com/CourtHive/tods-competition-factory-sub007/internal/services/scoring/storage/sqlite"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "scoring"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Config controls the MCP server.
type Config struct {
	// DBPath is the SQLite file holding matches.
	DBPath string
	// Locale selects the catalog used for tool error messages.
	Locale string
	Logger *log.Logger
}

// Server serves match scoring tools over MCP.
type Server struct {
	mcpServer *mcp.Server
	matches   *domain.MatchService
	store     *sqlite.Store
}

// New opens the match store and registers every tool.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open match store: %w", err)
	}
	var opts []domain.ServiceOption
	if cfg.Logger != nil {
		opts = append(opts, domain.WithLogger(cfg.Logger))
	}
	matches, err := domain.NewMatchService(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	server := newServer(matches, cfg.Locale)
	server.store = store
	return server, nil
}

func newServer(matches *domain.MatchService, locale string) *Server {
	if strings.TrimSpace(locale) == "" {
		locale = i18n.BaseLocale
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerMatchTools(mcpServer, matches, locale)
	registerFormatTools(mcpServer, locale)
	return &Server{mcpServer: mcpServer, matches: matches}
}

func registerMatchTools(server *mcp.Server, matches *domain.MatchService, locale string) {
	mcp.AddTool(server, domain.MatchCreateTool(), domain.MatchCreateHandler(matches, locale))
	mcp.AddTool(server, domain.MatchPointTool(), domain.MatchPointHandler(matches, locale))
	mcp.AddTool(server, domain.MatchGameTool(), domain.MatchGameHandler(matches, locale))
	mcp.AddTool(server, domain.MatchSetTool(), domain.MatchSetHandler(matches, locale))
	mcp.AddTool(server, domain.MatchEndSegmentTool(), domain.MatchEndSegmentHandler(matches, locale))
	mcp.AddTool(server, domain.MatchUndoTool(), domain.MatchUndoHandler(matches, locale))
	mcp.AddTool(server, domain.MatchRedoTool(), domain.MatchRedoHandler(matches, locale))
	mcp.AddTool(server, domain.MatchScoreTool(), domain.MatchScoreHandler(matches, locale))
	mcp.AddTool(server, domain.MatchListTool(), domain.MatchListHandler(matches, locale))
	mcp.AddTool(server, domain.MatchLineupTool(), domain.MatchLineupHandler(matches, locale))
	mcp.AddTool(server, domain.MatchSubstituteTool(), domain.MatchSubstituteHandler(matches, locale))
}

func registerFormatTools(server *mcp.Server, locale string) {
	mcp.AddTool(server, domain.FormatParseTool(), domain.FormatParseHandler(locale))
	mcp.AddTool(server, domain.FormatDeduceTool(), domain.FormatDeduceHandler(locale))
}

// Run opens the server and serves it on stdio until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// Close releases the match store held by the server.
func (s *Server) Close() error {
	if s == nil || s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	s.store = nil
	return nil
}

// serveWithTransport starts the MCP server using the provided transport and
// closes the store on exit.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	closeErr := s.Close()
	if closeErr != nil {
		if err == nil {
			return fmt.Errorf("close match store: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close match store: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
