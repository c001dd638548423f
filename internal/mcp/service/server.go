package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obrandt/dicebox/internal/dice"
	"github.com/obrandt/dicebox/internal/llm"
	"github.com/obrandt/dicebox/internal/mcp/domain"
	"github.com/obrandt/dicebox/internal/platform/random"
	"github.com/obrandt/dicebox/internal/storage/sqlite"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Dicebox MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP plus a REST surface.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for HTTP transport, e.g. "localhost:8000".
	HTTPAddr string
	// AllowedHosts extends the loopback-only Host/Origin allowlist in HTTP mode.
	AllowedHosts []string
	// JournalPath enables the SQLite roll journal when non-empty.
	JournalPath string
	// MaxDice caps the dice pool per roll. Zero means unlimited.
	MaxDice int
	// Provider generates poems when the client does not support sampling.
	// A nil provider leaves sampling as the only generation path.
	Provider llm.Provider
}

// Server hosts the MCP server and its tool dependencies.
type Server struct {
	mcpServer *mcp.Server
	journal   *sqlite.Store
	limits    dice.Limits

	rollDice mcp.ToolHandlerFor[domain.RollDiceInput, domain.RollDiceResult]
	poet     mcp.ToolHandlerFor[domain.PoetInput, domain.PoetResult]
}

// New creates a configured MCP server with its tools registered.
func New(cfg Config) (*Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	server := &Server{
		mcpServer: mcpServer,
		limits:    dice.Limits{MaxDice: cfg.MaxDice},
	}

	var journal domain.RollJournal
	if cfg.JournalPath != "" {
		store, err := sqlite.Open(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open roll journal: %w", err)
		}
		server.journal = store
		journal = journalStore{store: store}
	}

	server.rollDice = domain.RollDiceHandler(server.limits, newSource, journal)
	server.poet = domain.PoetHandler(cfg.Provider)
	registerTools(mcpServer, server)

	return server, nil
}

// Close releases resources held by the server.
func (s *Server) Close() error {
	if s == nil || s.journal == nil {
		return nil
	}
	if err := s.journal.Close(); err != nil {
		return err
	}
	s.journal = nil
	return nil
}

// Run creates and serves the MCP server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return runWithTransport(ctx, cfg, &mcp.StdioTransport{})
	case TransportHTTP:
		return runHTTP(ctx, cfg)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
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
			return fmt.Errorf("close server: %w", closeErr)
		}
		return fmt.Errorf("serve MCP: %v; close server: %w", err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// runWithTransport creates a server and serves it over the provided transport.
func runWithTransport(ctx context.Context, cfg Config, transport mcp.Transport) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.serveWithTransport(ctx, transport)
}

// journalStore adapts the SQLite store to the domain journal interface.
type journalStore struct {
	store *sqlite.Store
}

func (j journalStore) RecordRoll(ctx context.Context, record domain.RollRecord) (int64, error) {
	return j.store.RecordRoll(ctx, sqlite.RollRecord{
		Notation: record.Notation,
		NumRolls: record.NumRolls,
		Outcomes: record.Outcomes,
		Total:    record.Total,
	})
}

// newSource returns a fresh random source for one tool invocation.
func newSource() dice.Source {
	seed, err := random.NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
