// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/obrandt/dicebox/internal/llm"
	"github.com/obrandt/dicebox/internal/mcp/service"
	"github.com/obrandt/dicebox/internal/platform/config"
	"github.com/obrandt/dicebox/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	Transport    string   `env:"DICEBOX_MCP_TRANSPORT"     envDefault:"stdio"`
	HTTPAddr     string   `env:"DICEBOX_MCP_HTTP_ADDR"     envDefault:"localhost:8000"`
	AllowedHosts []string `env:"DICEBOX_MCP_ALLOWED_HOSTS"`
	JournalPath  string   `env:"DICEBOX_JOURNAL_PATH"`
	MaxDice      int      `env:"DICEBOX_MAX_DICE"`
	APIKey       string   `env:"DICEBOX_ANTHROPIC_API_KEY"`
	Model        string   `env:"DICEBOX_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite roll journal path (empty disables journaling)")
	fs.IntVar(&cfg.MaxDice, "max-dice", cfg.MaxDice, "maximum dice per roll (0 = unlimited)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model for poem generation")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP tool server.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	var provider llm.Provider
	if cfg.APIKey != "" {
		anthropic, err := llm.NewAnthropic(llm.Config{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return err
		}
		provider = anthropic
	}

	return service.Run(ctx, service.Config{
		Transport:    service.TransportKind(cfg.Transport),
		HTTPAddr:     cfg.HTTPAddr,
		AllowedHosts: cfg.AllowedHosts,
		JournalPath:  cfg.JournalPath,
		MaxDice:      cfg.MaxDice,
		Provider:     provider,
	})
}
