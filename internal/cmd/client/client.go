// Package client connects to the MCP server over stdio and calls its tools.
package client

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obrandt/dicebox/internal/platform/config"
)

// Config holds client command configuration.
type Config struct {
	// ServerCommand is the command line used to spawn the stdio server.
	ServerCommand string `env:"DICEBOX_SERVER_COMMAND" envDefault:"go run ./cmd/mcp"`
	Tool          string `env:"DICEBOX_CLIENT_TOOL"    envDefault:"poet"`
	Theme         string `env:"DICEBOX_CLIENT_THEME"   envDefault:"AI and technology"`
	Notation      string `env:"DICEBOX_CLIENT_NOTATION" envDefault:"1d20"`
	NumRolls      int    `env:"DICEBOX_CLIENT_NUM_ROLLS" envDefault:"1"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ServerCommand, "server", cfg.ServerCommand, "command line that starts the stdio MCP server")
	fs.StringVar(&cfg.Tool, "tool", cfg.Tool, "tool to call: poet or roll_dice")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "poem theme (poet tool)")
	fs.StringVar(&cfg.Notation, "notation", cfg.Notation, "dice notation (roll_dice tool)")
	fs.IntVar(&cfg.NumRolls, "rolls", cfg.NumRolls, "number of rolls (roll_dice tool)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run spawns the MCP server over stdio, lists its tools, and calls one.
func Run(ctx context.Context, cfg Config) error {
	session, err := connect(ctx, cfg.ServerCommand)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("close session: %v", err)
		}
	}()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	fmt.Println("Available tools:")
	for _, tool := range tools.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}

	arguments, err := toolArguments(cfg)
	if err != nil {
		return err
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      cfg.Tool,
		Arguments: arguments,
	})
	if err != nil {
		return fmt.Errorf("call %s: %w", cfg.Tool, err)
	}
	if result.IsError {
		return fmt.Errorf("call %s: %s", cfg.Tool, resultText(result))
	}

	fmt.Printf("\n%s:\n%s\n", cfg.Tool, resultText(result))
	return nil
}

func toolArguments(cfg Config) (map[string]any, error) {
	switch cfg.Tool {
	case "poet":
		return map[string]any{"theme": cfg.Theme}, nil
	case "roll_dice":
		return map[string]any{"notation": cfg.Notation, "num_rolls": cfg.NumRolls}, nil
	default:
		return nil, fmt.Errorf("tool %q is not supported", cfg.Tool)
	}
}

func connect(ctx context.Context, serverCommand string) (*mcp.ClientSession, error) {
	fields := strings.Fields(serverCommand)
	if len(fields) == 0 {
		return nil, errors.New("server command is empty")
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stderr = os.Stderr

	client := mcp.NewClient(&mcp.Implementation{Name: "dicebox-client", Version: "dev"}, nil)
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect MCP client: %w", err)
	}
	return session, nil
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
