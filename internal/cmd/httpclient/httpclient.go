// Package httpclient calls the MCP server's HTTP surface, either the REST
// tool endpoints or the streamable MCP endpoint.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obrandt/dicebox/internal/platform/config"
)

// Config holds HTTP client command configuration.
type Config struct {
	BaseURL  string `env:"DICEBOX_HTTP_URL"         envDefault:"http://localhost:8000"`
	Mode     string `env:"DICEBOX_HTTP_CLIENT_MODE" envDefault:"rest"`
	Tool     string `env:"DICEBOX_CLIENT_TOOL"      envDefault:"poet"`
	Theme    string `env:"DICEBOX_CLIENT_THEME"     envDefault:"AI and technology"`
	Notation string `env:"DICEBOX_CLIENT_NOTATION"  envDefault:"1d20"`
	NumRolls int    `env:"DICEBOX_CLIENT_NUM_ROLLS" envDefault:"1"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "base URL of the MCP HTTP server")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "client mode: rest or mcp")
	fs.StringVar(&cfg.Tool, "tool", cfg.Tool, "tool to call: poet or roll_dice")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "poem theme (poet tool)")
	fs.StringVar(&cfg.Notation, "notation", cfg.Notation, "dice notation (roll_dice tool)")
	fs.IntVar(&cfg.NumRolls, "rolls", cfg.NumRolls, "number of rolls (roll_dice tool)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run lists the server's tools and calls one over the configured mode.
func Run(ctx context.Context, cfg Config) error {
	switch cfg.Mode {
	case "rest":
		return runREST(ctx, cfg)
	case "mcp":
		return runMCP(ctx, cfg)
	default:
		return fmt.Errorf("mode %q is not supported", cfg.Mode)
	}
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

type restTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type restResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error string `json:"error"`
}

func runREST(ctx context.Context, cfg Config) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	base := strings.TrimRight(cfg.BaseURL, "/")

	tools, err := listRESTTools(ctx, client, base)
	if err != nil {
		return err
	}
	fmt.Println("Available tools:")
	for _, tool := range tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}

	arguments, err := toolArguments(cfg)
	if err != nil {
		return err
	}
	text, err := callRESTTool(ctx, client, base, cfg.Tool, arguments)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s:\n%s\n", cfg.Tool, text)
	return nil
}

func listRESTTools(ctx context.Context, client *http.Client, base string) ([]restTool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/tools", nil)
	if err != nil {
		return nil, fmt.Errorf("build tools request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list tools: unexpected status %s", resp.Status)
	}

	var body struct {
		Tools []restTool `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tools response: %w", err)
	}
	return body.Tools, nil
}

func callRESTTool(ctx context.Context, client *http.Client, base, tool string, arguments map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{"arguments": arguments})
	if err != nil {
		return "", fmt.Errorf("encode arguments: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/tools/"+tool, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", tool, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", tool, err)
	}
	var body restResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode %s response: %w", tool, err)
	}
	if resp.StatusCode != http.StatusOK {
		if body.Error != "" {
			return "", fmt.Errorf("call %s: %s", tool, body.Error)
		}
		return "", fmt.Errorf("call %s: unexpected status %s", tool, resp.Status)
	}

	var parts []string
	for _, content := range body.Content {
		parts = append(parts, content.Text)
	}
	return strings.Join(parts, "\n"), nil
}

func runMCP(ctx context.Context, cfg Config) error {
	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/mcp"
	client := mcp.NewClient(&mcp.Implementation{Name: "dicebox-httpclient", Version: "dev"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint}, nil)
	if err != nil {
		return fmt.Errorf("connect MCP client: %w", err)
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
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: cfg.Tool, Arguments: arguments})
	if err != nil {
		return fmt.Errorf("call %s: %w", cfg.Tool, err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return fmt.Errorf("call %s: %s", cfg.Tool, text)
	}
	fmt.Printf("\n%s:\n%s\n", cfg.Tool, text)
	return nil
}
