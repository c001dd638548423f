// Package sampling runs an MCP client that fulfils the server's sampling
// requests, so the poet tool generates its poems through the client side.
package sampling

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

	"github.com/obrandt/dicebox/internal/llm"
	"github.com/obrandt/dicebox/internal/platform/config"
)

const (
	// placeholderPoem is returned when no LLM credentials are configured.
	placeholderPoem  = "Socks for a fox."
	placeholderModel = "fictional-llm"
)

// Config holds sampling client command configuration.
type Config struct {
	ServerCommand string `env:"DICEBOX_SERVER_COMMAND" envDefault:"go run ./cmd/mcp"`
	Theme         string `env:"DICEBOX_CLIENT_THEME"   envDefault:"socks"`
	APIKey        string `env:"DICEBOX_ANTHROPIC_API_KEY"`
	Model         string `env:"DICEBOX_MODEL"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ServerCommand, "server", cfg.ServerCommand, "command line that starts the stdio MCP server")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "poem theme")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "model for sampling completions")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run connects to the server with sampling support and calls the poet tool.
func Run(ctx context.Context, cfg Config) error {
	var provider llm.Provider
	if cfg.APIKey != "" {
		anthropic, err := llm.NewAnthropic(llm.Config{APIKey: cfg.APIKey, Model: cfg.Model})
		if err != nil {
			return err
		}
		provider = anthropic
	}

	fields := strings.Fields(cfg.ServerCommand)
	if len(fields) == 0 {
		return errors.New("server command is empty")
	}
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stderr = os.Stderr

	client := mcp.NewClient(&mcp.Implementation{Name: "dicebox-sampling-client", Version: "dev"}, &mcp.ClientOptions{
		CreateMessageHandler: createMessageHandler(provider),
	})
	session, err := client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return fmt.Errorf("connect MCP client: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("close session: %v", err)
		}
	}()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "poet",
		Arguments: map[string]any{"theme": cfg.Theme},
	})
	if err != nil {
		return fmt.Errorf("call poet: %w", err)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if result.IsError {
		return fmt.Errorf("call poet: %s", text)
	}
	fmt.Println(text)
	return nil
}

// createMessageHandler answers server-initiated sampling requests. Without a
// provider it returns a fixed rhyme, which keeps the loop runnable offline.
func createMessageHandler(provider llm.Provider) func(context.Context, *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
	return func(ctx context.Context, req *mcp.CreateMessageRequest) (*mcp.CreateMessageResult, error) {
		if provider == nil {
			return &mcp.CreateMessageResult{
				Role:    "assistant",
				Content: &mcp.TextContent{Text: placeholderPoem},
				Model:   placeholderModel,
			}, nil
		}

		prompt := samplingPrompt(req)
		if prompt == "" {
			return nil, errors.New("sampling request has no text message")
		}
		completion, err := provider.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generate completion: %w", err)
		}
		return &mcp.CreateMessageResult{
			Role:    "assistant",
			Content: &mcp.TextContent{Text: completion},
			Model:   provider.Model(),
		}, nil
	}
}

func samplingPrompt(req *mcp.CreateMessageRequest) string {
	if req == nil || req.Params == nil {
		return ""
	}
	var parts []string
	if req.Params.SystemPrompt != "" {
		parts = append(parts, req.Params.SystemPrompt)
	}
	for _, message := range req.Params.Messages {
		if text, ok := message.Content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
