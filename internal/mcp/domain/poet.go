package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/obrandt/dicebox/internal/llm"
)

// defaultTheme is used when a poet call omits its theme.
const defaultTheme = "artificial intelligence"

// samplingSystemPrompt steers client-side sampling responses.
const samplingSystemPrompt = "always reply in rhyme"

// samplingMaxTokens bounds client-side sampling responses.
const samplingMaxTokens = 1024

// PoetInput is the MCP tool input for poem generation.
type PoetInput struct {
	// Theme is the topic of the poem.
	Theme string `json:"theme"`
}

// PoetResult is the MCP tool output for poem generation.
type PoetResult struct {
	Theme string `json:"theme"`
	Poem  string `json:"poem"`
	Model string `json:"model,omitempty"`
}

// PoetTool defines the MCP tool schema for poem generation.
func PoetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "poet",
		Description: "Poem generator",
	}
}

// PoetHandler generates a poem about the requested theme.
//
// When the connected client supports MCP sampling, generation runs through
// the client with CreateMessage so the client's model does the work.
// Otherwise the handler falls back to the configured provider. A nil
// provider makes sampling the only path.
func PoetHandler(provider llm.Provider) mcp.ToolHandlerFor[PoetInput, PoetResult] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PoetInput) (*mcp.CallToolResult, PoetResult, error) {
		ctx, span := tracer.Start(ctx, "poet")
		defer span.End()

		theme := strings.TrimSpace(input.Theme)
		if theme == "" {
			theme = defaultTheme
		}
		span.SetAttributes(attribute.String("poet.theme", theme))

		prompt := fmt.Sprintf("write a poem about %s", theme)

		var session *mcp.ServerSession
		if req != nil {
			session = req.Session
		}
		poem, model, samplingErr := sampleThroughClient(ctx, session, prompt)
		if samplingErr == nil {
			return nil, PoetResult{Theme: theme, Poem: poem, Model: model}, nil
		}
		if provider == nil {
			return nil, PoetResult{}, fmt.Errorf("generate poem: %w", samplingErr)
		}

		poem, err := provider.Generate(ctx, prompt)
		if err != nil {
			return nil, PoetResult{}, fmt.Errorf("generate poem: %w", err)
		}
		return nil, PoetResult{Theme: theme, Poem: poem, Model: provider.Model()}, nil
	}
}

// sampleThroughClient requests a completion from the connected client.
func sampleThroughClient(ctx context.Context, session *mcp.ServerSession, prompt string) (poem, model string, err error) {
	if session == nil {
		return "", "", errors.New("no client session")
	}

	result, err := session.CreateMessage(ctx, &mcp.CreateMessageParams{
		MaxTokens:    samplingMaxTokens,
		SystemPrompt: samplingSystemPrompt,
		Messages: []*mcp.SamplingMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: prompt},
			},
		},
	})
	if err != nil {
		return "", "", err
	}

	text, ok := result.Content.(*mcp.TextContent)
	if !ok {
		return "", "", fmt.Errorf("unexpected sampling content %T", result.Content)
	}
	return text.Text, result.Model, nil
}
