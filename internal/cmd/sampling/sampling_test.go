package sampling

import (
	"context"
	"flag"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeProvider struct {
	prompt string
}

func (p *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompt = prompt
	return "A poem from the provider.", nil
}

func (p *fakeProvider) Model() string { return "fake-model" }

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("sampling", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ServerCommand != "go run ./cmd/mcp" {
		t.Fatalf("expected default server command, got %q", cfg.ServerCommand)
	}
	if cfg.Theme != "socks" {
		t.Fatalf("expected default theme, got %q", cfg.Theme)
	}
}

func TestCreateMessageHandlerWithoutProvider(t *testing.T) {
	handler := createMessageHandler(nil)
	result, err := handler(context.Background(), &mcp.CreateMessageRequest{
		Params: &mcp.CreateMessageParams{
			Messages: []*mcp.SamplingMessage{
				{Role: "user", Content: &mcp.TextContent{Text: "write a poem about socks"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	text, ok := result.Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content)
	}
	if text.Text != placeholderPoem {
		t.Fatalf("expected placeholder poem, got %q", text.Text)
	}
	if result.Model != placeholderModel {
		t.Fatalf("expected placeholder model, got %q", result.Model)
	}
}

func TestCreateMessageHandlerWithProvider(t *testing.T) {
	provider := &fakeProvider{}
	handler := createMessageHandler(provider)
	result, err := handler(context.Background(), &mcp.CreateMessageRequest{
		Params: &mcp.CreateMessageParams{
			SystemPrompt: "always reply in rhyme",
			Messages: []*mcp.SamplingMessage{
				{Role: "user", Content: &mcp.TextContent{Text: "write a poem about socks"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	text, ok := result.Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content)
	}
	if text.Text != "A poem from the provider." {
		t.Fatalf("unexpected completion %q", text.Text)
	}
	if result.Model != "fake-model" {
		t.Fatalf("expected provider model, got %q", result.Model)
	}
	if provider.prompt != "always reply in rhyme\n\nwrite a poem about socks" {
		t.Fatalf("unexpected prompt %q", provider.prompt)
	}
}

func TestCreateMessageHandlerRejectsEmptyRequest(t *testing.T) {
	provider := &fakeProvider{}
	handler := createMessageHandler(provider)
	if _, err := handler(context.Background(), &mcp.CreateMessageRequest{Params: &mcp.CreateMessageParams{}}); err == nil {
		t.Fatal("expected error for request without messages")
	}
}
