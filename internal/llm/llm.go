// Package llm provides text generation backed by a remote model provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrMissingAPIKey indicates no provider credential was configured.
var ErrMissingAPIKey = errors.New("llm: API key is required")

// ErrEmptyCompletion indicates the provider returned no text content.
var ErrEmptyCompletion = errors.New("llm: provider returned no text")

// defaultModel is used when Config.Model is empty.
const defaultModel = "claude-sonnet-4-20250514"

// defaultMaxTokens bounds completion length when Config.MaxTokens is unset.
const defaultMaxTokens = 1024

// Provider generates a text completion for a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Model reports the model identifier completions are generated with.
	Model() string
}

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Anthropic implements Provider on the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropic creates an Anthropic-backed provider.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Anthropic{
		client:    client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Model reports the configured model identifier.
func (a *Anthropic) Model() string {
	return a.model
}

// Generate requests a single completion and returns its concatenated text.
func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: create message: %w", err)
	}

	var output strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			output.WriteString(block.Text)
		}
	}
	if output.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return output.String(), nil
}
