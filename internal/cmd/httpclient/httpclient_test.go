package httpclient

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("httpclient", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BaseURL != "http://localhost:8000" {
		t.Fatalf("expected default base URL, got %q", cfg.BaseURL)
	}
	if cfg.Mode != "rest" {
		t.Fatalf("expected default mode rest, got %q", cfg.Mode)
	}
}

func TestParseConfigFlagOverrides(t *testing.T) {
	fs := flag.NewFlagSet("httpclient", flag.ContinueOnError)
	args := []string{"-url", "http://example.test:9000", "-mode", "mcp", "-tool", "roll_dice"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.BaseURL != "http://example.test:9000" {
		t.Fatalf("expected flag base URL, got %q", cfg.BaseURL)
	}
	if cfg.Mode != "mcp" {
		t.Fatalf("expected mode mcp, got %q", cfg.Mode)
	}
	if cfg.Tool != "roll_dice" {
		t.Fatalf("expected tool roll_dice, got %q", cfg.Tool)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	err := Run(context.Background(), Config{Mode: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestCallRESTTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tools/roll_dice" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var envelope struct {
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if envelope.Arguments["notation"] != "2d6" {
			t.Fatalf("expected notation argument, got %v", envelope.Arguments)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "ROLLS: 4, 3 -> RETURNS: 7"}},
		}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	text, err := callRESTTool(context.Background(), server.Client(), server.URL, "roll_dice", map[string]any{"notation": "2d6"})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if text != "ROLLS: 4, 3 -> RETURNS: 7" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestCallRESTToolSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(map[string]string{"error": "invalid dice notation: \"abc\""}); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	_, err := callRESTTool(context.Background(), server.Client(), server.URL, "roll_dice", map[string]any{"notation": "abc"})
	if err == nil {
		t.Fatal("expected error from server")
	}
}
