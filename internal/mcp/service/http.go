package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/obrandt/dicebox/internal/mcp/domain"
)

// defaultHTTPAddr binds to loopback only unless configured otherwise.
const defaultHTTPAddr = "localhost:8000"

// defaultNotation is rolled when a REST call omits its notation.
const defaultNotation = "1d20"

// runHTTP creates a server and serves MCP plus the REST surface over HTTP.
func runHTTP(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	defer server.Close()

	addr := cfg.HTTPAddr
	if addr == "" {
		addr = defaultHTTPAddr
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(cfg.AllowedHosts),
	}

	log.Printf("Starting MCP HTTP server on %s", addr)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// Handler returns the HTTP handler: the MCP protocol endpoint at /mcp plus
// the REST tool surface the stdio-less clients use.
func (s *Server) Handler(allowedHosts []string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil))
	mux.HandleFunc("/tools", s.handleListTools)
	mux.HandleFunc("/tools/poet", s.handleCallPoet)
	mux.HandleFunc("/tools/roll_dice", s.handleCallRollDice)
	mux.HandleFunc("/rolls", s.handleRecentRolls)
	mux.HandleFunc("/health", s.handleHealth)

	return hostGuard(parseAllowedHosts(allowedHosts), mux)
}

// toolEnvelope is the REST request body: {"arguments": {...}}.
type toolEnvelope struct {
	Arguments json.RawMessage `json:"arguments"`
}

// toolResponse is the REST response body: {"content": [{"text": ...}]}.
type toolResponse struct {
	Content []toolResponseText `json:"content"`
}

type toolResponseText struct {
	Text string `json:"text"`
}

// handleListTools lists the available tools.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type toolInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	tools := []toolInfo{}
	for _, tool := range []*mcp.Tool{domain.PoetTool(), domain.RollDiceTool()} {
		tools = append(tools, toolInfo{Name: tool.Name, Description: tool.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
}

// handleCallPoet executes the poet tool for a REST caller.
func (s *Server) handleCallPoet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input domain.PoetInput
	if !decodeArguments(w, r, &input) {
		return
	}

	_, result, err := s.poet(r.Context(), nil, input)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{Content: []toolResponseText{{Text: result.Poem}}})
}

// handleCallRollDice executes the roll_dice tool for a REST caller.
func (s *Server) handleCallRollDice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input domain.RollDiceInput
	if !decodeArguments(w, r, &input) {
		return
	}
	if input.Notation == "" {
		input.Notation = defaultNotation
	}

	_, result, err := s.rollDice(r.Context(), nil, input)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toolResponse{Content: []toolResponseText{{Text: result.Text}}})
}

// handleRecentRolls lists journaled rolls, newest first.
func (s *Server) handleRecentRolls(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type rollEntry struct {
		ID        int64                    `json:"id"`
		Notation  string                   `json:"notation"`
		NumRolls  int                      `json:"num_rolls"`
		Outcomes  []domain.RollDiceOutcome `json:"outcomes"`
		Total     int                      `json:"total"`
		CreatedAt string                   `json:"created_at"`
	}
	entries := []rollEntry{}

	if s.journal != nil {
		limit := 0
		if value := r.URL.Query().Get("limit"); value != "" {
			parsed, err := strconv.Atoi(value)
			if err != nil || parsed < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		records, err := s.journal.RecentRolls(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		for _, record := range records {
			entry := rollEntry{
				ID:        record.ID,
				Notation:  record.Notation,
				NumRolls:  record.NumRolls,
				Outcomes:  make([]domain.RollDiceOutcome, 0, len(record.Outcomes)),
				Total:     record.Total,
				CreatedAt: record.CreatedAt.Format(time.RFC3339),
			}
			for _, outcome := range record.Outcomes {
				entry.Outcomes = append(entry.Outcomes, domain.RollDiceOutcome{
					Rolls: outcome.All,
					Kept:  outcome.Kept,
					Total: outcome.Total,
				})
			}
			entries = append(entries, entry)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"rolls": entries})
}

// handleHealth reports server liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": serverName})
}

// decodeArguments unwraps the {"arguments": {...}} envelope into target.
// It writes an HTTP error and returns false when the body is malformed.
func decodeArguments(w http.ResponseWriter, r *http.Request, target any) bool {
	var envelope toolEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	if len(envelope.Arguments) == 0 {
		return true
	}
	if err := json.Unmarshal(envelope.Arguments, target); err != nil {
		http.Error(w, fmt.Sprintf("invalid arguments: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON renders a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
