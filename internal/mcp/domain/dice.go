package domain

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/obrandt/dicebox/internal/dice"
)

// tracer instruments tool handlers. It is a no-op unless tracing is set up.
var tracer = otel.Tracer("github.com/obrandt/dicebox/internal/mcp/domain")

// RollDiceInput is the MCP tool input for dice rolls.
type RollDiceInput struct {
	// Notation is a dice expression such as "2d6" or "4d6k3".
	Notation string `json:"notation"`
	// NumRolls repeats the roll. Values below 1 roll once.
	NumRolls int `json:"num_rolls,omitempty"`
}

// RollDiceOutcome is one roll within a RollDiceResult.
type RollDiceOutcome struct {
	Rolls []int `json:"rolls"`
	Kept  []int `json:"kept"`
	Total int   `json:"total"`
}

// RollDiceResult is the MCP tool output for dice rolls.
type RollDiceResult struct {
	Notation string            `json:"notation"`
	Outcomes []RollDiceOutcome `json:"outcomes"`
	Text     string            `json:"text"`
}

// RollRecord captures one executed roll_dice invocation for journaling.
type RollRecord struct {
	Notation string
	NumRolls int
	Outcomes []dice.Outcome
	Total    int
}

// RollJournal records executed rolls. Implementations must be safe for
// concurrent use.
type RollJournal interface {
	RecordRoll(ctx context.Context, record RollRecord) (int64, error)
}

// RollDiceTool defines the MCP tool schema for dice rolls.
func RollDiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll the dice with the given notation",
	}
}

// RollDiceHandler evaluates dice notation with a fresh random source per
// invocation. The limits cap pool size; journal may be nil to disable
// journaling. Journal failures are logged, never surfaced to the caller.
func RollDiceHandler(limits dice.Limits, newSource func() dice.Source, journal RollJournal) mcp.ToolHandlerFor[RollDiceInput, RollDiceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollDiceInput) (*mcp.CallToolResult, RollDiceResult, error) {
		ctx, span := tracer.Start(ctx, "roll_dice")
		defer span.End()

		notation := strings.TrimSpace(input.Notation)
		if notation == "" {
			return nil, RollDiceResult{}, fmt.Errorf("notation is required")
		}

		numRolls := input.NumRolls
		if numRolls < 1 {
			numRolls = 1
		}
		span.SetAttributes(
			attribute.String("dice.notation", notation),
			attribute.Int("dice.num_rolls", numRolls),
		)

		spec, err := dice.Parse(notation)
		if err != nil {
			return nil, RollDiceResult{}, err
		}
		if err := limits.Check(spec); err != nil {
			return nil, RollDiceResult{}, err
		}

		outcomes := dice.RollN(spec, numRolls, newSource())

		result := RollDiceResult{
			Notation: notation,
			Outcomes: make([]RollDiceOutcome, 0, len(outcomes)),
			Text:     dice.Format(outcomes),
		}
		total := 0
		for _, outcome := range outcomes {
			result.Outcomes = append(result.Outcomes, RollDiceOutcome{
				Rolls: outcome.All,
				Kept:  outcome.Kept,
				Total: outcome.Total,
			})
			total += outcome.Total
		}

		if journal != nil {
			if _, err := journal.RecordRoll(ctx, RollRecord{
				Notation: notation,
				NumRolls: numRolls,
				Outcomes: outcomes,
				Total:    total,
			}); err != nil {
				log.Printf("journal roll: %v", err)
			}
		}

		return nil, result, nil
	}
}
