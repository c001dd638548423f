package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/obrandt/dicebox/internal/dice"
)

// scriptedSource replays a fixed sequence of draws.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) Intn(n int) int {
	value := s.values[s.next%len(s.values)]
	s.next++
	return value % n
}

// fakeJournal captures journaled rolls in memory.
type fakeJournal struct {
	records []RollRecord
	err     error
}

func (j *fakeJournal) RecordRoll(_ context.Context, record RollRecord) (int64, error) {
	if j.err != nil {
		return 0, j.err
	}
	j.records = append(j.records, record)
	return int64(len(j.records)), nil
}

// fakeProvider returns canned completions.
type fakeProvider struct {
	output string
	err    error
	prompt string
}

func (p *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompt = prompt
	if p.err != nil {
		return "", p.err
	}
	return p.output, nil
}

func (p *fakeProvider) Model() string {
	return "fake-model"
}

func TestRollDiceHandler(t *testing.T) {
	t.Run("single roll", func(t *testing.T) {
		newSource := func() dice.Source { return &scriptedSource{values: []int{5, 3, 1, 0}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, nil)

		_, result, err := handler(context.Background(), nil, RollDiceInput{Notation: "4d6k3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Text != "ROLLS: 6, 4, 2, 1 -> RETURNS: 12" {
			t.Errorf("unexpected text: %q", result.Text)
		}
		if len(result.Outcomes) != 1 {
			t.Fatalf("expected 1 outcome, got %d", len(result.Outcomes))
		}
		if result.Outcomes[0].Total != 12 {
			t.Errorf("expected total 12, got %d", result.Outcomes[0].Total)
		}
		if len(result.Outcomes[0].Kept) != 3 {
			t.Errorf("expected 3 kept dice, got %d", len(result.Outcomes[0].Kept))
		}
	})

	t.Run("multiple rolls", func(t *testing.T) {
		newSource := func() dice.Source { return &scriptedSource{values: []int{2}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, nil)

		_, result, err := handler(context.Background(), nil, RollDiceInput{Notation: "2d6", NumRolls: 3})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Outcomes) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(result.Outcomes))
		}
		lines := strings.Split(result.Text, "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), result.Text)
		}
		for i, line := range lines {
			if !strings.HasPrefix(line, fmt.Sprintf("Roll %d: ROLLS: ", i+1)) {
				t.Errorf("line %d = %q", i+1, line)
			}
		}
	})

	t.Run("invalid notation", func(t *testing.T) {
		newSource := func() dice.Source { return &scriptedSource{values: []int{0}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, nil)

		_, _, err := handler(context.Background(), nil, RollDiceInput{Notation: "abc"})
		if !errors.Is(err, dice.ErrInvalidNotation) {
			t.Fatalf("error = %v, want %v", err, dice.ErrInvalidNotation)
		}
	})

	t.Run("missing notation", func(t *testing.T) {
		newSource := func() dice.Source { return &scriptedSource{values: []int{0}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, nil)

		_, _, err := handler(context.Background(), nil, RollDiceInput{})
		if err == nil {
			t.Fatal("expected error for missing notation")
		}
	})

	t.Run("dice limit", func(t *testing.T) {
		newSource := func() dice.Source { return &scriptedSource{values: []int{0}} }
		handler := RollDiceHandler(dice.Limits{MaxDice: 10}, newSource, nil)

		_, _, err := handler(context.Background(), nil, RollDiceInput{Notation: "11d6"})
		if !errors.Is(err, dice.ErrTooManyDice) {
			t.Fatalf("error = %v, want %v", err, dice.ErrTooManyDice)
		}
	})

	t.Run("journals rolls", func(t *testing.T) {
		journal := &fakeJournal{}
		newSource := func() dice.Source { return &scriptedSource{values: []int{5, 3, 1, 0}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, journal)

		_, _, err := handler(context.Background(), nil, RollDiceInput{Notation: "4d6k3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(journal.records) != 1 {
			t.Fatalf("expected 1 journal record, got %d", len(journal.records))
		}
		record := journal.records[0]
		if record.Notation != "4d6k3" || record.NumRolls != 1 || record.Total != 12 {
			t.Errorf("unexpected record: %+v", record)
		}
	})

	t.Run("journal failure does not fail the roll", func(t *testing.T) {
		journal := &fakeJournal{err: errors.New("disk full")}
		newSource := func() dice.Source { return &scriptedSource{values: []int{2}} }
		handler := RollDiceHandler(dice.Limits{}, newSource, journal)

		_, result, err := handler(context.Background(), nil, RollDiceInput{Notation: "1d6"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Text == "" {
			t.Error("expected roll text despite journal failure")
		}
	})
}

func TestPoetHandler(t *testing.T) {
	t.Run("falls back to provider without a sampling session", func(t *testing.T) {
		provider := &fakeProvider{output: "Socks for a fox."}
		handler := PoetHandler(provider)

		_, result, err := handler(context.Background(), nil, PoetInput{Theme: "socks"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Poem != "Socks for a fox." {
			t.Errorf("unexpected poem: %q", result.Poem)
		}
		if result.Theme != "socks" {
			t.Errorf("unexpected theme: %q", result.Theme)
		}
		if result.Model != "fake-model" {
			t.Errorf("unexpected model: %q", result.Model)
		}
		if provider.prompt != "write a poem about socks" {
			t.Errorf("unexpected prompt: %q", provider.prompt)
		}
	})

	t.Run("defaults the theme", func(t *testing.T) {
		provider := &fakeProvider{output: "ok"}
		handler := PoetHandler(provider)

		_, result, err := handler(context.Background(), nil, PoetInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Theme != defaultTheme {
			t.Errorf("expected default theme, got %q", result.Theme)
		}
	})

	t.Run("provider error", func(t *testing.T) {
		provider := &fakeProvider{err: errors.New("rate limited")}
		handler := PoetHandler(provider)

		_, _, err := handler(context.Background(), nil, PoetInput{Theme: "rain"})
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("no provider and no sampling session", func(t *testing.T) {
		handler := PoetHandler(nil)

		_, _, err := handler(context.Background(), nil, PoetInput{Theme: "rain"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}
