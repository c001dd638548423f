// Package dice evaluates compact dice-notation expressions such as "2d6"
// and "4d6k3" (roll four six-sided dice, keep the highest three).
package dice

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Source yields uniform random integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// ErrInvalidNotation indicates a notation string does not match "NdM" or "NdMkK".
var ErrInvalidNotation = errors.New("invalid dice notation")

// ErrTooManyDice indicates a notation exceeds a configured dice ceiling.
var ErrTooManyDice = errors.New("too many dice")

// notationPattern matches the notation prefix. Trailing characters after a
// valid prefix are ignored, so "2d6xyz" parses the same as "2d6".
var notationPattern = regexp.MustCompile(`^(\d+)d(\d+)(?:k(\d+))?`)

// Spec describes a parsed dice expression.
type Spec struct {
	// Count is the number of dice to roll.
	Count int
	// Sides is the number of faces per die.
	Sides int
	// Keep is the number of highest dice retained. It defaults to Count
	// when the notation omits a keep clause. A Keep larger than Count
	// keeps every die.
	Keep int
}

// Parse converts notation like "4d6k3" into a Spec.
//
// The dice count and sides are required and must be positive. The keep
// clause is optional and defaults to keeping every die. Parse matches from
// the start of the string and ignores trailing characters after a valid
// prefix. A string that does not match the grammar returns
// ErrInvalidNotation wrapping the offending input.
func Parse(notation string) (Spec, error) {
	match := notationPattern.FindStringSubmatch(notation)
	if match == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	count, err := strconv.Atoi(match[1])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}
	sides, err := strconv.Atoi(match[2])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	keep := count
	if match[3] != "" {
		keep, err = strconv.Atoi(match[3])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
		}
	}

	if count < 1 || sides < 1 || keep < 1 {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidNotation, notation)
	}

	return Spec{Count: count, Sides: sides, Keep: keep}, nil
}

// Limits caps evaluation cost. The zero value disables all caps.
type Limits struct {
	// MaxDice caps Spec.Count per roll. Zero means unlimited.
	MaxDice int
}

// Check validates a spec against the configured limits.
func (l Limits) Check(spec Spec) error {
	if l.MaxDice > 0 && spec.Count > l.MaxDice {
		return fmt.Errorf("%w: %d dice exceeds limit of %d", ErrTooManyDice, spec.Count, l.MaxDice)
	}
	return nil
}

// Outcome captures one roll of a Spec.
type Outcome struct {
	// All holds every die rolled, sorted in descending order.
	All []int
	// Kept holds the highest Spec.Keep dice, a prefix of All.
	Kept []int
	// Total is the sum of Kept.
	Total int
}

// Roll produces one outcome from the spec using the provided random source.
//
// Roll is deterministic with respect to rng: given the same spec and a rng
// seeded identically, it always produces the same outcome. It draws
// spec.Count values uniformly from [1, spec.Sides], sorts them in
// descending order, and retains the highest spec.Keep values. The total is
// the sum of the retained dice only, never of every die rolled.
func Roll(spec Spec, rng Source) Outcome {
	all := make([]int, spec.Count)
	for i := range all {
		all[i] = rng.Intn(spec.Sides) + 1
	}
	sort.Sort(sort.Reverse(sort.IntSlice(all)))

	keep := spec.Keep
	if keep > len(all) {
		keep = len(all)
	}
	kept := all[:keep]

	total := 0
	for _, value := range kept {
		total += value
	}

	return Outcome{All: all, Kept: kept, Total: total}
}

// RollN produces n independent outcomes from the spec. Outcomes share no
// state beyond consuming the same random source in sequence.
func RollN(spec Spec, n int, rng Source) []Outcome {
	if n < 1 {
		n = 1
	}
	outcomes := make([]Outcome, n)
	for i := range outcomes {
		outcomes[i] = Roll(spec, rng)
	}
	return outcomes
}

// Format renders outcomes to the fixed report layout.
//
// A single outcome renders as "ROLLS: v1, v2 -> RETURNS: total". Multiple
// outcomes render one line each, prefixed "Roll i:" with 1-based indexes,
// joined by newlines with no trailing newline. The reported total is always
// the kept-dice sum even though every die rolled is listed.
func Format(outcomes []Outcome) string {
	if len(outcomes) == 1 {
		return formatOutcome(outcomes[0])
	}

	lines := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		lines[i] = fmt.Sprintf("Roll %d: %s", i+1, formatOutcome(outcome))
	}
	return strings.Join(lines, "\n")
}

// formatOutcome renders one outcome without a roll index.
func formatOutcome(outcome Outcome) string {
	values := make([]string, len(outcome.All))
	for i, value := range outcome.All {
		values[i] = strconv.Itoa(value)
	}
	return fmt.Sprintf("ROLLS: %s -> RETURNS: %d", strings.Join(values, ", "), outcome.Total)
}

// Evaluate parses notation, rolls it numRolls times, and formats the result.
// A numRolls below 1 is treated as a single roll.
func Evaluate(notation string, numRolls int, rng Source) (string, error) {
	return EvaluateWithLimits(notation, numRolls, rng, Limits{})
}

// EvaluateWithLimits is Evaluate with a cost ceiling applied after parsing.
func EvaluateWithLimits(notation string, numRolls int, rng Source, limits Limits) (string, error) {
	spec, err := Parse(notation)
	if err != nil {
		return "", err
	}
	if err := limits.Check(spec); err != nil {
		return "", err
	}
	return Format(RollN(spec, numRolls, rng)), nil
}
