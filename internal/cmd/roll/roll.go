// Package roll provides a small interactive dice roller on the terminal.
package roll

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/obrandt/dicebox/internal/dice"
	"github.com/obrandt/dicebox/internal/platform/random"
)

// Run reads dice notation and a roll count from in, evaluates them, and
// writes the formatted result to out. It loops until in is exhausted.
func Run(in io.Reader, out io.Writer) error {
	rng := newSource()
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "Enter dice notation (e.g. 4d6k3, empty to quit): ")
		notation, ok := readLine(scanner)
		if !ok {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if notation == "" {
			return nil
		}

		fmt.Fprint(out, "Number of rolls [1]: ")
		countLine, ok := readLine(scanner)
		if !ok {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		numRolls, err := parseRollCount(countLine)
		if err != nil {
			fmt.Fprintf(out, "%v\n\n", err)
			continue
		}

		result, err := dice.Evaluate(notation, numRolls, rng)
		if err != nil {
			fmt.Fprintf(out, "%v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n\n", result)
	}
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func parseRollCount(line string) (int, error) {
	if line == "" {
		return 1, nil
	}
	count, err := strconv.Atoi(line)
	if err != nil || count < 1 {
		return 0, errors.New("number of rolls must be a positive integer")
	}
	return count, nil
}

func newSource() dice.Source {
	seed, err := random.NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
