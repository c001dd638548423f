package main

import (
	"os"

	rollcmd "github.com/obrandt/dicebox/internal/cmd/roll"
	"github.com/obrandt/dicebox/internal/platform/config"
)

// main runs the interactive dice roller on the terminal.
func main() {
	if err := rollcmd.Run(os.Stdin, os.Stdout); err != nil {
		config.Exitf("Error: %v", err)
	}
}
