package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	samplingcmd "github.com/obrandt/dicebox/internal/cmd/sampling"
)

// main runs a sampling-capable MCP client against the stdio server.
func main() {
	cfg, err := samplingcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[SAMPLING] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := samplingcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("client failed: %v", err)
	}
}
