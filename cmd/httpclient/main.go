package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	httpclientcmd "github.com/obrandt/dicebox/internal/cmd/httpclient"
)

// main calls the MCP server over HTTP, via REST or streamable MCP.
func main() {
	cfg, err := httpclientcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[HTTP-CLIENT] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := httpclientcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("client failed: %v", err)
	}
}
