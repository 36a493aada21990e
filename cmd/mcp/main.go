package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"valuegrade/internal/mcp"
)

func main() {
	// stdout carries the protocol, so logs go to stderr
	log.SetOutput(os.Stderr)

	baseURL := "http://localhost:8080/api/v1"
	if v, ok := os.LookupEnv("VALUEGRADE_BASE_URL"); ok {
		baseURL = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("MCP server starting, forwarding to %s", baseURL)
	if err := mcp.NewServer(baseURL, os.Stdin, os.Stdout).Serve(ctx); err != nil {
		log.Fatalf("mcp server failed: %v", err)
	}
}
