// Command llmhost-bridge exposes a remote HTTP MCP endpoint to stdio
// clients, forwarding each request downstream and relaying responses back.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quokkalabs/llmhost/internal/bridge"
	"github.com/quokkalabs/llmhost/internal/config"
	"github.com/quokkalabs/llmhost/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "llmhost-bridge:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadBridge()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	forwarder := bridge.NewForwarder(log, cfg.Endpoint, cfg.Timeout)

	return bridge.New(log, os.Stdin, os.Stdout, forwarder).Run(ctx)
}
