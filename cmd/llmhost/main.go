// Command llmhost serves LLM tools and resources over the MCP protocol on
// stdio or HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quokkalabs/llmhost/internal/capability"
	"github.com/quokkalabs/llmhost/internal/config"
	"github.com/quokkalabs/llmhost/internal/conversation"
	"github.com/quokkalabs/llmhost/internal/dispatch"
	"github.com/quokkalabs/llmhost/internal/llm"
	"github.com/quokkalabs/llmhost/internal/logging"
	"github.com/quokkalabs/llmhost/internal/resources"
	"github.com/quokkalabs/llmhost/internal/server"
	"github.com/quokkalabs/llmhost/internal/tools"
	"github.com/quokkalabs/llmhost/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "llmhost:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := llm.NewClient(log, cfg.LLMBaseURL, cfg.Model)
	store := conversation.NewStore()

	registry := capability.New(
		tools.NewProvider(log, gen, store),
		resources.NewProvider(log, gen, store),
	)

	d := dispatch.New(log)
	server.New(log, registry).Register(d)

	log.Info("Starting llmhost",
		"transport", cfg.Transport,
		"model", cfg.Model,
		"llm_base_url", cfg.LLMBaseURL)

	switch cfg.Transport {
	case config.TransportHTTP:
		return transport.NewHTTP(log, cfg.HTTPAddr, d).Run(ctx)
	default:
		return transport.NewStdio(log, os.Stdin, os.Stdout, d).Run(ctx)
	}
}
