// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Transport selects how the server accepts requests.
type Transport string

const (
	// TransportStdio serves newline-delimited requests on stdin/stdout.
	TransportStdio Transport = "stdio"
	// TransportHTTP serves requests over an HTTP endpoint.
	TransportHTTP Transport = "http"
)

// Server holds configuration for the llmhost server binary.
type Server struct {
	// Transport selects stdio or http.
	Transport Transport `env:"LLMHOST_TRANSPORT" envDefault:"stdio"`

	// HTTPAddr is the listen address when Transport is http.
	HTTPAddr string `env:"LLMHOST_HTTP_ADDR" envDefault:":8080"`

	// LLMBaseURL is the OpenAI-compatible API base, including the version
	// prefix.
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"http://localhost:11434/v1"`

	// Model is the model name sent with every completion request.
	Model string `env:"MODEL_NAME" envDefault:"Qwen/Qwen3-8B"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LLMHOST_LOG_LEVEL" envDefault:"info"`
}

// Bridge holds configuration for the llmhost-bridge binary.
type Bridge struct {
	// Endpoint is the downstream MCP URL requests are forwarded to.
	Endpoint string `env:"LLMHOST_BRIDGE_ENDPOINT" envDefault:"http://localhost:8080/mcp"`

	// Timeout bounds each downstream call.
	Timeout time.Duration `env:"LLMHOST_BRIDGE_TIMEOUT" envDefault:"30s"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LLMHOST_LOG_LEVEL" envDefault:"info"`
}

// LoadServer parses server configuration from the environment.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	return &cfg, nil
}

// LoadBridge parses bridge configuration from the environment.
func LoadBridge() (*Bridge, error) {
	var cfg Bridge
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return &cfg, nil
}
