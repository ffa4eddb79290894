// Package llm defines the boundary to the language model backing the tool
// handlers.
//
// The dispatch core treats generation as an external collaborator: handlers
// depend only on the Generator interface, and the concrete Client speaks the
// OpenAI-compatible chat completions API exposed by local inference servers.
package llm

import "context"

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Info describes the configured backend for status reporting.
type Info struct {
	Model   string `json:"model_name"`
	Backend string `json:"backend"`
}

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
	Info() Info
}
