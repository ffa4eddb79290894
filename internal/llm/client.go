package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultGenerateTimeout = 120 * time.Second

// Client calls an OpenAI-compatible chat completions endpoint, the wire
// format spoken by llama.cpp, vLLM, Ollama and similar local servers.
type Client struct {
	log     *slog.Logger
	baseURL string
	model   string
	http    *http.Client
}

// NewClient creates a client for the given base URL (for example
// http://localhost:11434/v1) and model name.
func NewClient(log *slog.Logger, baseURL, model string) *Client {
	return &Client{
		log:     log.With("component", "llm"),
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: defaultGenerateTimeout},
	}
}

// Info returns backend metadata for status reporting.
func (c *Client) Info() Info {
	return Info{Model: c.model, Backend: c.baseURL}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends the prompt to the backend and returns the completion text.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(&chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/chat/completions"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug("Sending generation request",
		"model", c.model, "max_tokens", req.MaxTokens, "temperature", req.Temperature)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call llm backend: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm backend returned HTTP %d", httpResp.StatusCode)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("llm backend error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm backend returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
