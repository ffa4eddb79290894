// Package tools exposes the LLM-backed tool set: chat, code analysis, text
// generation, translation and summarization.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quokkalabs/llmhost/internal/capability"
	"github.com/quokkalabs/llmhost/internal/conversation"
	"github.com/quokkalabs/llmhost/internal/llm"
)

// Generation defaults shared with the resource descriptions.
const (
	defaultChatTemperature = 0.7
	defaultChatMaxTokens   = 512
)

// lengthTokens maps the generate_text length argument to a token budget.
var lengthTokens = map[string]int{
	"short":  256,
	"medium": 512,
	"long":   1024,
}

// Provider contributes the LLM tool set to the capability registry.
type Provider struct {
	log           *slog.Logger
	gen           llm.Generator
	conversations *conversation.Store
}

// NewProvider creates the tool provider. Chat exchanges are recorded in the
// given conversation store.
func NewProvider(log *slog.Logger, gen llm.Generator, conversations *conversation.Store) *Provider {
	return &Provider{
		log:           log.With("component", "tools"),
		gen:           gen,
		conversations: conversations,
	}
}

// Resources implements capability.Provider. The tool provider contributes no
// resources.
func (p *Provider) Resources() []capability.ResourceEntry { return nil }

// Tools implements capability.Provider.
func (p *Provider) Tools() []capability.ToolEntry {
	return []capability.ToolEntry{
		{
			Tool: &mcp.Tool{
				Name:        "chat_with_llm",
				Description: "Chat with the local LLM model",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"message": {
							Type:        "string",
							Description: "The message to send to the LLM",
						},
						"system_prompt": {
							Type:        "string",
							Description: "Optional system prompt to guide the LLM's behavior",
						},
						"temperature": {
							Type:        "number",
							Description: "Temperature for response generation (0-1, default 0.7)",
						},
						"max_tokens": {
							Type:        "integer",
							Description: "Maximum tokens to generate (default 512)",
						},
					},
					Required: []string{"message"},
				},
			},
			Handler: p.chatWithLLM,
		},
		{
			Tool: &mcp.Tool{
				Name:        "analyze_code",
				Description: "Analyze code using the local LLM",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"code": {
							Type:        "string",
							Description: "The code to analyze",
						},
						"language": {
							Type:        "string",
							Description: "Programming language of the code",
						},
						"analysis_type": {
							Type:        "string",
							Description: "Type of analysis (review, explain, optimize, debug)",
						},
					},
					Required: []string{"code"},
				},
			},
			Handler: p.analyzeCode,
		},
		{
			Tool: &mcp.Tool{
				Name:        "generate_text",
				Description: "Generate text content using the local LLM",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"prompt": {
							Type:        "string",
							Description: "The prompt for text generation",
						},
						"style": {
							Type:        "string",
							Description: "Writing style (formal, casual, technical, creative)",
						},
						"length": {
							Type:        "string",
							Description: "Desired length (short, medium, long)",
						},
					},
					Required: []string{"prompt"},
				},
			},
			Handler: p.generateText,
		},
		{
			Tool: &mcp.Tool{
				Name:        "translate_text",
				Description: "Translate text using the local LLM",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"text": {
							Type:        "string",
							Description: "Text to translate",
						},
						"target_language": {
							Type:        "string",
							Description: "Target language for translation",
						},
						"source_language": {
							Type:        "string",
							Description: "Source language (optional, auto-detect if not provided)",
						},
					},
					Required: []string{"text", "target_language"},
				},
			},
			Handler: p.translateText,
		},
		{
			Tool: &mcp.Tool{
				Name:        "summarize_content",
				Description: "Summarize content using the local LLM",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"content": {
							Type:        "string",
							Description: "Content to summarize",
						},
						"summary_type": {
							Type:        "string",
							Description: "Type of summary (brief, detailed, bullet_points)",
						},
						"max_length": {
							Type:        "integer",
							Description: "Maximum length of summary in words (default 150)",
						},
					},
					Required: []string{"content"},
				},
			},
			Handler: p.summarizeContent,
		},
	}
}

func (p *Provider) chatWithLLM(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return errorResult(err), nil
	}

	message, ok := args["message"].(string)
	if !ok || message == "" {
		return errorResult(fmt.Errorf("message is required")), nil
	}

	systemPrompt, _ := args["system_prompt"].(string)
	temperature := floatArg(args, "temperature", defaultChatTemperature)
	maxTokens := intArg(args, "max_tokens", defaultChatMaxTokens)

	response, err := p.gen.Generate(ctx, &llm.GenerateRequest{
		Prompt:       message,
		SystemPrompt: systemPrompt,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	})
	if err != nil {
		p.log.Warn("Chat generation failed", "error", err)

		return errorResult(err), nil
	}

	id := p.conversations.Append(conversation.Entry{
		UserMessage:  message,
		SystemPrompt: systemPrompt,
		Response:     response,
		Parameters: conversation.Parameters{
			Temperature: temperature,
			MaxTokens:   maxTokens,
		},
	})
	p.log.Debug("Recorded conversation", "conversation_id", id)

	return textResult(response), nil
}

func (p *Provider) analyzeCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return errorResult(err), nil
	}

	code, ok := args["code"].(string)
	if !ok || code == "" {
		return errorResult(fmt.Errorf("code is required")), nil
	}

	language := stringArg(args, "language", "unknown")
	analysisType := stringArg(args, "analysis_type", "review")

	systemPrompt := fmt.Sprintf("You are an expert code reviewer and software engineer. "+
		"Analyze the following %s code and provide a %s. "+
		"Be specific, constructive, and helpful in your analysis.", language, analysisType)

	prompt := fmt.Sprintf(`Please %s this %s code:

`+"```%s\n%s\n```"+`

Provide detailed feedback including:
1. Code quality and best practices
2. Potential issues or bugs
3. Performance considerations
4. Suggestions for improvement
`, analysisType, language, language, code)

	response, err := p.gen.Generate(ctx, &llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		MaxTokens:    1024,
		Temperature:  0.3,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(response), nil
}

func (p *Provider) generateText(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return errorResult(err), nil
	}

	prompt, ok := args["prompt"].(string)
	if !ok || prompt == "" {
		return errorResult(fmt.Errorf("prompt is required")), nil
	}

	style := stringArg(args, "style", "formal")
	length := stringArg(args, "length", "medium")

	maxTokens, ok := lengthTokens[length]
	if !ok {
		maxTokens = lengthTokens["medium"]
	}

	systemPrompt := fmt.Sprintf("You are a skilled writer. Generate text in a %s style. "+
		"The response should be %s in length. Be creative, engaging, and appropriate "+
		"for the requested style and length.", style, length)

	response, err := p.gen.Generate(ctx, &llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		MaxTokens:    maxTokens,
		Temperature:  0.8,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(response), nil
}

func (p *Provider) translateText(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return errorResult(err), nil
	}

	text, ok := args["text"].(string)
	if !ok || text == "" {
		return errorResult(fmt.Errorf("text is required")), nil
	}

	targetLanguage, ok := args["target_language"].(string)
	if !ok || targetLanguage == "" {
		return errorResult(fmt.Errorf("target_language is required")), nil
	}

	sourceLanguage := stringArg(args, "source_language", "auto-detect")

	systemPrompt := "You are a professional translator. Provide accurate, " +
		"natural translations while preserving the original meaning, tone, and context."

	var prompt string
	if sourceLanguage == "auto-detect" {
		prompt = fmt.Sprintf("Translate the following text to %s:\n\n%q\n\n"+
			"Provide only the translation, maintaining the original tone and meaning.",
			targetLanguage, text)
	} else {
		prompt = fmt.Sprintf("Translate the following %s text to %s:\n\n%q\n\n"+
			"Provide only the translation, maintaining the original tone and meaning.",
			sourceLanguage, targetLanguage, text)
	}

	response, err := p.gen.Generate(ctx, &llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		MaxTokens:    512,
		Temperature:  0.3,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(response), nil
}

func (p *Provider) summarizeContent(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(req)
	if err != nil {
		return errorResult(err), nil
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return errorResult(fmt.Errorf("content is required")), nil
	}

	summaryType := stringArg(args, "summary_type", "brief")
	maxLength := intArg(args, "max_length", 150)

	formatInstructions := map[string]string{
		"brief":         "Provide a brief, one-paragraph summary",
		"detailed":      "Provide a detailed summary with multiple paragraphs covering all important points",
		"bullet_points": "Provide a summary in bullet point format",
	}

	instruction, ok := formatInstructions[summaryType]
	if !ok {
		instruction = "Provide a clear summary"
	}

	prompt := fmt.Sprintf("Summarize the following content in approximately %d words. %s:\n\n%s\n\nSummary:",
		maxLength, instruction, content)

	response, err := p.gen.Generate(ctx, &llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: "You are an expert at creating clear, concise summaries. Focus on the key points and main ideas while maintaining accuracy.",
		MaxTokens:    maxLength * 2,
		Temperature:  0.5,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return textResult(response), nil
}

// parseArguments unmarshals the tool call arguments into a map.
func parseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("unmarshal arguments: %w", err)
	}

	return args, nil
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}

	return fallback
}

func floatArg(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}

	return fallback
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}

	return fallback
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
