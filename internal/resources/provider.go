// Package resources exposes readable server state: model information,
// conversation history and runtime status.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quokkalabs/llmhost/internal/capability"
	"github.com/quokkalabs/llmhost/internal/conversation"
	"github.com/quokkalabs/llmhost/internal/llm"
)

// Resource URIs served by this provider.
const (
	ModelInfoURI     = "llm://model/info"
	ConversationsURI = "llm://conversations/history"
	SystemStatusURI  = "llm://system/status"
)

// Provider contributes the built-in readable resources.
type Provider struct {
	log           *slog.Logger
	gen           llm.Generator
	conversations *conversation.Store
}

// NewProvider creates the resource provider.
func NewProvider(log *slog.Logger, gen llm.Generator, conversations *conversation.Store) *Provider {
	return &Provider{
		log:           log.With("component", "resources"),
		gen:           gen,
		conversations: conversations,
	}
}

// Tools implements capability.Provider. The resource provider contributes no
// tools.
func (p *Provider) Tools() []capability.ToolEntry { return nil }

// Resources implements capability.Provider.
func (p *Provider) Resources() []capability.ResourceEntry {
	return []capability.ResourceEntry{
		{
			Resource: &mcp.Resource{
				URI:         ModelInfoURI,
				Name:        "LLM Model Information",
				Description: "Information about the configured LLM backend",
				MIMEType:    "application/json",
			},
			Handler: p.readModelInfo,
		},
		{
			Resource: &mcp.Resource{
				URI:         ConversationsURI,
				Name:        "Conversation History",
				Description: "History of conversations with the LLM",
				MIMEType:    "application/json",
			},
			Handler: p.readConversations,
		},
		{
			Resource: &mcp.Resource{
				URI:         SystemStatusURI,
				Name:        "System Status",
				Description: "Current process status and resource usage",
				MIMEType:    "application/json",
			},
			Handler: p.readSystemStatus,
		},
	}
}

func (p *Provider) readModelInfo(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	info := p.gen.Info()

	return jsonContents(ModelInfoURI, map[string]any{
		"model_name": info.Model,
		"backend":    info.Backend,
	})
}

func (p *Provider) readConversations(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	entries := p.conversations.Snapshot()

	return jsonContents(ConversationsURI, map[string]any{
		"count":         len(entries),
		"conversations": entries,
	})
}

func (p *Provider) readSystemStatus(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var mem runtime.MemStats

	runtime.ReadMemStats(&mem)

	return jsonContents(SystemStatusURI, map[string]any{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"go_version":       runtime.Version(),
		"goroutines":       runtime.NumGoroutine(),
		"heap_alloc_bytes": mem.HeapAlloc,
		"heap_sys_bytes":   mem.HeapSys,
		"gc_cycles":        mem.NumGC,
	})
}

// jsonContents marshals a payload as a single application/json content item.
func jsonContents(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
