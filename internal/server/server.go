// Package server binds the MCP protocol methods (tools/list, tools/call,
// resources/list, resources/read) to a capability registry.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quokkalabs/llmhost/internal/capability"
	"github.com/quokkalabs/llmhost/internal/dispatch"
	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

// Server resolves protocol methods against an immutable capability registry.
type Server struct {
	log      *slog.Logger
	registry *capability.Registry
}

// New creates a server over the given registry.
func New(log *slog.Logger, registry *capability.Registry) *Server {
	return &Server{
		log:      log.With("component", "server"),
		registry: registry,
	}
}

// Register installs the protocol method handlers on the dispatcher. It is
// called once at startup, before any transport begins serving.
func (s *Server) Register(d *dispatch.Dispatcher) {
	d.Register("tools/list", s.listTools)
	d.Register("tools/call", s.callTool)
	d.Register("resources/list", s.listResources)
	d.Register("resources/read", s.readResource)
}

func (s *Server) listTools(_ context.Context, _ *jsonrpc.Request) (any, error) {
	entries := s.registry.Tools()

	tools := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		tool := map[string]any{
			"name":        entry.Tool.Name,
			"description": entry.Tool.Description,
		}

		if entry.Tool.InputSchema != nil {
			schema, err := toMap(entry.Tool.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("serialize schema for %s: %w", entry.Tool.Name, err)
			}

			tool["inputSchema"] = schema
		}

		tools = append(tools, tool)
	}

	return map[string]any{"tools": tools}, nil
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) callTool(ctx context.Context, req *jsonrpc.Request) (any, error) {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, fmt.Errorf("decode tools/call params: %w", err)
	}

	entry, ok := s.registry.ResolveTool(params.Name)
	if !ok {
		s.log.Warn("Tool not found", "tool", params.Name)

		return errorContent(fmt.Sprintf("Unknown tool: %s", params.Name)), nil
	}

	result, err := entry.Handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      params.Name,
			Arguments: params.Arguments,
		},
	})
	if err != nil {
		// Tool failures stay inside the tool result envelope; the protocol
		// call itself succeeded.
		s.log.Warn("Tool call failed", "tool", params.Name, "error", err)

		return errorContent("Error: " + err.Error()), nil
	}

	return toolResultToWire(result), nil
}

func (s *Server) listResources(_ context.Context, _ *jsonrpc.Request) (any, error) {
	entries := s.registry.Resources()

	resources := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		resources = append(resources, map[string]any{
			"uri":         entry.Resource.URI,
			"name":        entry.Resource.Name,
			"description": entry.Resource.Description,
			"mimeType":    entry.Resource.MIMEType,
		})
	}

	return map[string]any{"resources": resources}, nil
}

type readResourceParams struct {
	URI string `json:"uri"`
}

func (s *Server) readResource(ctx context.Context, req *jsonrpc.Request) (any, error) {
	var params readResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, fmt.Errorf("decode resources/read params: %w", err)
	}

	entry, ok := s.registry.ResolveResource(params.URI)
	if !ok {
		s.log.Warn("Resource not found", "uri", params.URI)

		return nil, fmt.Errorf("unknown resource: %s", params.URI)
	}

	result, err := entry.Handler(ctx, &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: params.URI},
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", params.URI, err)
	}

	contents := make([]map[string]any, 0, len(result.Contents))
	for _, c := range result.Contents {
		contents = append(contents, resourceContentsToWire(c))
	}

	return map[string]any{"contents": contents}, nil
}

// toolResultToWire converts a tool result to the protocol shape:
// {content:[{type,...}], isError?}.
func toolResultToWire(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{"content": []map[string]any{}}
	}

	content := make([]map[string]any, 0, len(result.Content))

	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{
				"type": "text",
				"text": v.Text,
			})
		case *mcp.ImageContent:
			content = append(content, map[string]any{
				"type":     "image",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				content = append(content, map[string]any{
					"type": "resource",
					"resource": map[string]any{
						"uri":      v.Resource.URI,
						"mimeType": v.Resource.MIMEType,
						"text":     v.Resource.Text,
					},
				})
			}
		}
	}

	wire := map[string]any{"content": content}
	if result.IsError {
		wire["isError"] = true
	}

	return wire
}

func resourceContentsToWire(c *mcp.ResourceContents) map[string]any {
	wire := map[string]any{
		"uri":      c.URI,
		"mimeType": c.MIMEType,
	}

	if len(c.Blob) > 0 {
		wire["type"] = "blob"
		wire["blob"] = c.Blob
	} else {
		wire["type"] = "text"
		wire["text"] = c.Text
	}

	return wire
}

func errorContent(message string) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": message},
		},
		"isError": true,
	}
}

// toMap serializes a value and decodes it back into a generic map, matching
// the wire representation exactly.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return m, nil
}
