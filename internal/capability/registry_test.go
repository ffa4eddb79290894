package capability

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticProvider is a test provider with fixed entries.
type staticProvider struct {
	tools     []ToolEntry
	resources []ResourceEntry
}

func (p *staticProvider) Tools() []ToolEntry         { return p.tools }
func (p *staticProvider) Resources() []ResourceEntry { return p.resources }

func toolEntry(name, reply string) ToolEntry {
	return ToolEntry{
		Tool: &mcp.Tool{Name: name, Description: name + " tool"},
		Handler: func(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: reply}},
			}, nil
		},
	}
}

func resourceEntry(uri string) ResourceEntry {
	return ResourceEntry{
		Resource: &mcp.Resource{URI: uri, Name: uri, MIMEType: "application/json"},
		Handler: func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{}, nil
		},
	}
}

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	r := New(
		&staticProvider{tools: []ToolEntry{toolEntry("alpha", "a"), toolEntry("beta", "b")}},
		&staticProvider{
			tools:     []ToolEntry{toolEntry("gamma", "g")},
			resources: []ResourceEntry{resourceEntry("llm://model/info")},
		},
	)

	tools := r.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "alpha", tools[0].Tool.Name)
	assert.Equal(t, "beta", tools[1].Tool.Name)
	assert.Equal(t, "gamma", tools[2].Tool.Name)

	resources := r.Resources()
	require.Len(t, resources, 1)
	assert.Equal(t, "llm://model/info", resources[0].Resource.URI)
}

func TestRegistryDuplicatesAllListedLastResolves(t *testing.T) {
	r := New(
		&staticProvider{tools: []ToolEntry{toolEntry("echo", "first")}},
		&staticProvider{tools: []ToolEntry{toolEntry("echo", "second")}},
	)

	// Both registrations appear in the listing.
	require.Len(t, r.Tools(), 2)

	// Every resolution for the life of the registry picks the same provider:
	// the last one registered.
	for range 10 {
		entry, ok := r.ResolveTool("echo")
		require.True(t, ok)

		result, err := entry.Handler(context.Background(), &mcp.CallToolRequest{})
		require.NoError(t, err)
		require.Len(t, result.Content, 1)

		text, isText := result.Content[0].(*mcp.TextContent)
		require.True(t, isText)
		assert.Equal(t, "second", text.Text)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := New(&staticProvider{})

	_, ok := r.ResolveTool("missing")
	assert.False(t, ok)

	_, ok = r.ResolveResource("llm://nope")
	assert.False(t, ok)
}

func TestRegistryResolveResourceLastWins(t *testing.T) {
	first := resourceEntry("llm://model/info")
	first.Resource.Description = "first"
	second := resourceEntry("llm://model/info")
	second.Resource.Description = "second"

	r := New(
		&staticProvider{resources: []ResourceEntry{first}},
		&staticProvider{resources: []ResourceEntry{second}},
	)

	require.Len(t, r.Resources(), 2)

	entry, ok := r.ResolveResource("llm://model/info")
	require.True(t, ok)
	assert.Equal(t, "second", entry.Resource.Description)
}
