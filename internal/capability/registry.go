// Package capability holds the merged set of invocable tools and readable
// resources exposed over the protocol.
//
// Descriptors use the official MCP SDK types so tool schemas and resource
// metadata serialize in the standard wire shape. The registry is built once
// at startup from one or more providers and is immutable afterward, so
// concurrent reads need no synchronization.
package capability

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolEntry pairs a tool descriptor with its handler.
type ToolEntry struct {
	Tool    *mcp.Tool
	Handler mcp.ToolHandler
}

// ResourceEntry pairs a resource descriptor with its handler.
type ResourceEntry struct {
	Resource *mcp.Resource
	Handler  mcp.ResourceHandler
}

// Provider contributes zero or more tools and resources to a registry.
type Provider interface {
	Tools() []ToolEntry
	Resources() []ResourceEntry
}

// Registry is the merged, insertion-ordered capability set.
//
// Listing preserves every contributed entry, duplicates included. Resolution
// is by exact key with last-registration-wins precedence: when two providers
// contribute the same tool name or resource URI, the later registration
// shadows the earlier one for the life of the process.
type Registry struct {
	tools     []ToolEntry
	resources []ResourceEntry

	toolIndex     map[string]int
	resourceIndex map[string]int
}

// New merges the providers, in order, into an immutable registry.
func New(providers ...Provider) *Registry {
	r := &Registry{
		toolIndex:     make(map[string]int),
		resourceIndex: make(map[string]int),
	}

	for _, p := range providers {
		for _, entry := range p.Tools() {
			r.tools = append(r.tools, entry)
			r.toolIndex[entry.Tool.Name] = len(r.tools) - 1
		}

		for _, entry := range p.Resources() {
			r.resources = append(r.resources, entry)
			r.resourceIndex[entry.Resource.URI] = len(r.resources) - 1
		}
	}

	return r
}

// Tools returns all tool entries in registration order.
func (r *Registry) Tools() []ToolEntry {
	return r.tools
}

// Resources returns all resource entries in registration order.
func (r *Registry) Resources() []ResourceEntry {
	return r.resources
}

// ResolveTool returns the last-registered tool with the given name.
func (r *Registry) ResolveTool(name string) (ToolEntry, bool) {
	i, ok := r.toolIndex[name]
	if !ok {
		return ToolEntry{}, false
	}

	return r.tools[i], true
}

// ResolveResource returns the last-registered resource with the given URI.
func (r *Registry) ResolveResource(uri string) (ResourceEntry, bool) {
	i, ok := r.resourceIndex[uri]
	if !ok {
		return ResourceEntry{}, false
	}

	return r.resources[i], true
}
