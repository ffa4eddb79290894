package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/llmhost/internal/conversation"
	"github.com/quokkalabs/llmhost/internal/llm"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ *llm.GenerateRequest) (string, error) {
	return "", nil
}

func (stubGenerator) Info() llm.Info {
	return llm.Info{Model: "test-model", Backend: "http://localhost:11434/v1"}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProvider(store *conversation.Store) *Provider {
	return NewProvider(testLogger(), stubGenerator{}, store)
}

func readJSON(t *testing.T, p *Provider, uri string) map[string]any {
	t.Helper()

	for _, entry := range p.Resources() {
		if entry.Resource.URI != uri {
			continue
		}

		result, err := entry.Handler(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &payload))

		return payload
	}

	t.Fatalf("resource %s not registered", uri)

	return nil
}

func TestProviderExposesThreeResources(t *testing.T) {
	p := newProvider(conversation.NewStore())

	entries := p.Resources()
	require.Len(t, entries, 3)

	uris := make([]string, 0, len(entries))
	for _, entry := range entries {
		uris = append(uris, entry.Resource.URI)
	}

	assert.Equal(t, []string{ModelInfoURI, ConversationsURI, SystemStatusURI}, uris)
	assert.Empty(t, p.Tools())
}

func TestReadModelInfo(t *testing.T) {
	payload := readJSON(t, newProvider(conversation.NewStore()), ModelInfoURI)

	assert.Equal(t, "test-model", payload["model_name"])
	assert.Equal(t, "http://localhost:11434/v1", payload["backend"])
}

func TestReadConversationHistory(t *testing.T) {
	store := conversation.NewStore()
	store.Append(conversation.Entry{UserMessage: "hello", Response: "hi"})
	store.Append(conversation.Entry{UserMessage: "bye", Response: "later"})

	payload := readJSON(t, newProvider(store), ConversationsURI)

	assert.InDelta(t, 2, payload["count"], 0)

	conversations, ok := payload["conversations"].([]any)
	require.True(t, ok)
	require.Len(t, conversations, 2)

	first, ok := conversations[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", first["user_message"])
}

func TestReadSystemStatus(t *testing.T) {
	payload := readJSON(t, newProvider(conversation.NewStore()), SystemStatusURI)

	assert.NotEmpty(t, payload["timestamp"])
	assert.NotEmpty(t, payload["go_version"])
	assert.Greater(t, payload["goroutines"], float64(0))
}
