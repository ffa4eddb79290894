package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request(id, method string) *jsonrpc.Request {
	return &jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		ID:      json.RawMessage(id),
		Method:  method,
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := New(testLogger())

	resp := d.Dispatch(context.Background(), request(`7`, "foo/bar"))

	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "Method not found: foo/bar", resp.Error.Message)
	assert.JSONEq(t, `7`, string(resp.ID))
	assert.Nil(t, resp.Result)
}

func TestDispatchSuccess(t *testing.T) {
	d := New(testLogger())
	d.Register("echo", func(_ context.Context, req *jsonrpc.Request) (any, error) {
		return map[string]any{"method": req.Method}, nil
	})

	resp := d.Dispatch(context.Background(), request(`"abc"`, "echo"))

	require.Nil(t, resp.Error)
	assert.JSONEq(t, `"abc"`, string(resp.ID))
	assert.Equal(t, map[string]any{"method": "echo"}, resp.Result)
}

func TestDispatchHandlerError(t *testing.T) {
	d := New(testLogger())
	d.Register("broken", func(_ context.Context, _ *jsonrpc.Request) (any, error) {
		return nil, errors.New("backend unavailable")
	})

	resp := d.Dispatch(context.Background(), request(`1`, "broken"))

	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, resp.Error.Code)
	assert.Equal(t, "Internal error: backend unavailable", resp.Error.Message)
}

func TestDispatchHandlerPanic(t *testing.T) {
	d := New(testLogger())
	d.Register("explode", func(_ context.Context, _ *jsonrpc.Request) (any, error) {
		panic("kaboom")
	})

	resp := d.Dispatch(context.Background(), request(`1`, "explode"))

	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "kaboom")
}

func TestDispatchFailureIsolation(t *testing.T) {
	d := New(testLogger())
	d.Register("flaky", func(_ context.Context, req *jsonrpc.Request) (any, error) {
		if string(req.ID) == `1` {
			return nil, errors.New("first call fails")
		}

		return map[string]any{"ok": true}, nil
	})

	first := d.Dispatch(context.Background(), request(`1`, "flaky"))
	require.NotNil(t, first.Error)
	assert.Equal(t, jsonrpc.CodeInternalError, first.Error.Code)

	second := d.Dispatch(context.Background(), request(`2`, "flaky"))
	require.Nil(t, second.Error)
	assert.JSONEq(t, `2`, string(second.ID))
}

func TestDispatchProtocolErrorPassthrough(t *testing.T) {
	d := New(testLogger())
	d.Register("strict", func(_ context.Context, _ *jsonrpc.Request) (any, error) {
		return nil, &jsonrpc.Error{Code: jsonrpc.CodeInvalidParams, Message: "missing name"}
	})

	resp := d.Dispatch(context.Background(), request(`1`, "strict"))

	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.CodeInvalidParams, resp.Error.Code)
	assert.Equal(t, "missing name", resp.Error.Message)
}

func TestRegisterOverwritesPreviousBinding(t *testing.T) {
	d := New(testLogger())
	d.Register("dup", func(_ context.Context, _ *jsonrpc.Request) (any, error) {
		return "old", nil
	})
	d.Register("dup", func(_ context.Context, _ *jsonrpc.Request) (any, error) {
		return "new", nil
	})

	resp := d.Dispatch(context.Background(), request(`1`, "dup"))

	require.Nil(t, resp.Error)
	assert.Equal(t, "new", resp.Result)
}

func TestDispatchEchoesNullID(t *testing.T) {
	d := New(testLogger())

	resp := d.Dispatch(context.Background(), &jsonrpc.Request{
		JSONRPC: jsonrpc.Version,
		Method:  "missing",
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
}
