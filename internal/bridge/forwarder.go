// Package bridge relays protocol requests received on one transport to a
// remote MCP endpoint reachable over another.
//
// The Forwarder sends each request downstream over HTTP and translates every
// failure (timeout, refused connection, bad status, unparsable body) into a
// well-formed error response carrying the original request id, so the
// upstream caller always receives exactly one response per request. The
// Bridge pumps a stdio stream through the Forwarder with overlapping
// in-flight forwards, correlated solely by the echoed id.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

// DefaultTimeout bounds a downstream call when no explicit timeout is
// configured.
const DefaultTimeout = 30 * time.Second

// Forwarder relays single requests to a downstream MCP endpoint over HTTP.
type Forwarder struct {
	log      *slog.Logger
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

// NewForwarder creates a forwarder targeting the downstream endpoint URL
// (the full path, for example http://gpu-box:8080/mcp). A non-positive
// timeout selects DefaultTimeout.
func NewForwarder(log *slog.Logger, endpoint string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Forwarder{
		log:      log.With("component", "bridge"),
		endpoint: endpoint,
		timeout:  timeout,
		// The zero-timeout client: per-call deadlines come from the request
		// context so overlapping forwards each get their own clock.
		client: &http.Client{},
	}
}

// Dispatch implements transport.Handler. It never returns a failure as
// anything other than a complete response.
func (f *Forwarder) Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return f.failure(req, fmt.Sprintf("Bridge error: %s", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return f.failure(req, fmt.Sprintf("Bridge error: %s", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := f.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.log.Warn("Downstream request timed out", "timeout", f.timeout, "method", req.Method)

			return f.failure(req, fmt.Sprintf("Request timeout after %s", f.timeout))
		}

		f.log.Warn("Downstream unreachable", "endpoint", f.endpoint, "error", err)

		return f.failure(req, fmt.Sprintf("Downstream unreachable: %s", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return f.failure(req, fmt.Sprintf("Bridge error: %s", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		f.log.Warn("Downstream returned error status",
			"status", httpResp.StatusCode, "method", req.Method)

		return f.failure(req, fmt.Sprintf("HTTP Error: %d", httpResp.StatusCode))
	}

	var resp jsonrpc.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return f.failure(req, fmt.Sprintf("Invalid downstream response: %s", err))
	}

	// Parsing alone is not enough: `null` or `{}` unmarshal cleanly into a
	// zero Response that carries neither result nor error and a blank id.
	if (resp.Result == nil) == (resp.Error == nil) {
		f.log.Warn("Downstream response is not a result or error envelope", "method", req.Method)

		return f.failure(req, "Invalid downstream response: missing result or error")
	}

	// A well-formed downstream response is relayed unchanged; its id already
	// matches the request.
	return &resp
}

func (f *Forwarder) failure(req *jsonrpc.Request, message string) *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.CodeInternalError, message)
}
