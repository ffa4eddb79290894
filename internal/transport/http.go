package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

const (
	// MCPPath is the fixed endpoint serving protocol requests.
	MCPPath = "/mcp"
	// HealthPath reports process liveness for orchestration probes.
	HealthPath = "/healthz"

	maxBodyBytes    = 4 << 20
	shutdownTimeout = 5 * time.Second
)

// HTTP serves one protocol request per POST body. Requests on independent
// connections are handled concurrently with no cross-request ordering.
type HTTP struct {
	log     *slog.Logger
	handler Handler
	mux     *http.ServeMux
	server  *http.Server
}

// NewHTTP creates an HTTP transport listening on addr.
func NewHTTP(log *slog.Logger, addr string, handler Handler) *HTTP {
	t := &HTTP{
		log:     log.With("component", "http"),
		handler: handler,
		mux:     http.NewServeMux(),
	}

	t.mux.HandleFunc(MCPPath, t.handleMCP)
	t.mux.HandleFunc(HealthPath, t.handleHealth)

	t.server = &http.Server{
		Addr:              addr,
		Handler:           t.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return t
}

// ServeHTTP makes the transport usable directly as an http.Handler, which
// keeps tests independent of the listener lifecycle.
func (t *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.mux.ServeHTTP(w, r)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (t *HTTP) Run(ctx context.Context) error {
	t.log.Info("Serving HTTP", "addr", t.server.Addr)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := t.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return t.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (t *HTTP) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		t.log.Warn("Failed to read request body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)

		return
	}

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.log.Warn("Undecodable request body", "error", err)
		t.writeResponse(w, http.StatusBadRequest,
			jsonrpc.NewErrorResponse(nil, jsonrpc.CodeInternalError,
				fmt.Sprintf("Internal error: invalid request body: %s", err)))

		return
	}

	resp := t.handler.Dispatch(r.Context(), &req)
	t.writeResponse(w, http.StatusOK, resp)
}

func (t *HTTP) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (t *HTTP) writeResponse(w http.ResponseWriter, status int, resp *jsonrpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		t.log.Error("Failed to marshal response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(data); err != nil {
		t.log.Warn("Failed to write response", "error", err)
	}
}
