// Package dispatch routes decoded JSON-RPC requests to registered method
// handlers and translates every failure into a well-formed response envelope.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

// Handler processes the params of a single request and returns a
// JSON-serializable result.
//
// Returning a *jsonrpc.Error preserves its code in the response; any other
// error is reported as an internal error. Side effects belong to handlers,
// never to the dispatcher.
type Handler func(ctx context.Context, req *jsonrpc.Request) (any, error)

// Dispatcher maps method names to handlers.
//
// The method table is populated by explicit Register calls before serving
// begins and is not mutated afterward, so Dispatch reads it without locking.
type Dispatcher struct {
	log      *slog.Logger
	handlers map[string]Handler
}

// New creates an empty dispatcher.
func New(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log.With("component", "dispatch"),
		handlers: make(map[string]Handler, 8),
	}
}

// Register binds a handler to a method name. Registering the same method
// twice overwrites the previous binding.
func (d *Dispatcher) Register(method string, handler Handler) {
	d.log.Debug("Registering method handler", "method", method)
	d.handlers[method] = handler
}

// Dispatch routes a request to its handler and wraps the outcome in a
// response. It never panics and always returns a complete response: exactly
// one response per request, with the request id echoed verbatim.
func (d *Dispatcher) Dispatch(ctx context.Context, req *jsonrpc.Request) (resp *jsonrpc.Response) {
	handler, ok := d.handlers[req.Method]
	if !ok {
		d.log.Warn("Method not found", "method", req.Method)

		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.CodeMethodNotFound,
			fmt.Sprintf("Method not found: %s", req.Method))
	}

	// A panicking handler must not take the connection down with it.
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Handler panicked", "method", req.Method, "panic", r)
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.CodeInternalError,
				fmt.Sprintf("Internal error: %v", r))
		}
	}()

	result, err := handler(ctx, req)
	if err != nil {
		return d.errorResponse(req, err)
	}

	return jsonrpc.NewResponse(req.ID, result)
}

// errorResponse is the single translation point from handler failures to
// JSON-RPC error codes.
func (d *Dispatcher) errorResponse(req *jsonrpc.Request, err error) *jsonrpc.Response {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		d.log.Warn("Handler returned protocol error",
			"method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)

		return &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      req.ID,
			Error:   rpcErr,
		}
	}

	d.log.Warn("Handler failed", "method", req.Method, "error", err)

	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.CodeInternalError,
		fmt.Sprintf("Internal error: %s", err))
}
