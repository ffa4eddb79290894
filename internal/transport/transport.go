// Package transport owns the connection lifecycles that feed decoded
// requests into a dispatcher and write responses back out.
//
// Two bindings are provided: Stdio serves a single pipe with strict
// request/response ordering, and HTTP serves one request per POST body with
// full concurrency across independent requests.
package transport

import (
	"context"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

// Handler turns one decoded request into exactly one response. It is
// implemented by the dispatcher and by the bridge forwarder, so both can sit
// behind the same transports.
type Handler interface {
	Dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response
}
