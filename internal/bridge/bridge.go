package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

const readChunkSize = 4096

// Bridge pumps requests from a stdio stream through a Forwarder.
//
// Unlike the server's stdio transport, the bridge does not serialize
// request/response pairs: request N+1 may be sent downstream before request
// N's response arrives, and responses are written upstream as they complete.
// The caller correlates them via the echoed id, never via arrival order.
type Bridge struct {
	log       *slog.Logger
	in        io.Reader
	out       io.Writer
	forwarder *Forwarder

	writeMu sync.Mutex
}

// New creates a bridge reading requests from in and writing responses to out.
func New(log *slog.Logger, in io.Reader, out io.Writer, forwarder *Forwarder) *Bridge {
	return &Bridge{
		log:       log.With("component", "bridge"),
		in:        in,
		out:       out,
		forwarder: forwarder,
	}
}

// Run pumps the stream until it closes or the context is cancelled, then
// waits for in-flight forwards to drain.
func (b *Bridge) Run(ctx context.Context) error {
	b.log.Info("Bridge running", "endpoint", b.forwarder.endpoint)

	framer := jsonrpc.NewFramer()
	chunk := make([]byte, readChunkSize)

	g, ctx := errgroup.WithContext(ctx)

	var readErr error

	for {
		select {
		case <-ctx.Done():
			readErr = ctx.Err()
		default:
		}

		if readErr != nil {
			break
		}

		n, err := b.in.Read(chunk)

		if n > 0 {
			for _, frame := range framer.Push(chunk[:n]) {
				if frame.Err != nil {
					b.log.Warn("Skipping invalid frame", "error", frame.Err)

					continue
				}

				b.forward(ctx, g, frame.Raw)
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = fmt.Errorf("read input: %w", err)
			}

			break
		}
	}

	// Settle any undelimited tail held back by the framer.
	for _, frame := range framer.Close() {
		if frame.Err != nil {
			b.log.Warn("Skipping invalid frame", "error", frame.Err)

			continue
		}

		b.forward(ctx, g, frame.Raw)
	}

	// Outstanding forwards still owe the caller a response each.
	if err := g.Wait(); err != nil && readErr == nil {
		readErr = err
	}

	b.log.Info("Bridge stopped")

	return readErr
}

// forward launches one downstream call on its own goroutine so overlapping
// requests never wait on each other.
func (b *Bridge) forward(ctx context.Context, g *errgroup.Group, raw json.RawMessage) {
	var req jsonrpc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		b.log.Warn("Discarding non-request message", "error", err)

		return
	}

	g.Go(func() error {
		resp := b.forwarder.Dispatch(ctx, &req)

		return b.write(resp)
	})
}

func (b *Bridge) write(resp *jsonrpc.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		b.log.Error("Failed to marshal response", "error", err)

		return nil
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if _, err := b.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
