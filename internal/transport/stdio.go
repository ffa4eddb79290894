package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/quokkalabs/llmhost/internal/jsonrpc"
)

// readChunkSize is the read buffer for the stdio loop. Chunks are framed by
// the jsonrpc.Framer, so the size only affects syscall frequency.
const readChunkSize = 4096

// Stdio serves a single logical connection over an input/output pipe pair.
//
// The loop enforces strict ordering: each response is fully written and
// flushed before the next request is decoded, because the upstream caller
// relies on in-order delivery over the pipe. Framing errors are logged and
// skipped; a read failure or stream closure ends the loop without attempting
// further writes.
type Stdio struct {
	log     *slog.Logger
	in      io.Reader
	out     io.Writer
	handler Handler
}

// NewStdio creates a stdio transport reading requests from in and writing
// responses to out, one JSON value per line.
func NewStdio(log *slog.Logger, in io.Reader, out io.Writer, handler Handler) *Stdio {
	return &Stdio{
		log:     log.With("component", "stdio"),
		in:      in,
		out:     out,
		handler: handler,
	}
}

// Run serves the connection until the input stream closes, a transport error
// occurs, or the context is cancelled.
func (t *Stdio) Run(ctx context.Context) error {
	t.log.Info("Serving stdio connection")

	framer := jsonrpc.NewFramer()
	writer := bufio.NewWriter(t.out)
	chunk := make([]byte, readChunkSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := t.in.Read(chunk)

		if n > 0 {
			for _, frame := range framer.Push(chunk[:n]) {
				if frame.Err != nil {
					// Recoverable: the offending span is already skipped.
					t.log.Warn("Skipping invalid frame", "error", frame.Err)

					continue
				}

				if err := t.serve(ctx, frame.Raw, writer); err != nil {
					return err
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				t.log.Info("Input stream closed")

				return t.drain(ctx, framer, writer)
			}

			return fmt.Errorf("read input: %w", err)
		}
	}
}

// drain settles whatever the framer still holds at end of stream, such as a
// trailing number with no delimiter after it.
func (t *Stdio) drain(ctx context.Context, framer *jsonrpc.Framer, writer *bufio.Writer) error {
	for _, frame := range framer.Close() {
		if frame.Err != nil {
			t.log.Warn("Skipping invalid frame", "error", frame.Err)

			continue
		}

		if err := t.serve(ctx, frame.Raw, writer); err != nil {
			return err
		}
	}

	return nil
}

// serve dispatches one decoded message and writes its response before
// returning, which is what holds the ordering guarantee.
func (t *Stdio) serve(ctx context.Context, raw json.RawMessage, writer *bufio.Writer) error {
	var req jsonrpc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		// Valid JSON but not a request object. There is no id to echo, so
		// the message is dropped with a log line.
		t.log.Warn("Discarding non-request message", "error", err)

		return nil
	}

	resp := t.handler.Dispatch(ctx, &req)

	data, err := json.Marshal(resp)
	if err != nil {
		t.log.Error("Failed to marshal response", "method", req.Method, "error", err)

		return nil
	}

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}

	return nil
}
