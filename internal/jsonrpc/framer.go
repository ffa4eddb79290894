package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// FramingError reports a byte span that cannot be part of any valid JSON
// value. The span has already been discarded from the stream; subsequent
// messages are unaffected.
type FramingError struct {
	Span []byte
}

func (e *FramingError) Error() string {
	span := e.Span
	if len(span) > 64 {
		span = span[:64]
	}

	return fmt.Sprintf("invalid JSON frame: %q", span)
}

// Frame is one unit produced by the Framer: either a complete raw JSON value
// or a framing error for a skipped span. Exactly one field is set.
type Frame struct {
	Raw json.RawMessage
	Err *FramingError
}

// Framer turns a raw byte stream into a sequence of discrete JSON values.
//
// Input arrives in arbitrary chunks: a chunk may carry several complete
// values, a fragment of one, or structurally invalid bytes. The framer
// buffers partial input across pushes, emits each complete value as soon as
// its final byte arrives, and skips invalid spans so one corrupt segment
// never blocks draining of subsequent messages.
type Framer struct {
	buf []byte
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Push appends a chunk to the accumulation buffer and returns every frame
// that can be completed with the data seen so far, in stream order.
//
// A valid-but-incomplete prefix is retained for the next push and produces
// no frames.
func (f *Framer) Push(chunk []byte) []Frame {
	f.buf = append(f.buf, chunk...)

	var frames []Frame

	for {
		f.discardLeadingSpace()

		if len(f.buf) == 0 {
			return frames
		}

		n, verdict := scanValue(f.buf)

		switch verdict {
		case scanNeedMore:
			return frames

		case scanComplete:
			span := f.consume(n)
			if json.Valid(span) {
				frames = append(frames, Frame{Raw: json.RawMessage(span)})
			} else {
				frames = append(frames, Frame{Err: &FramingError{Span: span}})
			}

		case scanInvalid:
			frames = append(frames, Frame{Err: &FramingError{Span: f.consume(n)}})
		}
	}
}

// Close flushes the stream tail once no more input will arrive. A trailing
// number has no delimiter proving it complete, so Push holds it back; Close
// settles it, emitting the pending bytes as a final value or, if they never
// became valid JSON, as a framing error. The framer is empty afterwards.
func (f *Framer) Close() []Frame {
	f.discardLeadingSpace()

	if len(f.buf) == 0 {
		return nil
	}

	span := f.consume(len(f.buf))
	if json.Valid(span) {
		return []Frame{{Raw: json.RawMessage(span)}}
	}

	return []Frame{{Err: &FramingError{Span: span}}}
}

// consume copies the first n buffered bytes and advances past them. The copy
// is required because the buffer's backing array is reused by later pushes.
func (f *Framer) consume(n int) []byte {
	span := make([]byte, n)
	copy(span, f.buf[:n])
	f.buf = f.buf[n:]

	return span
}

func (f *Framer) discardLeadingSpace() {
	i := 0
	for i < len(f.buf) && isSpace(f.buf[i]) {
		i++
	}

	f.buf = f.buf[i:]
}

// Scanner verdicts.
const (
	scanComplete = iota
	scanNeedMore
	scanInvalid
)

// scanValue locates the end of the JSON value starting at b[0]. It returns
// the byte count of the value (or of the offending span when the verdict is
// scanInvalid) and a verdict. It only tracks structure (brace depth, string
// and escape state), so a span it reports as complete must still be checked
// with json.Valid before use.
func scanValue(b []byte) (int, int) {
	switch c := b[0]; {
	case c == '{' || c == '[':
		return scanContainer(b)
	case c == '"':
		return scanString(b)
	case c == 't':
		return scanLiteral(b, "true")
	case c == 'f':
		return scanLiteral(b, "false")
	case c == 'n':
		return scanLiteral(b, "null")
	case c == '-' || (c >= '0' && c <= '9'):
		return scanNumber(b)
	default:
		return garbageSpan(b), scanInvalid
	}
}

func scanContainer(b []byte) (int, int) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(b); i++ {
		c := b[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, scanComplete
			}
		}
	}

	return 0, scanNeedMore
}

func scanString(b []byte) (int, int) {
	escaped := false

	for i := 1; i < len(b); i++ {
		switch {
		case escaped:
			escaped = false
		case b[i] == '\\':
			escaped = true
		case b[i] == '"':
			return i + 1, scanComplete
		}
	}

	return 0, scanNeedMore
}

func scanLiteral(b []byte, want string) (int, int) {
	for i := 0; i < len(want); i++ {
		if i == len(b) {
			return 0, scanNeedMore
		}

		if b[i] != want[i] {
			if isSpace(b[i]) || isValueStart(b[i]) {
				return i, scanInvalid
			}

			// Fold the rest of the garbage run into one offending span.
			return i + garbageSpan(b[i:]), scanInvalid
		}
	}

	return len(want), scanComplete
}

func scanNumber(b []byte) (int, int) {
	i := 1
	for i < len(b) && isNumberByte(b[i]) {
		i++
	}

	if i == len(b) {
		// The number may continue in the next chunk.
		return 0, scanNeedMore
	}

	return i, scanComplete
}

// garbageSpan measures a run of bytes that cannot start a JSON value, so the
// whole run is skipped and reported as one framing error.
func garbageSpan(b []byte) int {
	i := 1
	for i < len(b) && !isSpace(b[i]) && !isValueStart(b[i]) {
		i++
	}

	return i
}

func isValueStart(c byte) bool {
	switch c {
	case '{', '[', '"', 't', 'f', 'n', '-':
		return true
	}

	return c >= '0' && c <= '9'
}

// isNumberByte reports whether c can appear inside a JSON number after its
// first byte. Over-accepting (e.g. "1-2") is fine: json.Valid rejects the
// span afterwards.
func isNumberByte(c byte) bool {
	switch c {
	case '.', '+', '-', 'e', 'E':
		return true
	}

	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
