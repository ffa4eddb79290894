package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version carried in every envelope.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes used by the dispatch core.
//
// CodeInvalidParams is declared for completeness but no handler currently
// returns it; argument validation is left to individual tool handlers.
const (
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// Request is a single JSON-RPC 2.0 request.
//
// ID is kept as raw JSON so the original value (integer, string or null)
// can be echoed back verbatim in the response. A nil ID marshals as null,
// which matches the behavior expected by id-less callers.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a single JSON-RPC 2.0 response. Exactly one of Result and
// Error is populated.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the error member of a JSON-RPC 2.0 response. It implements the
// error interface so handlers can return it directly and have the dispatcher
// pass the code through unchanged.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewResponse creates a success response echoing the given request id.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response echoing the given request id.
func NewErrorResponse(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &Error{Code: code, Message: message},
	}
}
