// Package jsonrpc implements the JSON-RPC 2.0 envelope and stream framing
// for the dispatch core.
//
// The package provides:
//   - Request/Response/Error envelope types with verbatim id echo
//   - A push-based Framer that demultiplexes an arbitrarily-chunked byte
//     stream into discrete JSON values without loss or corruption
//
// Request ids are carried as json.RawMessage so integer, string and null ids
// survive a round trip unchanged.
package jsonrpc
