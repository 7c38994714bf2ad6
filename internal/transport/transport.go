// Package transport defines the JSON-RPC message envelope shared by the
// stdio and SSE transports, and the interface the MCP server drives them
// through.
package transport

import (
	"context"
	"encoding/json"
)

// Message is a JSON-RPC 2.0 envelope. Requests carry Method and Params;
// responses carry exactly one of Result or Error. The ID stays raw JSON
// because monitor tool clients send numbers, strings, and null, and the
// response must echo the same shape back.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object. Tool-level failures never use it; they
// travel as ordinary results with an {"error": ...} payload. This type is
// reserved for protocol faults such as unknown methods or malformed params.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Transport moves messages between an MCP client and this server. The stdio
// and SSE implementations live in the subpackages; the server only ever
// talks to this interface.
type Transport interface {
	// Start begins serving and blocks until the context is canceled or the
	// inbound side is exhausted
	Start(ctx context.Context) error

	// ReadMessage returns the next inbound message
	ReadMessage() (*Message, error)

	// WriteMessage delivers a message to the connected client or clients
	WriteMessage(msg *Message) error

	// Close releases the transport's resources
	Close() error
}

// Handler is the callback a transport invokes for each inbound request.
// A nil response with a nil error means the message was a notification and
// nothing is written back.
type Handler func(ctx context.Context, msg *Message) (*Message, error)
