package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

// StdioTransport implements the Transport interface for stdio communication.
// Only protocol messages go to stdout; all diagnostics belong on stderr.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  io.Writer
	handler transport.Handler
}

// New creates a new stdio transport
func New(handler transport.Handler) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReader(os.Stdin),
		writer:  os.Stdout,
		handler: handler,
	}
}

// Start begins processing messages from stdin
func (t *StdioTransport) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := t.ReadMessage()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				// Skip malformed lines rather than dying on them
				continue
			}

			if msg.Method == "" || t.handler == nil {
				continue
			}

			response, err := t.handler(ctx, msg)
			if err != nil {
				msgID := msg.ID
				if msgID == nil || string(msgID) == "null" {
					msgID = json.RawMessage("0")
				}
				errorResponse := &transport.Message{
					JSONRPC: "2.0",
					ID:      msgID,
					Error: &transport.Error{
						Code:    -32603,
						Message: err.Error(),
					},
				}
				t.WriteMessage(errorResponse)
			} else if response != nil {
				t.WriteMessage(response)
			}
		}
	}
}

// ReadMessage reads a line-delimited JSON message from stdin
func (t *StdioTransport) ReadMessage() (*transport.Message, error) {
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}

	var msg transport.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// WriteMessage writes a JSON message to stdout
func (t *StdioTransport) WriteMessage(msg *transport.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := t.writer.Write(data); err != nil {
		return err
	}
	_, err = t.writer.Write([]byte("\n"))
	return err
}

// Close closes the transport (no-op for stdio)
func (t *StdioTransport) Close() error {
	return nil
}
