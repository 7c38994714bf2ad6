package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

func testTransport(input string, handler transport.Handler) (*StdioTransport, *bytes.Buffer) {
	out := &bytes.Buffer{}
	tr := New(handler)
	tr.reader = bufio.NewReader(strings.NewReader(input))
	tr.writer = out
	return tr, out
}

func TestStartEchoesHandlerResponse(t *testing.T) {
	handler := func(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
		return &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Result:  json.RawMessage(`{"ok": true}`),
		}, nil
	}

	tr, out := testTransport(`{"jsonrpc": "2.0", "id": 1, "method": "ping"}`+"\n", handler)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d output lines, want 1", len(lines))
	}

	var resp transport.Message
	if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if string(resp.ID) != "1" {
		t.Errorf("response ID = %s, want 1", resp.ID)
	}
	if string(resp.Result) != `{"ok": true}` {
		t.Errorf("response Result = %s", resp.Result)
	}
}

func TestStartSkipsMalformedLines(t *testing.T) {
	var calls int
	handler := func(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
		calls++
		return &transport.Message{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`{}`)}, nil
	}

	input := "this is not json\n" + `{"jsonrpc": "2.0", "id": 2, "method": "ping"}` + "\n"
	tr, out := testTransport(input, handler)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("handler calls = %d, want 1", calls)
	}
	if n := strings.Count(out.String(), "\n"); n != 1 {
		t.Errorf("output lines = %d, want 1", n)
	}
}

func TestStartHandlerErrorBecomesInternalError(t *testing.T) {
	handler := func(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
		return nil, errors.New("broken")
	}

	tr, out := testTransport(`{"jsonrpc": "2.0", "id": null, "method": "boom"}`+"\n", handler)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var resp transport.Message
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if resp.Error == nil {
		t.Fatal("expected error response")
	}
	if resp.Error.Code != -32603 {
		t.Errorf("error code = %d, want -32603", resp.Error.Code)
	}
	if string(resp.ID) != "0" {
		t.Errorf("null ID normalized to %s, want 0", resp.ID)
	}
}

func TestStartIgnoresNotificationResponses(t *testing.T) {
	handler := func(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
		return nil, nil
	}

	tr, out := testTransport(`{"jsonrpc": "2.0", "method": "notifications/initialized"}`+"\n", handler)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("notification produced output: %s", out.String())
	}
}
