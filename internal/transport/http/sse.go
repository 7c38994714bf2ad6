package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

// SSETransport implements the Transport interface over HTTP with
// Server-Sent Events for server-to-client pushes and a plain POST endpoint
// for request/response.
type SSETransport struct {
	addr    string
	server  *http.Server
	handler transport.Handler
	clients map[string]*sseClient
	mu      sync.RWMutex
}

type sseClient struct {
	id     string
	events chan []byte
	done   chan struct{}
}

// NewSSE creates a new SSE transport listening on addr
func NewSSE(addr string, handler transport.Handler) *SSETransport {
	return &SSETransport{
		addr:    addr,
		handler: handler,
		clients: make(map[string]*sseClient),
	}
}

// Start initializes the HTTP server and blocks until ctx is done
func (t *SSETransport) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", t.handleSSE)
	mux.HandleFunc("/rpc", t.handleRPC)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	t.server = &http.Server{
		Addr:    t.addr,
		Handler: mux,
	}

	go func() {
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "HTTP server error: %v\n", err)
		}
	}()

	<-ctx.Done()
	return t.Close()
}

// handleSSE keeps an event stream open and forwards queued events
func (t *SSETransport) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &sseClient{
		id:     fmt.Sprintf("client-%d", time.Now().UnixNano()),
		events: make(chan []byte, 10),
		done:   make(chan struct{}),
	}

	t.mu.Lock()
	t.clients[client.id] = client
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.clients, client.id)
		t.mu.Unlock()
	}()

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q}\n\n", client.id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case data := <-client.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleRPC handles a single JSON-RPC request/response exchange
func (t *SSETransport) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var msg transport.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid JSON-RPC message", http.StatusBadRequest)
		return
	}

	response, err := t.handler(r.Context(), &msg)
	if err != nil {
		response = &transport.Message{
			JSONRPC: "2.0",
			ID:      msg.ID,
			Error: &transport.Error{
				Code:    -32603,
				Message: err.Error(),
			},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if response != nil {
		json.NewEncoder(w).Encode(response)
	}
}

// ReadMessage is not used by the HTTP transport; requests arrive via /rpc
func (t *SSETransport) ReadMessage() (*transport.Message, error) {
	return nil, fmt.Errorf("read not supported on HTTP transport")
}

// WriteMessage broadcasts a message to all connected SSE clients
func (t *SSETransport) WriteMessage(msg *transport.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, client := range t.clients {
		select {
		case client.events <- data:
		default:
			// Slow client; drop rather than block the sender
		}
	}
	return nil
}

// Close shuts down the HTTP server and disconnects all clients
func (t *SSETransport) Close() error {
	t.mu.Lock()
	for _, client := range t.clients {
		close(client.done)
	}
	t.clients = make(map[string]*sseClient)
	t.mu.Unlock()

	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
