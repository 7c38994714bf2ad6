package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/constants"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

// Tool represents an MCP tool
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler is a function that handles tool execution
type ToolHandler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Request represents an incoming MCP request
type Request struct {
	JSONRPC string                 `json:"jsonrpc"`
	ID      interface{}            `json:"id"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Server represents an MCP server. Tools are resolved by exact name match
// against a lookup table populated once at registration time.
type Server struct {
	name            string
	version         string
	protocolVersion string
	tools           map[string]*Tool
	toolOrder       []string // Maintains registration order for tools/list
	handlers        map[string]ToolHandler
	transport       transport.Transport
	ctx             context.Context
	cancel          context.CancelFunc
	mu              sync.RWMutex
	initialized     bool
}

// NewServer creates a new MCP server
func NewServer(name, version string) *Server {
	// Disable logging to avoid contaminating stdio communication
	log.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		name:            name,
		version:         version,
		protocolVersion: constants.MCPProtocolVersion,
		tools:           make(map[string]*Tool),
		toolOrder:       make([]string, 0),
		handlers:        make(map[string]ToolHandler),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// AddTool registers a new tool with the server
func (s *Server) AddTool(tool *Tool, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[tool.Name]; !exists {
		s.toolOrder = append(s.toolOrder, tool.Name)
	}

	s.tools[tool.Name] = tool
	s.handlers[tool.Name] = handler
}

// GetTools returns all registered tools in registration order
func (s *Server) GetTools() []*Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]*Tool, 0, len(s.tools))
	for _, name := range s.toolOrder {
		if tool, exists := s.tools[name]; exists {
			tools = append(tools, tool)
		}
	}
	return tools
}

// SetTransport sets the transport for the server
func (s *Server) SetTransport(t transport.Transport) {
	s.transport = t
}

// Run starts the MCP server
func (s *Server) Run() error {
	if s.transport == nil {
		return fmt.Errorf("transport not set")
	}
	return s.transport.Start(s.ctx)
}

// Stop stops the MCP server
func (s *Server) Stop() {
	s.cancel()
}

// HandleMessage processes incoming transport messages
func (s *Server) HandleMessage(ctx context.Context, msg *transport.Message) (*transport.Message, error) {
	if msg.JSONRPC != "2.0" {
		return s.createErrorResponse(msg.ID, -32600, "Invalid Request", "JSON-RPC version must be 2.0"), nil
	}

	req := &Request{
		JSONRPC: msg.JSONRPC,
		ID:      msg.ID,
		Method:  msg.Method,
	}

	if len(msg.Params) > 0 {
		var params map[string]interface{}
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.createErrorResponse(msg.ID, -32700, "Parse error", err.Error()), nil
		}
		req.Params = params
	} else {
		req.Params = make(map[string]interface{})
	}

	// Notifications have no response
	if req.Method == "initialized" || req.Method == "notifications/initialized" {
		s.handleInitialized(req)
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return s.createResponse(req.ID, map[string]interface{}{"resources": []interface{}{}})
	case "prompts/list":
		return s.createResponse(req.ID, map[string]interface{}{"prompts": []interface{}{}})
	case "ping":
		return s.createResponse(req.ID, map[string]interface{}{})
	default:
		return s.createErrorResponse(req.ID, -32601, "Method not found", req.Method), nil
	}
}

// normalizeID converts a request ID to raw JSON, mapping null to 0 for
// client compatibility.
func normalizeID(id interface{}) json.RawMessage {
	switch v := id.(type) {
	case json.RawMessage:
		if string(v) == "null" || len(v) == 0 {
			return json.RawMessage("0")
		}
		return v
	case nil:
		return json.RawMessage("0")
	default:
		raw, _ := json.Marshal(id)
		return raw
	}
}

// createErrorResponse creates a protocol-level error response
func (s *Server) createErrorResponse(id interface{}, code int, message, data string) *transport.Message {
	return &transport.Message{
		JSONRPC: "2.0",
		ID:      normalizeID(id),
		Error: &transport.Error{
			Code:    code,
			Message: message,
			Data:    json.RawMessage(fmt.Sprintf("%q", data)),
		},
	}
}

// createResponse creates a success response message
func (s *Server) createResponse(id interface{}, result interface{}) (*transport.Message, error) {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	return &transport.Message{
		JSONRPC: "2.0",
		ID:      normalizeID(id),
		Result:  resultBytes,
	}, nil
}

func (s *Server) handleInitialize(req *Request) (*transport.Message, error) {
	result := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"prompts": map[string]interface{}{
				"listChanged": false,
			},
			"resources": map[string]interface{}{
				"listChanged": false,
				"subscribe":   false,
			},
			"tools": map[string]interface{}{
				"listChanged": false,
			},
		},
		"protocolVersion": s.protocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    s.name,
			"version": s.version,
		},
	}

	return s.createResponse(req.ID, result)
}

func (s *Server) handleInitialized(req *Request) {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

func (s *Server) handleToolsList(req *Request) (*transport.Message, error) {
	return s.createResponse(req.ID, map[string]interface{}{
		"tools": s.GetTools(),
	})
}

// handleToolsCall dispatches a tool call by exact name match. Handler
// failures, including an unrecognized tool name, are converted to a
// well-formed {"error": ...} text payload rather than a protocol fault, so
// the invoking side always receives a result it can read.
func (s *Server) handleToolsCall(ctx context.Context, req *Request) (*transport.Message, error) {
	name, ok := req.Params["name"].(string)
	if !ok {
		return s.createErrorResponse(req.ID, -32602, "Invalid params", "Missing tool name"), nil
	}

	args, ok := req.Params["arguments"].(map[string]interface{})
	if !ok {
		args = make(map[string]interface{})
	}

	s.mu.RLock()
	handler, exists := s.handlers[name]
	s.mu.RUnlock()

	if !exists {
		return s.createToolResponse(req.ID, FormatError(fmt.Errorf("Unknown tool: %s", name)))
	}

	result, err := handler(ctx, args)
	if err != nil {
		return s.createToolResponse(req.ID, FormatError(err))
	}

	return s.createToolResponse(req.ID, FormatResult(result))
}

// createToolResponse wraps a text payload in the tools/call result shape
func (s *Server) createToolResponse(id interface{}, text string) (*transport.Message, error) {
	return s.createResponse(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": text,
			},
		},
	})
}

// FormatResult serializes a tool result as an indented JSON text payload
func FormatResult(result interface{}) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// FormatError serializes a failure as an {"error": message} JSON payload
func FormatError(err error) string {
	data, merr := json.MarshalIndent(map[string]string{"error": err.Error()}, "", "  ")
	if merr != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

// SendNotification sends a notification through the transport
func (s *Server) SendNotification(method string, params interface{}) error {
	if s.transport == nil {
		return fmt.Errorf("transport not set")
	}

	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return err
	}

	return s.transport.WriteMessage(&transport.Message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsBytes,
	})
}
