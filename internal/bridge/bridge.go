package bridge

import (
	"strconv"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/config"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/constants"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

// Bridge wires the Citrix Monitor OData client to an MCP server. Every tool
// is registered once at construction into the server's name-to-handler
// lookup table; dispatch is by exact name match.
type Bridge struct {
	config *config.Config
	client *client.MonitorClient
	server *mcp.Server
}

// TraceInfo summarizes the registered tool surface for --trace output
type TraceInfo struct {
	ServerName string      `json:"server_name"`
	Deployment string      `json:"deployment"`
	BaseURL    string      `json:"base_url"`
	ToolCount  int         `json:"tool_count"`
	Tools      []*mcp.Tool `json:"tools"`
}

// New creates a bridge with all monitor tools registered
func New(cfg *config.Config) *Bridge {
	b := &Bridge{
		config: cfg,
		client: client.NewMonitorClient(cfg, cfg.Verbose),
		server: mcp.NewServer(constants.MCPServerName, constants.MCPServerVersion),
	}

	b.registerMachineTools()
	b.registerSessionTools()
	b.registerConnectionTools()
	b.registerApplicationTools()
	b.registerUserTools()
	b.registerAnalyticsTools()

	return b
}

// Server returns the underlying MCP server
func (b *Bridge) Server() *mcp.Server {
	return b.server
}

// SetTransport sets the transport on the MCP server
func (b *Bridge) SetTransport(t transport.Transport) {
	b.server.SetTransport(t)
}

// Run starts serving MCP requests
func (b *Bridge) Run() error {
	return b.server.Run()
}

// Stop shuts down the server
func (b *Bridge) Stop() {
	b.server.Stop()
}

// GetTraceInfo returns the registered tool surface
func (b *Bridge) GetTraceInfo() *TraceInfo {
	tools := b.server.GetTools()
	return &TraceInfo{
		ServerName: constants.MCPServerName,
		Deployment: b.config.DeploymentType(),
		BaseURL:    b.client.BaseURL(),
		ToolCount:  len(tools),
		Tools:      tools,
	}
}

// Argument decoding helpers. Tool arguments arrive as decoded JSON, so
// numbers are float64 and string lists are []interface{}.

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// boolArgOK distinguishes an explicit false from an absent argument
func boolArgOK(args map[string]interface{}, key string) (bool, bool) {
	v, ok := args[key].(bool)
	return v, ok
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	if v, ok := args[key].(float64); ok {
		return int(v), true
	}
	return 0, false
}

func intArgDefault(args map[string]interface{}, key string, def int) int {
	if v, ok := intArg(args, key); ok {
		return v
	}
	return def
}

// recordID extracts the numeric Id property from an OData record. The
// Monitor Service returns ids as JSON numbers, but $select projections can
// surface them as strings.
func recordID(record map[string]interface{}) (int, bool) {
	switch v := record["Id"].(type) {
	case float64:
		return int(v), true
	case string:
		if id, err := strconv.Atoi(v); err == nil {
			return id, true
		}
	}
	return 0, false
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
