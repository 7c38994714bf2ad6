package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/config"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/transport"
)

func newTestBridge(serverURL string) *Bridge {
	return New(&config.Config{
		Deployment: "onprem",
		VerifySSL:  true,
		DDCHost:    serverURL,
		Domain:     "CORP",
		Username:   "svc-monitor",
		Password:   "hunter2",
	})
}

// callTool invokes one tool through the MCP server and returns the text
// payload of the response.
func callTool(t *testing.T, b *Bridge, name string, args map[string]interface{}) string {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	require.NoError(t, err)

	resp, err := b.Server().HandleMessage(context.Background(), &transport.Message{
		JSONRPC: "2.0",
		ID:      json.RawMessage("1"),
		Method:  "tools/call",
		Params:  params,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Nil(t, resp.Error, "tool call produced protocol error")

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	return result.Content[0].Text
}

var expectedTools = []string{
	"citrix_machine_list",
	"citrix_machine_status",
	"citrix_machine_metrics",
	"citrix_machine_failures",
	"citrix_session_list",
	"citrix_session_details",
	"citrix_session_logon_metrics",
	"citrix_session_count",
	"citrix_connection_list",
	"citrix_connection_failures",
	"citrix_failure_summary",
	"citrix_app_list",
	"citrix_app_instances",
	"citrix_app_errors",
	"citrix_user_list",
	"citrix_user_details",
	"citrix_user_sessions",
	"citrix_query_raw",
	"citrix_delivery_groups",
	"citrix_hypervisors",
	"citrix_load_index",
	"citrix_entity_count",
	"citrix_aggregate",
}

func TestAllToolsRegistered(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")
	tools := b.Server().GetTools()

	require.Len(t, tools, len(expectedTools))
	for i, tool := range tools {
		assert.Equal(t, expectedTools[i], tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %s has no description", tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s has no input schema", tool.Name)
	}
}

func TestTraceInfo(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")
	info := b.GetTraceInfo()

	assert.Equal(t, "onprem", info.Deployment)
	assert.Equal(t, len(expectedTools), info.ToolCount)
	assert.Contains(t, info.BaseURL, "/Citrix/Monitor/OData/v4/Data")
}

func TestMachineListCombinesFilters(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("$filter")
		fmt.Fprint(w, `{"value": [{"Id": 1, "Name": "CORP\\VDA-01"}]}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_machine_list", map[string]interface{}{
		"registration_state": "Registered",
		"power_state":        "On",
	})

	assert.Equal(t, "CurrentRegistrationState eq 'Registered' and CurrentPowerState eq 'On'", gotFilter)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Len(t, records, 1)
}

func TestMachineListMaintenanceFilter(t *testing.T) {
	tests := []struct {
		name       string
		args       map[string]interface{}
		wantFilter string
	}{
		{
			name:       "explicit true",
			args:       map[string]interface{}{"in_maintenance": true},
			wantFilter: "IsInMaintenanceMode eq true",
		},
		{
			name:       "explicit false",
			args:       map[string]interface{}{"in_maintenance": false},
			wantFilter: "IsInMaintenanceMode eq false",
		},
		{
			name:       "absent adds no fragment",
			args:       map[string]interface{}{"power_state": "On"},
			wantFilter: "CurrentPowerState eq 'On'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotFilter string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotFilter = r.URL.Query().Get("$filter")
				fmt.Fprint(w, `{"value": []}`)
			}))
			defer server.Close()

			b := newTestBridge(server.URL)
			callTool(t, b, "citrix_machine_list", tt.args)
			assert.Equal(t, tt.wantFilter, gotFilter)
		})
	}
}

func TestMachineListSchemaDeclaresEnums(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")

	var schema map[string]interface{}
	for _, tool := range b.Server().GetTools() {
		if tool.Name == "citrix_machine_list" {
			schema = tool.InputSchema
		}
	}
	require.NotNil(t, schema)

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)

	reg, ok := props["registration_state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"Registered", "Unregistered", "Unknown"}, reg["enum"])

	power, ok := props["power_state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"On", "Off", "Suspended", "Unknown"}, power["enum"])
}

func TestMachineMetricsWithoutIdentifierReturnsEmpty(t *testing.T) {
	// No machine to resolve means no HTTP request at all
	b := newTestBridge("https://ddc.invalid")
	text := callTool(t, b, "citrix_machine_metrics", map[string]interface{}{})

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Empty(t, records)
}

func TestMachineFailuresWithoutIdentifierReturnsEmpty(t *testing.T) {
	b := newTestBridge("https://ddc.invalid")
	text := callTool(t, b, "citrix_machine_failures", map[string]interface{}{})

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Empty(t, records)
}

func TestLoadIndexUnknownMachineFallsBackUnfiltered(t *testing.T) {
	var loadIndexFilter string
	var loadIndexQueried bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "LoadIndexes") {
			loadIndexQueried = true
			loadIndexFilter = r.URL.Query().Get("$filter")
		}
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	callTool(t, b, "citrix_load_index", map[string]interface{}{
		"machine_name": "CORP\\NO-SUCH-VDA",
	})

	assert.True(t, loadIndexQueried)
	assert.Empty(t, loadIndexFilter)
}

func TestMachineStatusRequiresIdentifier(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")
	text := callTool(t, b, "citrix_machine_status", map[string]interface{}{})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, "either machine_id or name is required", payload["error"])
}

func TestMachineMetricsUnknownNameReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_machine_metrics", map[string]interface{}{
		"machine_name": "CORP\\GHOST-01",
	})

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Empty(t, records)
}

func TestSessionCountActiveOnlyParenthesizesFilter(t *testing.T) {
	var gotFilter, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("$filter")
		gotPath = r.URL.Path
		fmt.Fprint(w, "7")
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_session_count", map[string]interface{}{
		"filter":      "UserId eq 5",
		"active_only": true,
	})

	assert.Equal(t, "(UserId eq 5) and EndDate eq null", gotFilter)
	assert.True(t, strings.HasSuffix(gotPath, "/Sessions/$count"), "path = %s", gotPath)

	var payload map[string]int
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, 7, payload["count"])
}

func TestSessionCountActiveOnlyAlone(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("$filter")
		fmt.Fprint(w, "3")
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	callTool(t, b, "citrix_session_count", map[string]interface{}{
		"active_only": true,
	})

	assert.Equal(t, "EndDate eq null", gotFilter)
}

func TestUserSessionsResolvesUsername(t *testing.T) {
	var sessionFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/Users"):
			assert.Equal(t, "UserName eq 'jdoe'", r.URL.Query().Get("$filter"))
			fmt.Fprint(w, `{"value": [{"Id": 7, "UserName": "jdoe"}]}`)
		case strings.HasSuffix(r.URL.Path, "/Sessions"):
			sessionFilter = r.URL.Query().Get("$filter")
			fmt.Fprint(w, `{"value": [{"SessionKey": "abc"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_user_sessions", map[string]interface{}{
		"username": "jdoe",
	})

	assert.Equal(t, "UserId eq 7", sessionFilter)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	assert.Len(t, records, 1)
}

func TestSessionDetailsQuotesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/Sessions('abc-123')"), "path = %s", r.URL.Path)
		assert.Equal(t, "User,Machine", r.URL.Query().Get("$expand"))
		fmt.Fprint(w, `{"SessionKey": "abc-123"}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_session_details", map[string]interface{}{
		"session_key": "abc-123",
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &record))
	assert.Equal(t, "abc-123", record["SessionKey"])
}

func TestQueryRawPassesOptionsThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "CurrentLoadIndex gt 5000", q.Get("$filter"))
		assert.Equal(t, "Name,CurrentLoadIndex", q.Get("$select"))
		assert.Equal(t, "CurrentLoadIndex desc", q.Get("$orderby"))
		assert.Equal(t, "10", q.Get("$top"))
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	callTool(t, b, "citrix_query_raw", map[string]interface{}{
		"entity":  "Machines",
		"filter":  "CurrentLoadIndex gt 5000",
		"select":  []interface{}{"Name", "CurrentLoadIndex"},
		"orderby": "CurrentLoadIndex desc",
		"top":     float64(10),
	})
}

func TestQueryRawRequiresEntity(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")
	text := callTool(t, b, "citrix_query_raw", map[string]interface{}{})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, "entity is required", payload["error"])
}

func TestConnectionFailuresAppliesWindow(t *testing.T) {
	var gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("$filter")
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	callTool(t, b, "citrix_connection_failures", map[string]interface{}{
		"delivery_group": "Finance",
	})

	assert.True(t, strings.HasPrefix(gotFilter, "DesktopGroup/Name eq 'Finance' and FailureDate ge "), "filter = %s", gotFilter)
}

func TestEntityCountEchoesEntity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "128")
	}))
	defer server.Close()

	b := newTestBridge(server.URL)
	text := callTool(t, b, "citrix_entity_count", map[string]interface{}{
		"entity": "Machines",
	})

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, "Machines", payload["entity"])
	assert.Equal(t, float64(128), payload["count"])
}

func TestAggregateRequiresApply(t *testing.T) {
	b := newTestBridge("https://ddc.example.com")
	text := callTool(t, b, "citrix_aggregate", map[string]interface{}{
		"entity": "MachineFailureLogs",
	})

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Equal(t, "apply is required", payload["error"])
}
