package bridge

import (
	"context"
	"fmt"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerSessionTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_session_list",
		Description: "List sessions with their user and machine expanded, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression, combined with the other filters using 'and'",
				},
				"active_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only sessions that have not ended",
				},
				"user_name": map[string]interface{}{
					"type":        "string",
					"description": "Filter by the session user's UserName",
				},
				"machine_name": map[string]interface{}{
					"type":        "string",
					"description": "Filter by the session machine's Name",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of sessions to return",
				},
			},
		},
	}, b.handleSessionList)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_session_details",
		Description: "Get a single session by its session key, with user and machine expanded.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_key": map[string]interface{}{
					"type":        "string",
					"description": "Session key GUID",
				},
			},
			"required": []string{"session_key"},
		},
	}, b.handleSessionDetails)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_session_logon_metrics",
		Description: "Get logon duration breakdown records for a session.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"session_key": map[string]interface{}{
					"type":        "string",
					"description": "Session key GUID",
				},
			},
			"required": []string{"session_key"},
		},
	}, b.handleSessionLogonMetrics)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_session_count",
		Description: "Count sessions matching a filter without fetching the records.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
				"active_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only sessions that have not ended",
				},
			},
		},
	}, b.handleSessionCount)
}

func (b *Bridge) handleSessionList(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	f.Add(stringArg(args, "filter"))
	if boolArg(args, "active_only") {
		f.Add("EndDate eq null")
	}
	if v := stringArg(args, "user_name"); v != "" {
		f.Addf("User/UserName eq '%s'", v)
	}
	if v := stringArg(args, "machine_name"); v != "" {
		f.Addf("Machine/Name eq '%s'", v)
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "Sessions",
		Filter:  f.String(),
		Expand:  []string{"User", "Machine"},
		OrderBy: "StartDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleSessionDetails(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	key := stringArg(args, "session_key")
	if key == "" {
		return nil, fmt.Errorf("session_key is required")
	}
	return b.client.QuerySingle(ctx, "Sessions", fmt.Sprintf("'%s'", key), []string{"User", "Machine"})
}

func (b *Bridge) handleSessionLogonMetrics(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	key := stringArg(args, "session_key")
	if key == "" {
		return nil, fmt.Errorf("session_key is required")
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "LogOnMetrics",
		Filter: fmt.Sprintf("SessionKey eq '%s'", key),
	})
}

func (b *Bridge) handleSessionCount(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	filter := stringArg(args, "filter")
	if boolArg(args, "active_only") {
		if filter != "" {
			filter = fmt.Sprintf("(%s) and EndDate eq null", filter)
		} else {
			filter = "EndDate eq null"
		}
	}
	count, err := b.client.Count(ctx, "Sessions", filter)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"count": count}, nil
}
