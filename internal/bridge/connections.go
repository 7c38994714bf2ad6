package bridge

import (
	"context"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerConnectionTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_connection_list",
		Description: "List connection attempts, newest first. Optionally scoped to one session.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression, combined with the other filters using 'and'",
				},
				"session_key": map[string]interface{}{
					"type":        "string",
					"description": "Only connections belonging to this session",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of connections to return",
				},
			},
		},
	}, b.handleConnectionList)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_connection_failures",
		Description: "List connection failure log entries over a recent window, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"delivery_group": map[string]interface{}{
					"type":        "string",
					"description": "Only failures in this delivery group",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Look back this many days (default 7)",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return",
				},
			},
		},
	}, b.handleConnectionFailures)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_failure_summary",
		Description: "Get aggregated failure counts per delivery group over a recent window.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"delivery_group": map[string]interface{}{
					"type":        "string",
					"description": "Only summaries for this delivery group",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Look back this many days (default 7)",
				},
			},
		},
	}, b.handleFailureSummary)
}

func (b *Bridge) handleConnectionList(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	f.Add(stringArg(args, "filter"))
	if v := stringArg(args, "session_key"); v != "" {
		f.Addf("SessionKey eq '%s'", v)
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "Connections",
		Filter:  f.String(),
		OrderBy: "LogOnStartDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleConnectionFailures(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	if v := stringArg(args, "delivery_group"); v != "" {
		f.Addf("DesktopGroup/Name eq '%s'", v)
	}
	f.Addf("FailureDate ge %s", client.DaysAgoUTC(intArgDefault(args, "days", 7)))
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "ConnectionFailureLogs",
		Filter:  f.String(),
		Expand:  []string{"DesktopGroup"},
		OrderBy: "FailureDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleFailureSummary(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	if v := stringArg(args, "delivery_group"); v != "" {
		f.Addf("DesktopGroup/Name eq '%s'", v)
	}
	f.Addf("SummaryDate ge %s", client.DaysAgoUTC(intArgDefault(args, "days", 7)))
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "FailureLogSummaries",
		Filter:  f.String(),
		Expand:  []string{"DesktopGroup"},
		OrderBy: "SummaryDate desc",
	})
}
