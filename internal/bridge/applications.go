package bridge

import (
	"context"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerApplicationTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_app_list",
		Description: "List published applications.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of applications to return",
				},
			},
		},
	}, b.handleAppList)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_app_instances",
		Description: "List running or past instances of an application, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"app_id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric application id",
				},
				"app_name": map[string]interface{}{
					"type":        "string",
					"description": "Application name",
				},
				"active_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only instances that have not ended",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of instances to return",
				},
			},
		},
	}, b.handleAppInstances)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_app_errors",
		Description: "List application fault records over a recent window, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"app_name": map[string]interface{}{
					"type":        "string",
					"description": "Application name",
				},
				"days": map[string]interface{}{
					"type":        "integer",
					"description": "Look back this many days (default 7)",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of records to return",
				},
			},
		},
	}, b.handleAppErrors)
}

func (b *Bridge) handleAppList(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "Applications",
		Filter: stringArg(args, "filter"),
		Top:    intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleAppInstances(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	if id, ok := intArg(args, "app_id"); ok {
		f.Addf("ApplicationId eq %d", id)
	} else if name := stringArg(args, "app_name"); name != "" {
		f.Addf("Application/Name eq '%s'", name)
	}
	if boolArg(args, "active_only") {
		f.Add("EndDate eq null")
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "ApplicationInstances",
		Filter:  f.String(),
		Expand:  []string{"Application"},
		OrderBy: "StartDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleAppErrors(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	if name := stringArg(args, "app_name"); name != "" {
		f.Addf("Application/Name eq '%s'", name)
	}
	f.Addf("CreatedDate ge %s", client.DaysAgoUTC(intArgDefault(args, "days", 7)))
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "ApplicationFaults",
		Filter:  f.String(),
		Expand:  []string{"Application"},
		OrderBy: "CreatedDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}
