package bridge

import (
	"context"
	"fmt"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerAnalyticsTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_query_raw",
		Description: "Run an arbitrary OData query against any monitor entity set.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity set name, e.g. Machines, Sessions, DesktopGroups",
				},
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
				"select": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Properties to project with $select",
				},
				"orderby": map[string]interface{}{
					"type":        "string",
					"description": "OData $orderby expression",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of records to return",
				},
				"expand": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Navigation properties to expand",
				},
			},
			"required": []string{"entity"},
		},
	}, b.handleQueryRaw)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_delivery_groups",
		Description: "List delivery groups.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
			},
		},
	}, b.handleDeliveryGroups)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_hypervisors",
		Description: "List hypervisor connections known to the site.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
			},
		},
	}, b.handleHypervisors)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_load_index",
		Description: "Get load index samples, newest first. Optionally scoped to one machine.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"machine_id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric machine id",
				},
				"machine_name": map[string]interface{}{
					"type":        "string",
					"description": "Machine name, resolved to an id before querying",
				},
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression, combined with the machine filter using 'and'",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of samples to return",
				},
			},
		},
	}, b.handleLoadIndex)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_entity_count",
		Description: "Count records in any entity set without fetching them.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity set name",
				},
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
			},
			"required": []string{"entity"},
		},
	}, b.handleEntityCount)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_aggregate",
		Description: "Run an OData $apply aggregation pipeline against an entity set.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"entity": map[string]interface{}{
					"type":        "string",
					"description": "Entity set name",
				},
				"apply": map[string]interface{}{
					"type":        "string",
					"description": "OData $apply expression, e.g. groupby((FailureType), aggregate($count as Count))",
				},
			},
			"required": []string{"entity", "apply"},
		},
	}, b.handleAggregate)
}

func (b *Bridge) handleQueryRaw(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	entity := stringArg(args, "entity")
	if entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  entity,
		Filter:  stringArg(args, "filter"),
		Select:  stringSliceArg(args, "select"),
		OrderBy: stringArg(args, "orderby"),
		Top:     intArgDefault(args, "top", 0),
		Expand:  stringSliceArg(args, "expand"),
	})
}

func (b *Bridge) handleDeliveryGroups(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "DesktopGroups",
		Filter: stringArg(args, "filter"),
	})
}

func (b *Bridge) handleHypervisors(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "Hypervisors",
		Filter: stringArg(args, "filter"),
	})
}

func (b *Bridge) handleLoadIndex(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	f.Add(stringArg(args, "filter"))
	// An unresolvable machine falls through to an unfiltered query
	id, ok, err := b.resolveMachineID(ctx, args)
	if err != nil {
		return nil, err
	}
	if ok {
		f.Addf("MachineId eq %d", id)
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "LoadIndexes",
		Filter:  f.String(),
		OrderBy: "CreatedDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleEntityCount(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	entity := stringArg(args, "entity")
	if entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	count, err := b.client.Count(ctx, entity, stringArg(args, "filter"))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"entity": entity, "count": count}, nil
}

func (b *Bridge) handleAggregate(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	entity := stringArg(args, "entity")
	if entity == "" {
		return nil, fmt.Errorf("entity is required")
	}
	apply := stringArg(args, "apply")
	if apply == "" {
		return nil, fmt.Errorf("apply is required")
	}
	return b.client.Aggregate(ctx, entity, apply)
}
