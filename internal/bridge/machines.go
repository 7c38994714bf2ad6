package bridge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerMachineTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_machine_list",
		Description: "List machines in the Citrix site. Supports filtering by registration state, power state, and maintenance mode.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression, combined with the other filters using 'and'",
				},
				"registration_state": map[string]interface{}{
					"type":        "string",
					"description": "Filter by registration state",
					"enum":        []string{"Registered", "Unregistered", "Unknown"},
				},
				"power_state": map[string]interface{}{
					"type":        "string",
					"description": "Filter by power state",
					"enum":        []string{"On", "Off", "Suspended", "Unknown"},
				},
				"in_maintenance": map[string]interface{}{
					"type":        "boolean",
					"description": "Filter by maintenance mode state, matching either value",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of machines to return",
				},
			},
		},
	}, b.handleMachineList)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_machine_status",
		Description: "Get the full record for a single machine by numeric id or by name.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"machine_id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric machine id",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Machine name, e.g. DOMAIN\\\\VDA-01",
				},
			},
		},
	}, b.handleMachineStatus)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_machine_metrics",
		Description: "Get resource utilization samples (CPU, memory, IOPS) for a machine, newest first.",
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
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of samples to return",
				},
			},
		},
	}, b.handleMachineMetrics)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_machine_failures",
		Description: "Get machine failure log entries, newest first.",
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
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return",
				},
			},
		},
	}, b.handleMachineFailures)
}

func (b *Bridge) handleMachineList(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	var f client.Filters
	f.Add(stringArg(args, "filter"))
	if v := stringArg(args, "registration_state"); v != "" {
		f.Addf("CurrentRegistrationState eq '%s'", v)
	}
	if v := stringArg(args, "power_state"); v != "" {
		f.Addf("CurrentPowerState eq '%s'", v)
	}
	if v, ok := boolArgOK(args, "in_maintenance"); ok {
		f.Addf("IsInMaintenanceMode eq %t", v)
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "Machines",
		Filter: f.String(),
		Top:    intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleMachineStatus(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if id, ok := intArg(args, "machine_id"); ok {
		return b.client.QuerySingle(ctx, "Machines", strconv.Itoa(id), nil)
	}
	if name := stringArg(args, "name"); name != "" {
		return b.getMachineByName(ctx, name)
	}
	return nil, fmt.Errorf("either machine_id or name is required")
}

func (b *Bridge) handleMachineMetrics(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok, err := b.resolveMachineID(ctx, args)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []map[string]interface{}{}, nil
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "ResourceUtilization",
		Filter:  fmt.Sprintf("MachineId eq %d", id),
		OrderBy: "CreatedDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleMachineFailures(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok, err := b.resolveMachineID(ctx, args)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []map[string]interface{}{}, nil
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "MachineFailureLogs",
		Filter:  fmt.Sprintf("MachineId eq %d", id),
		OrderBy: "FailureStartDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

// getMachineByName looks up a machine record by exact name. Returns nil when
// no machine matches.
func (b *Bridge) getMachineByName(ctx context.Context, name string) (map[string]interface{}, error) {
	records, err := b.client.Query(ctx, client.QuerySpec{
		Entity: "Machines",
		Filter: fmt.Sprintf("Name eq '%s'", name),
		Top:    1,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// resolveMachineID turns machine_id or machine_name arguments into a numeric
// id. The second return is false when no machine was identified, either
// because neither argument was given or because the name matched nothing.
func (b *Bridge) resolveMachineID(ctx context.Context, args map[string]interface{}) (int, bool, error) {
	if id, ok := intArg(args, "machine_id"); ok {
		return id, true, nil
	}
	name := stringArg(args, "machine_name")
	if name == "" {
		return 0, false, nil
	}
	machine, err := b.getMachineByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if machine == nil {
		return 0, false, nil
	}
	id, ok := recordID(machine)
	return id, ok, nil
}
