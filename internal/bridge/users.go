package bridge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/citrixmcp/citrix-monitor-mcp/internal/client"
	"github.com/citrixmcp/citrix-monitor-mcp/internal/mcp"
)

func (b *Bridge) registerUserTools() {
	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_user_list",
		Description: "List users known to the monitor database.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"filter": map[string]interface{}{
					"type":        "string",
					"description": "Raw OData $filter expression",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of users to return",
				},
			},
		},
	}, b.handleUserList)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_user_details",
		Description: "Get a single user by numeric id or by username.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric user id",
				},
				"username": map[string]interface{}{
					"type":        "string",
					"description": "UserName value, e.g. jdoe",
				},
			},
		},
	}, b.handleUserDetails)

	b.server.AddTool(&mcp.Tool{
		Name:        "citrix_user_sessions",
		Description: "List sessions for one user with their machine expanded, newest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "integer",
					"description": "Numeric user id",
				},
				"username": map[string]interface{}{
					"type":        "string",
					"description": "UserName, resolved to an id before querying",
				},
				"top": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of sessions to return",
				},
			},
		},
	}, b.handleUserSessions)
}

func (b *Bridge) handleUserList(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return b.client.Query(ctx, client.QuerySpec{
		Entity: "Users",
		Filter: stringArg(args, "filter"),
		Top:    intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) handleUserDetails(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if id, ok := intArg(args, "user_id"); ok {
		return b.client.QuerySingle(ctx, "Users", strconv.Itoa(id), nil)
	}
	if name := stringArg(args, "username"); name != "" {
		return b.getUserByName(ctx, name)
	}
	return nil, fmt.Errorf("either user_id or username is required")
}

func (b *Bridge) handleUserSessions(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	id, ok, err := b.resolveUserID(ctx, args)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []map[string]interface{}{}, nil
	}
	return b.client.Query(ctx, client.QuerySpec{
		Entity:  "Sessions",
		Filter:  fmt.Sprintf("UserId eq %d", id),
		Expand:  []string{"Machine"},
		OrderBy: "StartDate desc",
		Top:     intArgDefault(args, "top", 0),
	})
}

func (b *Bridge) getUserByName(ctx context.Context, name string) (map[string]interface{}, error) {
	records, err := b.client.Query(ctx, client.QuerySpec{
		Entity: "Users",
		Filter: fmt.Sprintf("UserName eq '%s'", name),
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

func (b *Bridge) resolveUserID(ctx context.Context, args map[string]interface{}) (int, bool, error) {
	if id, ok := intArg(args, "user_id"); ok {
		return id, true, nil
	}
	name := stringArg(args, "username")
	if name == "" {
		return 0, false, fmt.Errorf("either user_id or username is required")
	}
	user, err := b.getUserByName(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if user == nil {
		return 0, false, nil
	}
	id, ok := recordID(user)
	return id, ok, nil
}
