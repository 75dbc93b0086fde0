package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/screeps-world-mcp/game/gateway"
)

type resourceDef struct {
	name        string
	uri         string
	description string
	endpoint    string
	title       string
	annotate    func(json.RawMessage) []string
}

var resourceDefs = []resourceDef{
	{
		name:        "auth_me",
		uri:         "screeps://auth/me",
		description: "Get current authenticated user information",
		endpoint:    "/auth/me",
		title:       "Current User Authentication Info",
	},
	{
		name:        "game_time",
		uri:         "screeps://game/time",
		description: "Current game time and tick information",
		endpoint:    "/game/time",
		title:       "Current Game Time and Tick Information",
	},
	{
		name:        "world_size",
		uri:         "screeps://game/world-size",
		description: "Get world dimensions and size information",
		endpoint:    "/game/world-size",
		title:       "World Dimensions and Size Information",
	},
	{
		name:        "shards_info",
		uri:         "screeps://game/shards/info",
		description: "Get information about available shards",
		endpoint:    "/game/shards/info",
		title:       "Available Shards Information",
		annotate:    shardCount,
	},
	{
		name:        "market_stats",
		uri:         "screeps://game/market/stats",
		description: "Get market statistics and trading information",
		endpoint:    "/game/market/stats",
		title:       "Global Market Statistics and Trading Information",
	},
	{
		name:        "version",
		uri:         "screeps://version",
		description: "Get API version and server information including features, shards, and user count",
		endpoint:    "/version",
		title:       "API Version and Server Information",
	},
	{
		name:        "user_world_status",
		uri:         "screeps://user/world-status",
		description: "Get current user world status and statistics",
		endpoint:    "/user/world-status",
		title:       "User World Status and Statistics",
	},
}

func (c *Client) registerResources() {
	for _, def := range resourceDefs {
		resource := mcp.NewResource(def.uri, def.name,
			mcp.WithResourceDescription(def.description),
			mcp.WithMIMEType(gateway.MIMEJSON),
		)
		c.mcpServer.AddResource(resource, c.resourceHandler(def))
	}
}

func (c *Client) resourceHandler(def resourceDef) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		if uri == "" {
			uri = def.uri
		}

		env := c.gateway.Call(ctx, gateway.Call{
			Kind:     gateway.KindResource,
			Ref:      uri,
			Path:     def.endpoint,
			Title:    def.title,
			Guidance: guidanceFor(def.name),
			Annotate: def.annotate,
		})
		return resourceContents(env), nil
	}
}

// shardCount reports how many shards the server lists.
func shardCount(data json.RawMessage) []string {
	var payload struct {
		Shards []json.RawMessage `json:"shards"`
	}
	count := "unknown"
	if err := json.Unmarshal(data, &payload); err == nil && len(payload.Shards) > 0 {
		count = fmt.Sprint(len(payload.Shards))
	}
	return []string{fmt.Sprintf("Available shards: %s shards detected", count)}
}
