package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/wricardo/screeps-world-mcp/game/config"
	"github.com/wricardo/screeps-world-mcp/game/gateway"
	"github.com/wricardo/screeps-world-mcp/game/rooms"
)

var (
	roomProperty = map[string]interface{}{
		"type":        "string",
		"description": "Room name (e.g., E1N8)",
	}
	shardProperty = map[string]interface{}{
		"type":        "string",
		"description": "Shard name (default: shard0)",
	}
	noArguments = mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
)

// overviewIntervals are the only intervals the room overview endpoint accepts:
// 8=1hr, 180=24hr, 1440=7days.
var overviewIntervals = []string{"8", "180", "1440"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Rooms
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room_terrain",
		Description: "Get terrain information for a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room":  roomProperty,
				"shard": shardProperty,
				"encoded": map[string]interface{}{
					"type":        "boolean",
					"description": "Return encoded terrain data",
				},
			},
			Required: []string{"room"},
		},
	}, c.handleGetRoomTerrain)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room_objects",
		Description: "Get all objects in a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room":  roomProperty,
				"shard": shardProperty,
			},
			Required: []string{"room"},
		},
	}, c.handleGetRoomObjects)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room_overview",
		Description: "Get room overview and statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room":  roomProperty,
				"shard": shardProperty,
				"interval": map[string]interface{}{
					"type":        "string",
					"enum":        overviewIntervals,
					"description": "Interval: 8=1hr, 180=24hr, 1440=7days",
				},
			},
			Required: []string{"room"},
		},
	}, c.handleGetRoomOverview)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room_status",
		Description: "Get status information for a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room":  roomProperty,
				"shard": shardProperty,
			},
			Required: []string{"room"},
		},
	}, c.handleGetRoomStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "calculate_distance",
		Description: "Calculate the distance between two rooms without calling the API",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"from": map[string]interface{}{
					"type":        "string",
					"description": "Source room name (e.g., E1N8)",
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": "Destination room name (e.g., E2N8)",
				},
			},
			Required: []string{"from", "to"},
		},
	}, c.handleCalculateDistance)

	// Market
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_market_orders_index",
		Description: "Get the market orders index with all traded resources",
		InputSchema: noArguments,
	}, c.handleGetMarketOrdersIndex)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_my_market_orders",
		Description: "Get your own active market orders",
		InputSchema: noArguments,
	}, c.handleGetMyMarketOrders)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_market_orders",
		Description: "Get market orders for a specific resource type",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"resourceType": map[string]interface{}{
					"type":        "string",
					"description": "Resource type (e.g., Z, H, O)",
				},
			},
			Required: []string{"resourceType"},
		},
	}, c.handleGetMarketOrders)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_money_history",
		Description: "Get your credits transaction history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default: 0)",
				},
			},
		},
	}, c.handleGetMoneyHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_map_stats",
		Description: "Get map statistics for a set of rooms",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"rooms": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": `Array of room names (e.g., ["W50N50", "E1N8"])`,
				},
				"statName": map[string]interface{}{
					"type":        "string",
					"description": "Statistic name (e.g., owner0, creepsLost, energyHarvested)",
				},
				"shard": shardProperty,
			},
			Required: []string{"rooms", "statName"},
		},
	}, c.handleGetMapStats)

	// Misc
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_pvp_info",
		Description: "Get PvP activity information",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"interval": map[string]interface{}{
					"type":        "number",
					"description": "Interval parameter",
				},
				"start": map[string]interface{}{
					"type":        "number",
					"description": "Start parameter",
				},
			},
		},
	}, c.handleGetPvpInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_nukes_info",
		Description: "Get information about active nukes",
		InputSchema: noArguments,
	}, c.handleGetNukesInfo)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_auth_token",
		Description: "Replace the API token used for subsequent requests",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": map[string]interface{}{
					"type":        "string",
					"description": "Screeps API token",
				},
				"username": map[string]interface{}{
					"type":        "string",
					"description": "Username sent as X-Username (optional)",
				},
			},
			Required: []string{"token"},
		},
	}, c.handleSetAuthToken)
}

// Tool handlers

func (c *Client) callTool(ctx context.Context, call gateway.Call) *mcp.CallToolResult {
	call.Kind = gateway.KindTool
	return toolResult(c.gateway.Call(ctx, call))
}

func invalidTool(ref string, err error) *mcp.CallToolResult {
	return toolResult(gateway.BuildError(gateway.KindTool, ref, err))
}

// roomQuery reads the room and shard arguments shared by all room tools.
func roomQuery(args toolArgs) (map[string]any, error) {
	room, err := args.requireRoom("room")
	if err != nil {
		return nil, err
	}
	shard, err := args.optString("shard")
	if err != nil {
		return nil, err
	}

	query := map[string]any{"room": room}
	if shard != "" {
		query["shard"] = shard
	}
	return query, nil
}

func (c *Client) handleGetRoomTerrain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting room terrain"
	args := argsOf(request)

	query, err := roomQuery(args)
	if err != nil {
		return invalidTool(ref, err), nil
	}
	encoded, ok, err := args.optBool("encoded")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	if ok {
		query["encoded"] = encoded
	}

	return c.callTool(ctx, gateway.Call{
		Ref:      ref,
		Path:     "/game/room-terrain",
		Query:    query,
		Title:    fmt.Sprintf("Room Terrain Analysis for %s", query["room"]),
		Guidance: guidanceFor("get_room_terrain"),
	}), nil
}

func (c *Client) handleGetRoomObjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting room objects"

	query, err := roomQuery(argsOf(request))
	if err != nil {
		return invalidTool(ref, err), nil
	}

	return c.callTool(ctx, gateway.Call{
		Ref:      ref,
		Path:     "/game/room-objects",
		Query:    query,
		Title:    fmt.Sprintf("Room Objects Analysis for %s", query["room"]),
		Guidance: guidanceFor("get_room_objects"),
	}), nil
}

func (c *Client) handleGetRoomOverview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting room overview"
	args := argsOf(request)

	query, err := roomQuery(args)
	if err != nil {
		return invalidTool(ref, err), nil
	}
	interval, err := overviewInterval(args)
	if err != nil {
		return invalidTool(ref, err), nil
	}
	if interval != "" {
		query["interval"] = interval
	}

	return c.callTool(ctx, gateway.Call{
		Ref:      ref,
		Path:     "/game/room-overview",
		Query:    query,
		Title:    fmt.Sprintf("Room Overview for %s", query["room"]),
		Guidance: guidanceFor("get_room_overview"),
	}), nil
}

// overviewInterval accepts the interval as a string or a number.
func overviewInterval(args toolArgs) (string, error) {
	var interval string
	switch v := args["interval"].(type) {
	case nil:
		return "", nil
	case string:
		interval = strings.TrimSpace(v)
	default:
		n, _, err := args.optNumber("interval")
		if err != nil {
			return "", err
		}
		interval = fmt.Sprint(n)
	}
	if interval == "" {
		return "", nil
	}
	for _, allowed := range overviewIntervals {
		if interval == allowed {
			return interval, nil
		}
	}
	return "", &gateway.ValidationError{
		Field:  "interval",
		Reason: fmt.Sprintf("must be one of %s", strings.Join(overviewIntervals, ", ")),
	}
}

func (c *Client) handleGetRoomStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting room status"

	query, err := roomQuery(argsOf(request))
	if err != nil {
		return invalidTool(ref, err), nil
	}

	return c.callTool(ctx, gateway.Call{
		Ref:      ref,
		Path:     "/game/room-status",
		Query:    query,
		Title:    fmt.Sprintf("Room Status for %s", query["room"]),
		Guidance: guidanceFor("get_room_status"),
	}), nil
}

func (c *Client) handleCalculateDistance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "calculating distance"
	args := argsOf(request)

	from, err := args.requireString("from")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	to, err := args.requireString("to")
	if err != nil {
		return invalidTool(ref, err), nil
	}

	distance, err := rooms.Measure(from, to)
	if err != nil {
		return invalidTool(ref, err), nil
	}
	data, err := json.Marshal(distance)
	if err != nil {
		return invalidTool(ref, err), nil
	}

	env := gateway.BuildSuccess(gateway.KindTool, ref, data,
		fmt.Sprintf("calculate_distance(%s, %s)", from, to),
		fmt.Sprintf("Distance Calculation: %s to %s", from, to),
		guidanceFor("calculate_distance"))
	return toolResult(env), nil
}

func (c *Client) handleGetMarketOrdersIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, gateway.Call{
		Ref:      "getting market orders index",
		Path:     "/game/market/orders-index",
		Title:    "Market Orders Index",
		Guidance: guidanceFor("get_market_orders_index"),
	}), nil
}

func (c *Client) handleGetMyMarketOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, gateway.Call{
		Ref:      "getting my market orders",
		Path:     "/game/market/my-orders",
		Title:    "My Market Orders",
		Guidance: guidanceFor("get_my_market_orders"),
	}), nil
}

func (c *Client) handleGetMarketOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting market orders"

	resourceType, err := argsOf(request).requireString("resourceType")
	if err != nil {
		return invalidTool(ref, err), nil
	}

	return c.callTool(ctx, gateway.Call{
		Ref:   ref,
		Path:  "/game/market/orders",
		Query: map[string]any{"resourceType": resourceType},
		Title: fmt.Sprintf("Market Orders for %s", resourceType),
		Guidance: guidanceFor("get_market_orders",
			fmt.Sprintf("Market data for %s retrieved successfully", resourceType)),
	}), nil
}

func (c *Client) handleGetMoneyHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting money history"

	page, ok, err := argsOf(request).optNumber("page")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	if page < 0 {
		return invalidTool(ref, &gateway.ValidationError{Field: "page", Reason: "must not be negative"}), nil
	}

	query := map[string]any{}
	if ok {
		query["page"] = page
	}

	return c.callTool(ctx, gateway.Call{
		Ref:      ref,
		Path:     "/user/money-history",
		Query:    query,
		Title:    fmt.Sprintf("Money Transaction History (Page %v)", page),
		Guidance: guidanceFor("get_money_history"),
	}), nil
}

func (c *Client) handleGetMapStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting map statistics"
	args := argsOf(request)

	roomNames, err := args.requireStrings("rooms")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	for _, room := range roomNames {
		if !rooms.Valid(room) {
			return invalidTool(ref, &gateway.ValidationError{Field: "rooms", Reason: fmt.Sprintf("invalid room name %q", room)}), nil
		}
	}
	statName, err := args.requireString("statName")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	shard, err := args.optString("shard")
	if err != nil {
		return invalidTool(ref, err), nil
	}

	query := map[string]any{"rooms": roomNames, "statName": statName}
	if shard != "" {
		query["shard"] = shard
	}

	return c.callTool(ctx, gateway.Call{
		Ref:    ref,
		Path:   "/game/map-stats",
		Query:  query,
		Method: http.MethodPost,
		Body: map[string]any{
			"rooms":    roomNames,
			"statName": statName,
		},
		Title: fmt.Sprintf("Map Statistics: %s for %s", statName, strings.Join(roomNames, ", ")),
		Guidance: guidanceFor("get_map_stats",
			fmt.Sprintf("Map statistics for %s retrieved for %d rooms", statName, len(roomNames))),
	}), nil
}

func (c *Client) handleGetPvpInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "getting PvP info"
	args := argsOf(request)

	query := map[string]any{}
	for _, key := range []string{"interval", "start"} {
		v, ok, err := args.optNumber(key)
		if err != nil {
			return invalidTool(ref, err), nil
		}
		if ok {
			query[key] = v
		}
	}

	return c.callTool(ctx, gateway.Call{
		Ref:   ref,
		Path:  "/experimental/pvp",
		Query: query,
		Title: "PvP Information",
	}), nil
}

func (c *Client) handleGetNukesInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.callTool(ctx, gateway.Call{
		Ref:   "getting nukes info",
		Path:  "/experimental/nukes",
		Title: "Active Nukes Information",
	}), nil
}

func (c *Client) handleSetAuthToken(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const ref = "setting auth token"
	args := argsOf(request)

	token, err := args.requireString("token")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	username, err := args.optString("username")
	if err != nil {
		return invalidTool(ref, err), nil
	}
	if c.credentials == nil {
		return invalidTool(ref, fmt.Errorf("no credential store configured")), nil
	}

	c.credentials.SetToken(token)
	if username != "" {
		c.credentials.Update(config.Credential{Username: username})
	}
	c.logger.Info("auth token updated", zap.Bool("username_set", username != ""))

	return mcp.NewToolResultText("Authentication token updated successfully. Subsequent requests use the new token."), nil
}
