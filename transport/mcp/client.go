package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/screeps-world-mcp/game/config"
	"github.com/wricardo/screeps-world-mcp/game/gateway"
)

const (
	ServerName    = "screeps-world-mcp"
	ServerVersion = "1.0.0"
)

// Client is the MCP face of the Screeps Web API. Every resource read and tool
// call goes through the gateway, which handles auth, loop detection and the
// result envelope.
type Client struct {
	gateway     *gateway.Gateway
	credentials *config.Manager
	logger      *zap.Logger
	mcpServer   *server.MCPServer
}

// NewClient creates the MCP server with all resources and tools registered.
// A nil logger is replaced with a no-op logger.
func NewClient(gw *gateway.Gateway, credentials *config.Manager, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		gateway:     gw,
		credentials: credentials,
		logger:      logger,
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithResourceCapabilities(false, false),
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(`Screeps World MCP - Web API access for Screeps World

RESOURCES (read-only, JSON):
- screeps://auth/me, screeps://game/time, screeps://game/world-size
- screeps://game/shards/info, screeps://game/market/stats
- screeps://version, screeps://user/world-status

TOOLS:
- Rooms: get_room_terrain, get_room_objects, get_room_overview, get_room_status, calculate_distance
- Market: get_market_orders_index, get_my_market_orders, get_market_orders, get_money_history, get_map_stats
- Misc: get_pvp_info, get_nukes_info, set_auth_token

LOOP DETECTION: identical calls repeated within a short window are blocked with
a LOOP DETECTED error. Reuse the data you already received instead of calling again.`),
	)

	c.registerResources()
	c.registerTools()
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Gateway returns the gateway the handlers call through.
func (c *Client) Gateway() *gateway.Gateway {
	return c.gateway
}

func resourceContents(env gateway.Envelope) []mcp.ResourceContents {
	res := env.Resource
	if res == nil {
		res = gateway.BuildError(gateway.KindResource, "", env.Err()).Resource
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      res.URI,
			MIMEType: res.MIMEType,
			Text:     res.Text(),
		},
	}
}

func toolResult(env gateway.Envelope) *mcp.CallToolResult {
	if env.Tool == nil {
		return mcp.NewToolResultError(env.Message())
	}
	if env.Tool.IsError {
		return mcp.NewToolResultError(env.Tool.Text)
	}
	return mcp.NewToolResultText(env.Tool.Text)
}
