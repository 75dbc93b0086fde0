// Package mcp exposes the Screeps World Web API over the Model Context Protocol.
//
// Read-only endpoints are registered as MCP resources and parameterized
// endpoints as MCP tools. Handlers never talk HTTP themselves: they validate
// arguments, describe the call (path, query, method, body, title, guidance) and
// hand it to the gateway, which authenticates, blocks repeated calls and wraps
// the response in an agent-readable envelope.
//
// Resources:
//   - screeps://auth/me
//   - screeps://game/time
//   - screeps://game/world-size
//   - screeps://game/shards/info
//   - screeps://game/market/stats
//   - screeps://version
//   - screeps://user/world-status
//
// Tools:
//   - get_room_terrain, get_room_objects, get_room_overview, get_room_status
//   - calculate_distance (computed locally)
//   - get_market_orders_index, get_my_market_orders, get_market_orders
//   - get_money_history, get_map_stats
//   - get_pvp_info, get_nukes_info
//   - set_auth_token (updates the credential used by later calls)
//
// Invalid arguments are reported as tool errors without any network call.
//
// Usage:
//
//	client := mcp.NewClient(gw, credentials, logger)
//	server.ServeStdio(client.GetMCPServer())
package mcp
