// Package api provides the HTTP surface of the Screeps World MCP gateway.
//
// Endpoints:
//   - POST /mcp - one JSON-RPC MCP message per request, answered synchronously
//   - GET /api/health - liveness plus credential and loop-detection status
//   - GET /api/signatures - call signatures inside the loop-detection window
//     (most recent first, ?limit=N)
//   - GET /metrics - Prometheus metrics for gateway calls
//   - GET /ws - live feed of gateway calls (?path=/game/room-terrain filters
//     to one API path)
//
// /metrics and /ws are only mounted when the corresponding collaborator is
// passed in Options.
//
// Usage:
//
//	srv := api.NewServer(mcpClient, credentials, api.Options{
//		Hub:     hub,
//		Metrics: metrics,
//		Logger:  logger,
//	})
//	http.ListenAndServe(":8080", srv)
package api
