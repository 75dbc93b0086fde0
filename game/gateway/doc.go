// Package gateway is the shared request layer behind every MCP resource and tool.
//
// A call flows through four pieces:
//
//   - EncodeQuery turns a parameter map into a canonical endpoint string
//   - Tracker blocks identical calls repeated too often within a window
//   - Executor issues the authenticated HTTP request
//   - BuildSuccess / BuildError wrap the outcome in an Envelope
//
// Gateway composes them:
//
//	Encoded -> Checked -> Blocked  -> error envelope
//	                   -> Allowed  -> Executing -> Success -> success envelope
//	                                            -> Failed  -> error envelope
//
// No error escapes Gateway.Call. Loop detection happens before any network I/O
// and is reported with the literal marker LOOP DETECTED so agents can tell it
// apart from ordinary API errors.
//
// Usage:
//
//	tracker := gateway.NewTracker(60*time.Second, 3)
//	executor := gateway.NewExecutor(manager.BaseURL(), manager, nil)
//	gw := gateway.New(executor, tracker, gateway.WithLogger(logger))
//
//	env := gw.Call(ctx, gateway.Call{
//		Kind:  gateway.KindTool,
//		Ref:   "getting room terrain",
//		Path:  "/game/room-terrain",
//		Query: map[string]any{"room": "E1N8", "shard": "shard0"},
//		Title: "Room Terrain Analysis for E1N8",
//	})
package gateway
