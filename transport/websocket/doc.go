// Package websocket streams gateway call events to websocket subscribers.
//
// The Hub is a gateway.Observer. Every finished gateway call (success,
// loop block, HTTP or network failure) is queued without blocking the caller
// and fanned out by the hub goroutine as a JSON frame:
//
//	{"event":"gateway_call","call":{"id":"...","kind":"tool","method":"GET",
//	 "path":"/game/room-terrain","endpoint":"/game/room-terrain?room=E1N8",
//	 "outcome":"blocked","repetitions":3,...}}
//
// Subscribers pick a path filter when they connect (?path=/game/room-objects).
// An empty filter receives every call.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//	gw := gateway.New(exec, tracker, gateway.WithObserver(hub))
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("path"))
//	})
//
// Concurrency:
//
// The subscriber map is owned by the Run goroutine; registration, removal,
// broadcasts and counts all go through channels. Slow subscribers whose send
// buffer is full are disconnected.
package websocket
