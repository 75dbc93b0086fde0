// Package telemetry builds the logger and Prometheus metrics for the gateway.
//
// Logs always go to stderr because stdout carries the MCP stdio stream. An
// optional file sink rotates through lumberjack.
package telemetry
