// Package http serves the SMS payment MCP server over HTTP with gin.
//
// Routes:
//   - GET|POST /              liveness
//   - GET /sse, POST /messages MCP over server-sent events
//   - GET|POST|DELETE /mcp    MCP streamable HTTP
//   - POST /webhooks/opennode charge callbacks
//
// With session configuration enabled, every MCP connection gets its own
// server whose settings are read from the connection URL; the payment
// registry stays shared.
package http
