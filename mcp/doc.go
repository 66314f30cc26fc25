// Package mcp exposes the SMS payment workflow as MCP tools.
//
// # Tools
//
//   - create_sms_payment(phone_number, message, user_id?): create a Lightning charge
//   - get_sms_qr(charge_id): PNG QR code of the invoice
//   - get_sms_qr_with_link(charge_id): lightning: deep link and mobile HTML fallback
//   - pay_and_send_sms(charge_id): confirm payment and send the SMS once
//   - check_charge_status(charge_id): payment and delivery status, no side effects
//
// The sms://instructions resource describes the flow with the current price.
//
// # Usage
//
//	import (
//	    lnsms "github.com/lnsms/go"
//	    "github.com/lnsms/go/mcp"
//	    mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
//	)
//
//	svc := lnsms.NewService(store, backends, settings)
//	server := mcp.NewServer(svc)
//
//	// stdio
//	err := server.Run(ctx, &mcpsdk.StdioTransport{})
//
//	// or over HTTP, one server per connection
//	handler := mcpsdk.NewSSEHandler(func(r *http.Request) *mcpsdk.Server { return server }, nil)
//
// # Errors
//
// Workflow errors never fail the JSON-RPC call. They are returned as tool
// results with IsError set and a human-readable text message, and are
// mirrored to the client's log channel.
package mcp
