package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// decodeArgs unmarshals the raw tool arguments into dst.
func decodeArgs(req *mcpsdk.CallToolRequest, dst interface{}) error {
	if req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func chargeIDArg(req *mcpsdk.CallToolRequest) (string, error) {
	var args ChargeArgs
	if err := decodeArgs(req, &args); err != nil {
		return "", err
	}
	if args.ChargeID == "" {
		return "", errors.New("charge_id is required")
	}
	return args.ChargeID, nil
}

// jsonResult returns v as both structured content and its JSON text.
func jsonResult(v interface{}) (*mcpsdk.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
		StructuredContent: v,
	}, nil
}

func errorResult(message string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: message},
		},
	}
}

// clientLog forwards a log line to the connected client. Delivery is best effort.
func (h *Handlers) clientLog(ctx context.Context, req *mcpsdk.CallToolRequest, level mcpsdk.LoggingLevel, message string) {
	if req == nil || req.Session == nil {
		return
	}
	_ = req.Session.Log(ctx, &mcpsdk.LoggingMessageParams{
		Level:  level,
		Logger: LoggerName,
		Data:   message,
	})
}
