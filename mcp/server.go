package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	lnsms "github.com/lnsms/go"
	"github.com/lnsms/go/paywall"
)

// Version is reported in the MCP server implementation info.
var Version = "1.0.0"

// ServerOption configures NewServer
type ServerOption func(*serverConfig)

type serverConfig struct {
	logger  *slog.Logger
	version string
}

// WithLogger sets the process-side logger for tool handlers
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVersion overrides the reported server version
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		if version != "" {
			c.version = version
		}
	}
}

// Handlers binds the tool surface to one Service.
type Handlers struct {
	svc    *lnsms.Service
	logger *slog.Logger
}

// NewServer creates an MCP server exposing svc's workflow.
func NewServer(svc *lnsms.Service, opts ...ServerOption) *mcpsdk.Server {
	cfg := serverConfig{logger: slog.Default(), version: Version}
	for _, opt := range opts {
		opt(&cfg)
	}

	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    ServerName,
		Version: cfg.version,
	}, &mcpsdk.ServerOptions{
		Instructions: ServerInstructions,
	})

	h := &Handlers{svc: svc, logger: cfg.logger}
	h.Register(server)
	return server
}

// Register adds the five tools and the instructions resource to server.
func (h *Handlers) Register(server *mcpsdk.Server) {
	server.AddTool(&mcpsdk.Tool{
		Name: ToolCreatePayment,
		Description: "Create a Lightning payment to send an SMS. " +
			"Returns charge_id and payment details. Use get_sms_qr() to get QR code.",
		InputSchema: createPaymentSchema,
	}, h.CreatePayment)

	server.AddTool(&mcpsdk.Tool{
		Name:        ToolGetQR,
		Description: "Generate QR code for the Lightning payment.",
		InputSchema: chargeSchema,
	}, h.GetQR)

	server.AddTool(&mcpsdk.Tool{
		Name: ToolGetQRWithLink,
		Description: "Return QR image plus mobile-friendly deep link and HTML fallback. " +
			"Useful for mobile webviews or clients that can render HTML.",
		InputSchema: chargeSchema,
	}, h.GetQRWithLink)

	server.AddTool(&mcpsdk.Tool{
		Name:        ToolPayAndSend,
		Description: "Check if payment received and send SMS if paid.",
		InputSchema: chargeSchema,
	}, h.PayAndSend)

	server.AddTool(&mcpsdk.Tool{
		Name:        ToolCheckStatus,
		Description: "Check payment and SMS status without attempting to send.",
		InputSchema: chargeSchema,
	}, h.CheckStatus)

	server.AddResource(&mcpsdk.Resource{
		URI:         InstructionsURI,
		Name:        "instructions",
		Description: "Instructions for using the SMS service.",
		MIMEType:    "text/plain",
	}, h.ReadInstructions)
}

// ============================================================================
// Tool Handlers
// ============================================================================

// CreatePayment handles create_sms_payment.
func (h *Handlers) CreatePayment(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	var args CreatePaymentArgs
	if err := decodeArgs(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}

	h.clientLog(ctx, req, "info", fmt.Sprintf("Creating SMS payment for %s", args.PhoneNumber))

	created, err := h.svc.CreateCharge(ctx, lnsms.CreateChargeInput{
		Recipient: args.PhoneNumber,
		Message:   args.Message,
		UserID:    args.UserID,
	})
	if err != nil {
		return h.failure(ctx, req, "", err), nil
	}

	h.clientLog(ctx, req, "info", fmt.Sprintf("Payment created: %s", created.ChargeID))
	return jsonResult(created)
}

// GetQR handles get_sms_qr.
func (h *Handlers) GetQR(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	chargeID, err := chargeIDArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	h.clientLog(ctx, req, "info", fmt.Sprintf("Generating QR for %s", chargeID))

	payment, err := h.svc.Lookup(ctx, chargeID)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	png, err := paywall.QRCodePNG(payment.PaymentRequestString)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.ImageContent{Data: png, MIMEType: "image/png"},
		},
	}, nil
}

// GetQRWithLink handles get_sms_qr_with_link.
func (h *Handlers) GetQRWithLink(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	chargeID, err := chargeIDArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	h.clientLog(ctx, req, "info", fmt.Sprintf("Generating QR + link for %s", chargeID))

	payment, err := h.svc.Lookup(ctx, chargeID)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	png, err := paywall.QRCodePNG(payment.PaymentRequestString)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	deepLink := paywall.DeepLink(payment.PaymentRequestString)
	page, err := paywall.MobileHTML(deepLink, payment.HostedCheckoutURL)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	link := PaymentLink{
		DeepLink:     deepLink,
		MobileHTML:   page,
		Instructions: paywall.MobileInstructions,
	}
	if payment.HostedCheckoutURL != "" {
		hosted := payment.HostedCheckoutURL
		link.HostedCheckoutURL = &hosted
	}

	result, err := jsonResult(link)
	if err != nil {
		return nil, err
	}
	result.Content = append(result.Content, &mcpsdk.ImageContent{Data: png, MIMEType: "image/png"})
	return result, nil
}

// PayAndSend handles pay_and_send_sms.
func (h *Handlers) PayAndSend(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	chargeID, err := chargeIDArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	h.clientLog(ctx, req, "info", fmt.Sprintf("Checking payment for %s", chargeID))

	outcome, err := h.svc.Fulfill(ctx, chargeID)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}

	if outcome.SMSSent && outcome.SMSSID != "" {
		h.clientLog(ctx, req, "info", fmt.Sprintf("SMS sent successfully: %s", outcome.SMSSID))
	}
	return jsonResult(outcome)
}

// CheckStatus handles check_charge_status.
func (h *Handlers) CheckStatus(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	chargeID, err := chargeIDArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	report, err := h.svc.Status(ctx, chargeID)
	if err != nil {
		return h.failure(ctx, req, chargeID, err), nil
	}
	return jsonResult(report)
}

// ReadInstructions serves sms://instructions.
func (h *Handlers) ReadInstructions(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	text, err := h.svc.Instructions(ctx)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{
			{URI: InstructionsURI, MIMEType: "text/plain", Text: text},
		},
	}, nil
}

// failure logs err on both sides and converts it to an error result.
func (h *Handlers) failure(ctx context.Context, req *mcpsdk.CallToolRequest, chargeID string, err error) *mcpsdk.CallToolResult {
	message := errorMessage(chargeID, err)
	h.logger.WarnContext(ctx, "tool call failed", "tool", req.Params.Name, "charge_id", chargeID, "error", err)
	h.clientLog(ctx, req, "error", message)
	return errorResult(message)
}

// errorMessage renders err the way a tool caller should read it.
func errorMessage(chargeID string, err error) string {
	if lnsms.IsNotFound(err) && chargeID != "" {
		return fmt.Sprintf("Charge %s not found", chargeID)
	}
	var upstream *lnsms.UpstreamError
	var delivery *lnsms.DeliveryError
	var cfgErr *lnsms.ConfigurationError
	switch {
	case errors.As(err, &upstream), errors.As(err, &delivery), errors.As(err, &cfgErr):
		return err.Error()
	}
	return fmt.Sprintf("Error: %s", err.Error())
}
