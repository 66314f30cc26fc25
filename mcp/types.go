package mcp

// Server identity
const (
	ServerName         = "Bitcoin Lightning SMS Server"
	ServerInstructions = "Simple pay-per-SMS: Create charge, scan QR, pay, send SMS"
	InstructionsURI    = "sms://instructions"
	LoggerName         = "lnsms"
)

// Tool names
const (
	ToolCreatePayment = "create_sms_payment"
	ToolGetQR         = "get_sms_qr"
	ToolGetQRWithLink = "get_sms_qr_with_link"
	ToolPayAndSend    = "pay_and_send_sms"
	ToolCheckStatus   = "check_charge_status"
)

// CreatePaymentArgs are the arguments of create_sms_payment.
type CreatePaymentArgs struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
	UserID      string `json:"user_id,omitempty"`
}

// ChargeArgs are the arguments of every charge-scoped tool.
type ChargeArgs struct {
	ChargeID string `json:"charge_id"`
}

// PaymentLink is the result of get_sms_qr_with_link.
type PaymentLink struct {
	DeepLink          string  `json:"deep_link"`
	HostedCheckoutURL *string `json:"hosted_checkout_url"`
	MobileHTML        string  `json:"mobile_html"`
	Instructions      string  `json:"instructions"`
}

var chargeIDSchema = map[string]interface{}{
	"type":        "string",
	"description": "The charge ID from create_sms_payment",
}

var createPaymentSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"phone_number": map[string]interface{}{
			"type":        "string",
			"description": "Recipient phone (E.164 format, e.g., +1234567890)",
		},
		"message": map[string]interface{}{
			"type":        "string",
			"description": "SMS text to send",
		},
		"user_id": map[string]interface{}{
			"type":        "string",
			"description": "Optional user identifier",
			"default":     "anonymous",
		},
	},
	"required": []string{"phone_number", "message"},
}

var chargeSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"charge_id": chargeIDSchema,
	},
	"required": []string{"charge_id"},
}
