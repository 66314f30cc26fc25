package lnsms

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnonymousUser is the user id recorded when a caller does not supply one.
const AnonymousUser = "anonymous"

// PaidStatus is the provider charge status that releases delivery.
const PaidStatus = "paid"

// DefaultCurrency is the denomination every charge is priced in.
const DefaultCurrency = "USD"

// RequestStatus is the local lifecycle state of a PaymentRequest.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
)

// PaymentRequest is the registry record for one charge.
//
// Delivered implies DeliveryReceiptID is set and Status is StatusCompleted.
type PaymentRequest struct {
	ChargeID             string          `json:"charge_id"`
	UserID               string          `json:"user_id"`
	Recipient            string          `json:"recipient"`
	MessageBody          string          `json:"message_body"`
	PriceAmount          decimal.Decimal `json:"price_amount"`
	PriceCurrency        string          `json:"price_currency"`
	OrderReference       string          `json:"order_reference"`
	PaymentRequestString string          `json:"payment_request"`
	HostedCheckoutURL    string          `json:"hosted_checkout_url,omitempty"`
	ExpiresAt            int64           `json:"expires_at,omitempty"`
	Status               RequestStatus   `json:"status"`
	Delivered            bool            `json:"delivered"`
	DeliveryReceiptID    string          `json:"delivery_receipt_id,omitempty"`
	SenderNumber         string          `json:"sender_number,omitempty"`
	PaidAt               *int64          `json:"paid_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	DeliveredAt          *time.Time      `json:"delivered_at,omitempty"`
}

// Clone returns a deep copy so callers never share a record with the store.
func (r *PaymentRequest) Clone() *PaymentRequest {
	if r == nil {
		return nil
	}
	out := *r
	if r.PaidAt != nil {
		paidAt := *r.PaidAt
		out.PaidAt = &paidAt
	}
	if r.DeliveredAt != nil {
		deliveredAt := *r.DeliveredAt
		out.DeliveredAt = &deliveredAt
	}
	return &out
}

// Delivery is the data committed by Store.UpdateOnDelivery.
type Delivery struct {
	ReceiptID    string
	SenderNumber string
	PaidAt       *int64
	DeliveredAt  time.Time
}

// ChargeSpec is what the workflow asks the charge provider to create.
type ChargeSpec struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	OrderReference string
	CallbackURL    string
}

// Charge is the provider's answer to a create call.
type Charge struct {
	ID                   string
	PaymentRequestString string
	HostedCheckoutURL    string
	ExpiresAt            int64
}

// ChargeStatus is the provider's view of an existing charge.
type ChargeStatus struct {
	ID        string
	Status    string
	CreatedAt int64
	PaidAt    *int64
}

// Paid reports whether the provider considers the charge settled.
func (s ChargeStatus) Paid() bool {
	return s.Status == PaidStatus
}

// Settings are the credentials and pricing used for one call.
type Settings struct {
	OpenNodeAPIKey    string
	OpenNodeBaseURL   string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	SMSPrice          decimal.Decimal
	CallbackURL       string
}

// ============================================================================
// Workflow inputs and outputs
// ============================================================================

// CreateChargeInput carries the caller-supplied fields of create_sms_payment.
type CreateChargeInput struct {
	Recipient string
	Message   string
	UserID    string
}

// ChargeCreated is returned by Service.CreateCharge.
type ChargeCreated struct {
	ChargeID          string  `json:"charge_id"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	PhoneNumber       string  `json:"phone_number"`
	LightningInvoice  string  `json:"lightning_invoice"`
	HostedCheckoutURL string  `json:"hosted_checkout_url"`
	ExpiresAt         int64   `json:"expires_at"`
	Instructions      string  `json:"instructions"`
}

// FulfillResult is returned by Service.Fulfill.
type FulfillResult struct {
	ChargeID string `json:"charge_id"`
	Status   string `json:"status"`
	Paid     bool   `json:"paid"`
	SMSSent  bool   `json:"sms_sent"`
	SMSSID   string `json:"sms_sid,omitempty"`
	To       string `json:"to,omitempty"`
	From     string `json:"from,omitempty"`
	PaidAt   *int64 `json:"paid_at,omitempty"`
	Message  string `json:"message"`
}

// StatusReport is returned by Service.Status.
type StatusReport struct {
	ChargeID      string  `json:"charge_id"`
	PaymentStatus string  `json:"payment_status"`
	SMSSent       bool    `json:"sms_sent"`
	PhoneNumber   string  `json:"phone_number"`
	Amount        float64 `json:"amount"`
	CreatedAt     int64   `json:"created_at"`
	PaidAt        *int64  `json:"paid_at"`
}
