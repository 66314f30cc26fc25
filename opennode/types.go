package opennode

import (
	"encoding/json"
	"errors"
)

type createChargeRequest struct {
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Description string      `json:"description"`
	AutoSettle  bool        `json:"auto_settle"`
	OrderID     string      `json:"order_id"`
	CallbackURL string      `json:"callback_url,omitempty"`
}

type chargeEnvelope struct {
	Data chargeData `json:"data"`
}

type chargeData struct {
	ID                string           `json:"id"`
	Status            string           `json:"status"`
	CreatedAt         int64            `json:"created_at"`
	PaidAt            *int64           `json:"paid_at,omitempty"`
	HostedCheckoutURL string           `json:"hosted_checkout_url"`
	LightningInvoice  lightningInvoice `json:"lightning_invoice"`
}

type lightningInvoice struct {
	PayReq    string `json:"payreq"`
	ExpiresAt int64  `json:"expires_at"`
}

func (d chargeData) validateCreated() error {
	if d.ID == "" {
		return errors.New("missing data.id")
	}
	if d.LightningInvoice.PayReq == "" {
		return errors.New("missing data.lightning_invoice.payreq")
	}
	return nil
}
