package opennode

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lnsms "github.com/lnsms/go"
)

// ErrInvalidSignature is returned when a callback's hashed_order does not match.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Callback is the charge status notification OpenNode posts to callback_url.
// OpenNode sends it form-encoded; JSON is accepted as well.
type Callback struct {
	ID          string `form:"id" json:"id" binding:"required"`
	Status      string `form:"status" json:"status" binding:"required"`
	OrderID     string `form:"order_id" json:"order_id"`
	HashedOrder string `form:"hashed_order" json:"hashed_order" binding:"required"`
}

// Paid reports whether the notification releases delivery.
func (cb *Callback) Paid() bool {
	return cb.Status == lnsms.PaidStatus
}

// Verify checks hashed_order = hex(HMAC-SHA256(apiKey, id)).
func (cb *Callback) Verify(apiKey string) error {
	if apiKey == "" {
		return lnsms.NewConfigurationError("OPENNODE_API_KEY")
	}
	got, err := hex.DecodeString(cb.HashedOrder)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, Sign(apiKey, cb.ID)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the raw HMAC OpenNode attaches to callbacks for chargeID.
func Sign(apiKey, chargeID string) []byte {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(chargeID))
	return mac.Sum(nil)
}
