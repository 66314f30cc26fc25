package lnsms

import (
	"context"
)

// ============================================================================
// Provider Interfaces
// ============================================================================

// ChargeGateway creates and queries Lightning charges at a payment provider.
// Implementations perform a single request per call and never retry.
type ChargeGateway interface {
	// CreateCharge fails with *UpstreamError on a non-2xx answer or transport fault
	CreateCharge(ctx context.Context, spec ChargeSpec) (*Charge, error)

	// QueryCharge fails with *UpstreamError identically to CreateCharge
	QueryCharge(ctx context.Context, chargeID string) (*ChargeStatus, error)
}

// MessageSender delivers a text message and returns the provider's receipt id.
// Failures are reported as *DeliveryError.
type MessageSender interface {
	SendMessage(ctx context.Context, from, to, body string) (string, error)
}

// Backends builds provider adapters for the settings resolved on a call.
// Adapters are cheap to build, so implementations may construct one per call.
type Backends interface {
	ChargeGateway(settings Settings) (ChargeGateway, error)
	MessageSender(settings Settings) (MessageSender, error)
}

// SettingsProvider resolves the Settings for the call carried by ctx.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// SettingsFunc adapts a function to SettingsProvider.
type SettingsFunc func(ctx context.Context) (Settings, error)

// Settings implements SettingsProvider.
func (f SettingsFunc) Settings(ctx context.Context) (Settings, error) {
	return f(ctx)
}

// StaticSettings returns a provider that always yields s.
func StaticSettings(s Settings) SettingsProvider {
	return SettingsFunc(func(context.Context) (Settings, error) {
		return s, nil
	})
}

// ============================================================================
// Registry Interface
// ============================================================================

// Store owns every PaymentRequest for the lifetime of the process (or of the
// external backend). Implementations must be safe for concurrent use and must
// hand out copies, never their internal records.
type Store interface {
	// Insert adds a request keyed by ChargeID, failing with ErrDuplicateKey
	// if the key already exists.
	Insert(ctx context.Context, req *PaymentRequest) error

	// Get returns a copy of the request, failing with ErrNotFound if absent.
	Get(ctx context.Context, chargeID string) (*PaymentRequest, error)

	// UpdateOnDelivery marks the request delivered and completed and records
	// the receipt. It fails with ErrAlreadyDelivered on a second commit.
	UpdateOnDelivery(ctx context.Context, chargeID string, delivery Delivery) (*PaymentRequest, error)

	// Lock acquires exclusive access to one charge id until the returned
	// unlock function is called. It blocks until acquired or ctx is done.
	Lock(ctx context.Context, chargeID string) (unlock func(), err error)
}
