package lnsms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const createInstructions = "Call get_sms_qr(charge_id) to get QR code, then pay_and_send_sms(charge_id)"

// Service runs the payment-gated fulfillment workflow:
// create charge -> present invoice -> confirm payment -> deliver once.
//
// A Service is safe for concurrent use. Fulfill serializes callers per charge
// id through Store.Lock, so a paid charge is delivered at most once even when
// several callers (tool calls, webhooks) race on it.
type Service struct {
	store    Store
	backends Backends
	settings SettingsProvider
	logger   *slog.Logger
	now      func() time.Time

	// Lifecycle hooks
	afterChargeCreatedHooks []AfterChargeCreatedHook
	beforeDeliveryHooks     []BeforeDeliveryHook
	afterDeliveryHooks      []AfterDeliveryHook
	onDeliveryFailureHooks  []OnDeliveryFailureHook
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for local timestamps
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a fulfillment service over a registry, a backend
// factory and a settings provider.
func NewService(store Store, backends Backends, settings SettingsProvider, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		backends: backends,
		settings: settings,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithSettingsProvider returns a Service that shares the registry, backends
// and hooks of s but resolves settings through p.
func (s *Service) WithSettingsProvider(p SettingsProvider) *Service {
	clone := *s
	clone.settings = p
	return &clone
}

// Settings resolves the settings for the call carried by ctx.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.settings.Settings(ctx)
}

// CreateCharge asks the provider for a charge and registers it as pending.
// Nothing is written to the registry unless the provider call succeeds.
func (s *Service) CreateCharge(ctx context.Context, input CreateChargeInput) (*ChargeCreated, error) {
	if input.Recipient == "" {
		return nil, errors.New("phone_number is required")
	}
	if input.Message == "" {
		return nil, errors.New("message is required")
	}
	userID := input.UserID
	if userID == "" {
		userID = AnonymousUser
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	gateway, err := s.backends.ChargeGateway(settings)
	if err != nil {
		return nil, err
	}

	price := settings.SMSPrice
	spec := ChargeSpec{
		Amount:         price,
		Currency:       DefaultCurrency,
		Description:    fmt.Sprintf("SMS to %s", input.Recipient),
		OrderReference: fmt.Sprintf("sms-%s-%s", userID, uuid.NewString()),
		CallbackURL:    settings.CallbackURL,
	}

	charge, err := gateway.CreateCharge(ctx, spec)
	if err != nil {
		s.logger.ErrorContext(ctx, "charge creation failed", "recipient", input.Recipient, "error", err)
		return nil, err
	}

	req := &PaymentRequest{
		ChargeID:             charge.ID,
		UserID:               userID,
		Recipient:            input.Recipient,
		MessageBody:          input.Message,
		PriceAmount:          price,
		PriceCurrency:        DefaultCurrency,
		OrderReference:       spec.OrderReference,
		PaymentRequestString: charge.PaymentRequestString,
		HostedCheckoutURL:    charge.HostedCheckoutURL,
		ExpiresAt:            charge.ExpiresAt,
		Status:               StatusPending,
		CreatedAt:            s.now(),
	}
	if err := s.store.Insert(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to register charge %s: %w", charge.ID, err)
	}

	s.logger.InfoContext(ctx, "charge created",
		"charge_id", charge.ID,
		"user_id", userID,
		"amount", price.String(),
		"order_id", spec.OrderReference,
	)

	for _, hook := range s.afterChargeCreatedHooks {
		if err := hook(ChargeCreatedContext{Ctx: ctx, Request: *req.Clone(), Timestamp: s.now()}); err != nil {
			s.logger.WarnContext(ctx, "after charge created hook failed", "charge_id", charge.ID, "error", err)
		}
	}

	return &ChargeCreated{
		ChargeID:          charge.ID,
		Amount:            price.InexactFloat64(),
		Currency:          DefaultCurrency,
		PhoneNumber:       input.Recipient,
		LightningInvoice:  charge.PaymentRequestString,
		HostedCheckoutURL: charge.HostedCheckoutURL,
		ExpiresAt:         charge.ExpiresAt,
		Instructions:      createInstructions,
	}, nil
}

// Lookup returns the registered request for chargeID without touching the provider.
func (s *Service) Lookup(ctx context.Context, chargeID string) (*PaymentRequest, error) {
	return s.store.Get(ctx, chargeID)
}

// Fulfill confirms payment and delivers the message exactly once.
//
// An unpaid charge yields a non-terminal report with no side effects. A paid,
// undelivered charge is sent and committed; a failed send leaves it
// undelivered so a later call retries. Calls after a successful delivery
// return the stored receipt without contacting either provider.
func (s *Service) Fulfill(ctx context.Context, chargeID string) (*FulfillResult, error) {
	if _, err := s.store.Get(ctx, chargeID); err != nil {
		return nil, err
	}

	unlock, err := s.store.Lock(ctx, chargeID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock charge %s: %w", chargeID, err)
	}
	defer unlock()

	// Re-read under the lock; a concurrent caller may have delivered already.
	req, err := s.store.Get(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if req.Delivered {
		return completedResult(req, "SMS already sent for this payment"), nil
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	gateway, err := s.backends.ChargeGateway(settings)
	if err != nil {
		return nil, err
	}

	charge, err := gateway.QueryCharge(ctx, chargeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "charge query failed", "charge_id", chargeID, "error", err)
		return nil, err
	}

	if !charge.Paid() {
		return &FulfillResult{
			ChargeID: chargeID,
			Status:   charge.Status,
			Paid:     false,
			SMSSent:  false,
			Message:  fmt.Sprintf("Payment not received yet (status: %s)", charge.Status),
		}, nil
	}

	if settings.TwilioPhoneNumber == "" {
		return nil, NewConfigurationError("TWILIO_PHONE_NUMBER")
	}
	sender, err := s.backends.MessageSender(settings)
	if err != nil {
		return nil, err
	}

	deliveryCtx := DeliveryContext{
		Ctx:       ctx,
		Request:   *req.Clone(),
		Charge:    *charge,
		From:      settings.TwilioPhoneNumber,
		Timestamp: s.now(),
	}

	for _, hook := range s.beforeDeliveryHooks {
		result, err := hook(deliveryCtx)
		if err != nil {
			return nil, fmt.Errorf("before delivery hook failed: %w", err)
		}
		if result != nil && result.Abort {
			s.logger.InfoContext(ctx, "delivery aborted by hook", "charge_id", chargeID, "reason", result.Reason)
			return &FulfillResult{
				ChargeID: chargeID,
				Status:   charge.Status,
				Paid:     true,
				SMSSent:  false,
				PaidAt:   charge.PaidAt,
				Message:  fmt.Sprintf("Delivery aborted: %s", result.Reason),
			}, nil
		}
	}

	start := s.now()
	receiptID, err := sender.SendMessage(ctx, settings.TwilioPhoneNumber, req.Recipient, req.MessageBody)
	if err != nil {
		var deliveryErr *DeliveryError
		if !errors.As(err, &deliveryErr) {
			err = &DeliveryError{To: req.Recipient, Message: err.Error(), Err: err}
		}
		s.logger.ErrorContext(ctx, "sms delivery failed", "charge_id", chargeID, "to", req.Recipient, "error", err)
		for _, hook := range s.onDeliveryFailureHooks {
			if hookErr := hook(DeliveryFailureContext{DeliveryContext: deliveryCtx, Error: err, Duration: s.now().Sub(start)}); hookErr != nil {
				s.logger.WarnContext(ctx, "delivery failure hook failed", "charge_id", chargeID, "error", hookErr)
			}
		}
		return nil, err
	}

	// The message is out; the commit must not be lost to a cancelled caller.
	updated, err := s.store.UpdateOnDelivery(context.WithoutCancel(ctx), chargeID, Delivery{
		ReceiptID:    receiptID,
		SenderNumber: settings.TwilioPhoneNumber,
		PaidAt:       charge.PaidAt,
		DeliveredAt:  s.now(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "sms sent but delivery commit failed",
			"charge_id", chargeID, "sms_sid", receiptID, "error", err)
		return nil, fmt.Errorf("failed to record delivery %s for charge %s: %w", receiptID, chargeID, err)
	}

	s.logger.InfoContext(ctx, "sms sent", "charge_id", chargeID, "sms_sid", receiptID, "to", req.Recipient)

	for _, hook := range s.afterDeliveryHooks {
		if err := hook(DeliveryResultContext{DeliveryContext: deliveryCtx, ReceiptID: receiptID, Duration: s.now().Sub(start)}); err != nil {
			s.logger.WarnContext(ctx, "after delivery hook failed", "charge_id", chargeID, "error", err)
		}
	}

	return completedResult(updated, "Payment received and SMS sent successfully!"), nil
}

// Status combines the registry record with a fresh provider query. It never mutates.
func (s *Service) Status(ctx context.Context, chargeID string) (*StatusReport, error) {
	req, err := s.store.Get(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	gateway, err := s.backends.ChargeGateway(settings)
	if err != nil {
		return nil, err
	}

	charge, err := gateway.QueryCharge(ctx, chargeID)
	if err != nil {
		return nil, err
	}

	return &StatusReport{
		ChargeID:      chargeID,
		PaymentStatus: charge.Status,
		SMSSent:       req.Delivered,
		PhoneNumber:   req.Recipient,
		Amount:        req.PriceAmount.InexactFloat64(),
		CreatedAt:     charge.CreatedAt,
		PaidAt:        charge.PaidAt,
	}, nil
}

func completedResult(req *PaymentRequest, message string) *FulfillResult {
	return &FulfillResult{
		ChargeID: req.ChargeID,
		Status:   string(StatusCompleted),
		Paid:     true,
		SMSSent:  true,
		SMSSID:   req.DeliveryReceiptID,
		To:       req.Recipient,
		From:     req.SenderNumber,
		PaidAt:   req.PaidAt,
		Message:  message,
	}
}
