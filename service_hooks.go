package lnsms

import (
	"context"
	"time"
)

// ============================================================================
// Fulfillment Hook Context Types
// ============================================================================

// ChargeCreatedContext contains information passed to charge created hooks
type ChargeCreatedContext struct {
	Ctx       context.Context
	Request   PaymentRequest
	Timestamp time.Time
}

// DeliveryContext contains information passed to delivery hooks
type DeliveryContext struct {
	Ctx       context.Context
	Request   PaymentRequest
	Charge    ChargeStatus
	From      string
	Timestamp time.Time
}

// DeliveryResultContext contains the delivery result and context
type DeliveryResultContext struct {
	DeliveryContext
	ReceiptID string
	Duration  time.Duration
}

// DeliveryFailureContext contains the delivery failure and context
type DeliveryFailureContext struct {
	DeliveryContext
	Error    error
	Duration time.Duration
}

// BeforeHookResult represents the result of a "before" hook
// If Abort is true, the operation will be aborted with the given Reason
type BeforeHookResult struct {
	Abort  bool
	Reason string
}

// ============================================================================
// Fulfillment Hook Function Types
// ============================================================================

// AfterChargeCreatedHook is called after a charge is registered
// Any error returned will be logged but will not affect the result
type AfterChargeCreatedHook func(ChargeCreatedContext) error

// BeforeDeliveryHook is called after payment is confirmed and before the send
// If it returns a result with Abort=true, the message is not sent and the
// request stays undelivered
type BeforeDeliveryHook func(DeliveryContext) (*BeforeHookResult, error)

// AfterDeliveryHook is called after the delivery receipt is committed
// Any error returned will be logged but will not affect the result
type AfterDeliveryHook func(DeliveryResultContext) error

// OnDeliveryFailureHook is called when the message provider rejects a send
// Any error returned will be logged; the original failure is still returned
type OnDeliveryFailureHook func(DeliveryFailureContext) error

// ============================================================================
// Fulfillment Hook Registration Options
// ============================================================================

// WithAfterChargeCreatedHook registers a hook to execute after a charge is registered
func WithAfterChargeCreatedHook(hook AfterChargeCreatedHook) ServiceOption {
	return func(s *Service) {
		s.afterChargeCreatedHooks = append(s.afterChargeCreatedHooks, hook)
	}
}

// WithBeforeDeliveryHook registers a hook to execute before the message is sent
func WithBeforeDeliveryHook(hook BeforeDeliveryHook) ServiceOption {
	return func(s *Service) {
		s.beforeDeliveryHooks = append(s.beforeDeliveryHooks, hook)
	}
}

// WithAfterDeliveryHook registers a hook to execute after a successful delivery
func WithAfterDeliveryHook(hook AfterDeliveryHook) ServiceOption {
	return func(s *Service) {
		s.afterDeliveryHooks = append(s.afterDeliveryHooks, hook)
	}
}

// WithOnDeliveryFailureHook registers a hook to execute when delivery fails
func WithOnDeliveryFailureHook(hook OnDeliveryFailureHook) ServiceOption {
	return func(s *Service) {
		s.onDeliveryFailureHooks = append(s.onDeliveryFailureHooks, hook)
	}
}
