package lnsms

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown charge id.
	ErrNotFound = errors.New("charge not found")

	// ErrDuplicateKey is returned when inserting a charge id that already exists.
	ErrDuplicateKey = errors.New("charge already registered")

	// ErrAlreadyDelivered is returned when a delivery is committed twice.
	ErrAlreadyDelivered = errors.New("message already delivered")

	// ErrTimeout marks a provider call that ran past its deadline.
	ErrTimeout = errors.New("provider request timed out")
)

// NotFoundError names the charge id that was looked up.
func NotFoundError(chargeID string) error {
	return fmt.Errorf("charge %s: %w", chargeID, ErrNotFound)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// UpstreamError represents a failed call to the charge provider
type UpstreamError struct {
	Op         string `json:"op"`
	StatusCode int    `json:"statusCode,omitempty"`
	Body       string `json:"body,omitempty"`
	Err        error  `json:"-"`
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("OpenNode API error: %d - %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("OpenNode API error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("OpenNode API error: %s", e.Op)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// DeliveryError represents a rejected or failed message send
type DeliveryError struct {
	To      string `json:"to"`
	Code    int    `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *DeliveryError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("SMS delivery to %s failed (%d): %s", e.To, e.Code, e.Message)
	}
	return fmt.Sprintf("SMS delivery to %s failed: %s", e.To, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ConfigurationError names a required setting that is missing
type ConfigurationError struct {
	Field string `json:"field"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not set", e.Field)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field string) *ConfigurationError {
	return &ConfigurationError{Field: field}
}
