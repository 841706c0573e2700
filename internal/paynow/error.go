package paynow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means gateway credentials or return/result URLs are
	// absent. Non-retryable; surfaced as "payments unavailable".
	ErrNotConfigured = errors.New("paynow is not configured")

	// ErrInvalidAmount guards against zero or negative totals reaching the
	// provider. Should not occur after checkout.
	ErrInvalidAmount = errors.New("amount must be greater than 0")
)

// GatewayError is a transport or provider-side failure. Recoverable: the
// caller leaves order state unchanged and may retry later.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("paynow %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ProviderDeclined carries the provider's human-readable rejection message
// for verbatim user display. Order state is left unchanged.
type ProviderDeclined struct {
	Message string
}

func (e *ProviderDeclined) Error() string {
	return fmt.Sprintf("paynow declined: %s", e.Message)
}
