// internal/paynow/paynow.go
package paynow

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"
)

// Gateway wraps the outbound Paynow calls. It never mutates order state;
// mapping results onto the ledger is the reconcile engine's job.
type Gateway interface {
	InitiateRedirect(ctx context.Context, orderRef string, amount decimal.Decimal, email string) (*RedirectResponse, error)
	InitiateMobile(ctx context.Context, orderRef string, amount decimal.Decimal, email, phone string) (*MobileResponse, error)
	PollStatus(ctx context.Context, pollURL string) (*PollResult, error)
	VerifyResult(values url.Values) error
	Configured() bool
}

// RedirectResponse is the card/EFT initiation result. RedirectURL may be
// empty when the provider returned something unusable; PollURL is the
// opaque handle for later status checks.
type RedirectResponse struct {
	RedirectURL string
	PollURL     string
}

// MobileResponse is the mobile-money push initiation result.
type MobileResponse struct {
	PollURL         string
	PaynowReference string
	Instructions    string
}

type PollResult struct {
	Paid   bool
	Status string
}
