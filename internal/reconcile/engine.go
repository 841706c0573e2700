package reconcile

import (
	"context"
	"errors"
	"strings"

	"partyfantasy-be/internal/logger"
	"partyfantasy-be/internal/metrics"
	"partyfantasy-be/internal/notify"
	"partyfantasy-be/internal/order"
	"partyfantasy-be/internal/paynow"

	"go.uber.org/zap"
)

// ErrOrderNotPayable means a payment flow was started on an order that is
// already in a terminal state.
var ErrOrderNotPayable = errors.New("order is not in a payable state")

// Outcome is the result of one reconciliation pass. PaidEdge/FailedEdge are
// set only by the single call that actually crossed the transition; callers
// use them to gate one-time side effects.
type Outcome struct {
	Order      *order.Order
	PaidEdge   bool
	FailedEdge bool
}

// MobileStart reports a mobile-push initiation attempt. Message carries the
// provider's decline reason verbatim when OK is false.
type MobileStart struct {
	OK              bool
	PollURL         string
	PaynowReference string
	Message         string
}

// Engine owns the payment state machine. All four external entry points
// (webhook, status page, JSON poll, return redirect) go through Reconcile
// and nothing else mutates payment state.
type Engine struct {
	orders   order.Repository
	gateway  paynow.Gateway
	notifier notify.Dispatcher
	stats    *metrics.Reconciliation
}

func NewEngine(orders order.Repository, gateway paynow.Gateway, notifier notify.Dispatcher) *Engine {
	return &Engine{
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
		stats:    metrics.NewReconciliation(),
	}
}

// Stats exposes reconciliation counters.
func (e *Engine) Stats() *metrics.Reconciliation {
	return e.stats
}

// Reconcile performs one pass for the given reference: poll the gateway,
// apply the transition rule and persist the result. The read-poll-write
// sequence runs under the repository's per-reference lock, so concurrent
// calls for the same order serialize and at most one of them reports each
// edge. Notifications fire after the lock is released.
func (e *Engine) Reconcile(ctx context.Context, reference string) (*Outcome, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	outcome := &Outcome{}
	o, err := e.orders.Reconcile(ctx, reference, func(ctx context.Context, o *order.Order) error {
		was := o.Status
		if was.Terminal() {
			// Terminal orders are never re-polled; a stale poll handle
			// must not regress the state.
			return nil
		}

		if !e.gateway.Configured() || o.PollURL == "" {
			return nil
		}

		e.stats.Polls.Inc()
		result, pollErr := e.gateway.PollStatus(ctx, o.PollURL)
		if pollErr != nil {
			// Unknown outcome: keep prior status, caller may retry later.
			log.Warn("poll failed, keeping current status",
				zap.String("status", string(o.Status)),
				zap.Error(pollErr),
			)
			e.stats.PollFailures.Inc()
			return nil
		}

		switch {
		case result.Paid && o.CanTransitionTo(order.StatusPaid):
			o.Status = order.StatusPaid
		case !result.Paid && isFailedStatus(result.Status) && o.CanTransitionTo(order.StatusFailed):
			o.Status = order.StatusFailed
		}

		outcome.PaidEdge = was != order.StatusPaid && o.Status == order.StatusPaid
		outcome.FailedEdge = was != order.StatusFailed && o.Status == order.StatusFailed
		return nil
	})
	if err != nil {
		return nil, err
	}
	outcome.Order = o

	if outcome.PaidEdge {
		e.stats.PaidEdges.Inc()
		log.Info("order paid", zap.String("total", o.Total.String()))
		e.notifier.OrderPaid(ctx, o)
	}
	if outcome.FailedEdge {
		e.stats.FailedEdges.Inc()
		log.Info("order payment failed")
		e.notifier.OrderFailed(ctx, o)
	}

	return outcome, nil
}

// StartRedirect begins the card/EFT flow. Allowed from CREATED or PENDING
// (retry). On success the poll handle is persisted and the order moves to
// PENDING; on failure the order is left untouched and the error is
// returned for user-facing display.
func (e *Engine) StartRedirect(ctx context.Context, reference string) (string, error) {
	var redirectURL string

	_, err := e.orders.Reconcile(ctx, reference, func(ctx context.Context, o *order.Order) error {
		if o.Status.Terminal() {
			return ErrOrderNotPayable
		}

		resp, err := e.gateway.InitiateRedirect(ctx, o.Reference, o.Total, o.Email)
		if err != nil {
			return err
		}

		if resp.RedirectURL == "" && resp.PollURL == "" {
			// Nothing to redirect to and nothing to poll: keep the order
			// payable instead of stranding it in PENDING.
			return nil
		}

		o.PollURL = resp.PollURL
		o.RedirectURL = resp.RedirectURL
		o.Status = order.StatusPending
		redirectURL = resp.RedirectURL
		return nil
	})
	if err != nil {
		return "", err
	}

	return redirectURL, nil
}

// StartMobile begins the mobile-money push flow. A provider decline is not
// an error: it comes back as OK=false with the provider's message so the
// caller can show a specific reason.
func (e *Engine) StartMobile(ctx context.Context, reference, phone string) (*MobileStart, error) {
	start := &MobileStart{}

	_, err := e.orders.Reconcile(ctx, reference, func(ctx context.Context, o *order.Order) error {
		if o.Status.Terminal() {
			return ErrOrderNotPayable
		}

		resp, err := e.gateway.InitiateMobile(ctx, o.Reference, o.Total, o.Email, phone)
		if err != nil {
			var declined *paynow.ProviderDeclined
			if errors.As(err, &declined) {
				start.Message = declined.Message
				return nil
			}
			return err
		}

		o.PollURL = resp.PollURL
		o.PaynowReference = resp.PaynowReference
		o.Status = order.StatusPending

		start.OK = true
		start.PollURL = resp.PollURL
		start.PaynowReference = resp.PaynowReference
		return nil
	})
	if err != nil {
		return nil, err
	}

	return start, nil
}

// isFailedStatus normalizes the provider's raw status for the failure leg
// of the transition rule.
func isFailedStatus(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cancelled", "failed":
		return true
	}
	return false
}
