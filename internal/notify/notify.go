// internal/notify/notify.go
package notify

import (
	"context"

	"partyfantasy-be/internal/order"
)

// Dispatcher sends the one-time transition notifications. Implementations
// hold no dedupe state: callers invoke these only on an edge reported by
// the reconcile engine. Dispatch is fire-and-forget; transport failures are
// logged and never surfaced.
type Dispatcher interface {
	OrderPaid(ctx context.Context, o *order.Order)
	OrderFailed(ctx context.Context, o *order.Order)
}

// Nop is used when SMTP is not configured.
type Nop struct{}

func (Nop) OrderPaid(ctx context.Context, o *order.Order)   {}
func (Nop) OrderFailed(ctx context.Context, o *order.Order) {}
