package order

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated Status = "CREATED"
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

// Terminal reports whether the status is an end state. Orders never leave
// PAID or FAILED.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed
}

// Order is the aggregate root for a checkout. Monetary fields are fixed at
// creation; after that only Status and the paynow fields ever change.
type Order struct {
	ID        uint
	Reference string

	FullName        string
	Phone           string
	Email           string
	Theme           string
	ChildName       string
	Age             *int
	CollectionDate  *time.Time
	ToyPreference   string
	DeliveryMethod  string
	DeliveryAddress string

	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal

	Status          Status
	PaynowReference string
	PollURL         string
	RedirectURL     string

	CreatedAt time.Time
	Items     []OrderItem
}

// OrderItem snapshots one cart line at checkout time. Unit price and line
// total must not change even if the catalog price later does.
type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   uint
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// NewReference generates the opaque order handle: 128 random bits as
// uppercase hex.
func NewReference() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

// CanTransitionTo enforces the monotonic lifecycle
// CREATED -> PENDING -> {PAID, FAILED}.
func (o *Order) CanTransitionTo(next Status) bool {
	if o.Status == next {
		return true
	}
	switch o.Status {
	case StatusCreated:
		return next == StatusPending
	case StatusPending:
		return next == StatusPaid || next == StatusFailed
	default:
		return false
	}
}
