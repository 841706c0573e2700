package order

import (
	"context"
	"time"

	"partyfantasy-be/internal/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DeliveryMethodDelivery = "delivery"

type Service interface {
	// Checkout snapshots a finalized cart into a CREATED order with a
	// fresh reference and exact monetary totals.
	Checkout(ctx context.Context, input CheckoutInput) (*Order, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
}

type CheckoutInput struct {
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
	Items           []CheckoutItem
}

type CheckoutItem struct {
	ProductID   uint
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
}

type service struct {
	repo        Repository
	deliveryFee decimal.Decimal
}

// NewService builds the checkout boundary. deliveryFee is the site-wide fee
// charged when the customer picks delivery instead of collection.
func NewService(repo Repository, deliveryFee decimal.Decimal) Service {
	return &service{repo: repo, deliveryFee: deliveryFee}
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Int("item_count", len(input.Items)),
	)

	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	subtotal := decimal.Zero
	items := make([]OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Qty <= 0 {
			log.Warn("invalid quantity", zap.Uint("product_id", in.ProductID), zap.Int("qty", in.Qty))
			return nil, ErrInvalidQuantity
		}

		lineTotal := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Qty)))
		subtotal = subtotal.Add(lineTotal)

		items = append(items, OrderItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Qty:         in.Qty,
			UnitPrice:   in.UnitPrice,
			LineTotal:   lineTotal,
		})
	}

	fee := decimal.Zero
	if input.DeliveryMethod == DeliveryMethodDelivery {
		fee = s.deliveryFee
	}

	o := &Order{
		Reference:       NewReference(),
		FullName:        input.FullName,
		Phone:           input.Phone,
		Email:           input.Email,
		Theme:           input.Theme,
		ChildName:       input.ChildName,
		Age:             input.Age,
		CollectionDate:  input.CollectionDate,
		ToyPreference:   input.ToyPreference,
		DeliveryMethod:  input.DeliveryMethod,
		DeliveryAddress: input.DeliveryAddress,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           subtotal.Add(fee),
		Status:          StatusCreated,
		CreatedAt:       time.Now(),
		Items:           items,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("reference", o.Reference),
		zap.String("total", o.Total.String()),
	)

	return o, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*Order, error) {
	return s.repo.GetByReference(ctx, reference)
}
