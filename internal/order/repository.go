package order

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByReference(ctx context.Context, reference string) (*Order, error)

	// Reconcile loads the order identified by reference under a
	// per-reference exclusive scope, runs fn against it and, when fn
	// succeeds, persists the mutable payment fields (status, paynow
	// reference, poll url, redirect url) before releasing the scope.
	// Concurrent reconciles of the same reference serialize; different
	// references never block each other.
	Reconcile(ctx context.Context, reference string, fn func(ctx context.Context, o *Order) error) (*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			reference, full_name, phone, email,
			theme, child_name, age, collection_date, toy_preference,
			delivery_method, delivery_address,
			subtotal, delivery_fee, total,
			status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING id
	`,
		o.Reference, o.FullName, o.Phone, o.Email,
		o.Theme, o.ChildName, o.Age, o.CollectionDate, o.ToyPreference,
		o.DeliveryMethod, o.DeliveryAddress,
		o.Subtotal, o.DeliveryFee, o.Total,
		o.Status, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, product_name, qty, unit_price, line_total
			) VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id
		`,
			item.OrderID, item.ProductID, item.ProductName,
			item.Qty, item.UnitPrice, item.LineTotal,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrderQuery+` WHERE reference = $1`, reference))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.fetchItems(ctx, r.db, o.ID)
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (r *repository) Reconcile(ctx context.Context, reference string, fn func(ctx context.Context, o *Order) error) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Row lock spans read -> fn (which may poll the gateway) -> write.
	o, err := scanOrder(tx.QueryRowContext(ctx, selectOrderQuery+` WHERE reference = $1 FOR UPDATE`, reference))
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Items, err = r.fetchItems(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}

	if err := fn(ctx, o); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, paynow_reference = $3, paynow_poll_url = $4, paynow_redirect_url = $5
		WHERE reference = $1
	`, reference, o.Status, o.PaynowReference, o.PollURL, o.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("update order payment state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

const selectOrderQuery = `
	SELECT id, reference, full_name, phone, email,
	       theme, child_name, age, collection_date, toy_preference,
	       delivery_method, delivery_address,
	       subtotal, delivery_fee, total,
	       status, paynow_reference, paynow_poll_url, paynow_redirect_url,
	       created_at
	FROM orders`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Reference, &o.FullName, &o.Phone, &o.Email,
		&o.Theme, &o.ChildName, &o.Age, &o.CollectionDate, &o.ToyPreference,
		&o.DeliveryMethod, &o.DeliveryAddress,
		&o.Subtotal, &o.DeliveryFee, &o.Total,
		&o.Status, &o.PaynowReference, &o.PollURL, &o.RedirectURL,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *repository) fetchItems(ctx context.Context, q queryer, orderID uint) ([]OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, qty, unit_price, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Qty, &item.UnitPrice, &item.LineTotal,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
