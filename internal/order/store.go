package order

import (
	"context"
	"database/sql"
	"errors"
)

// Store is the boundary to the storefront's order persistence. The service
// loads an order around every initiation and reconciliation and saves the
// computed payment state back; it never creates or deletes orders.
type Store interface {
	Load(ctx context.Context, id string) (*Order, error)
	Save(ctx context.Context, o *Order) error
}

type store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return &store{db: db}
}

func (s *store) Load(ctx context.Context, id string) (*Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, grand_total, base_grand_total, currency_code,
		       customer_email, customer_firstname, customer_lastname,
		       shipping_street, shipping_city, shipping_postcode, shipping_country, shipping_phone,
		       billing_street, billing_city, billing_postcode, billing_country, billing_phone,
		       remote_ip, payment_method, state, total_paid, base_total_paid,
		       created_at, updated_at
		FROM orders WHERE id = $1
	`, id)

	var o Order
	err := row.Scan(
		&o.ID, &o.GrandTotal, &o.BaseGrandTotal, &o.CurrencyCode,
		&o.CustomerEmail, &o.CustomerFirstname, &o.CustomerLastname,
		&o.ShippingAddress.Street, &o.ShippingAddress.City, &o.ShippingAddress.Postcode,
		&o.ShippingAddress.CountryCode, &o.ShippingAddress.Phone,
		&o.BillingAddress.Street, &o.BillingAddress.City, &o.BillingAddress.Postcode,
		&o.BillingAddress.CountryCode, &o.BillingAddress.Phone,
		&o.RemoteIP, &o.PaymentMethod, &o.State, &o.TotalPaid, &o.BaseTotalPaid,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (s *store) Save(ctx context.Context, o *Order) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET state = $2, total_paid = $3, base_total_paid = $4, updated_at = now()
		WHERE id = $1
	`, o.ID, o.State, o.TotalPaid, o.BaseTotalPaid)
	if err != nil {
		return err
	}

	for _, comment := range o.PendingComments {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO order_history (order_id, comment) VALUES ($1, $2)
		`, o.ID, comment)
		if err != nil {
			return err
		}
	}
	o.PendingComments = nil

	return nil
}
