package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAttemptNotFound = errors.New("payment attempt not found")

// Attempt maps a merchant order to the gateway order the gateway opened for
// it, with the last observed status. One attempt per order at a time; rows
// are never deleted so the table doubles as an audit trail.
type Attempt struct {
	ID              string
	MerchantOrderID string
	PaynetOrderID   string
	LastStatus      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Repository interface {
	Put(ctx context.Context, a *Attempt) error
	Get(ctx context.Context, merchantOrderID string) (*Attempt, error)
	UpdateStatus(ctx context.Context, merchantOrderID, status string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Put(ctx context.Context, a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payneteasy_payments (id, merchant_order_id, paynet_order_id, last_status)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.MerchantOrderID, a.PaynetOrderID, a.LastStatus)
	return err
}

func (r *repository) Get(ctx context.Context, merchantOrderID string) (*Attempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, merchant_order_id, paynet_order_id, last_status, created_at, updated_at
		FROM payneteasy_payments
		WHERE merchant_order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, merchantOrderID)

	var a Attempt
	err := row.Scan(&a.ID, &a.MerchantOrderID, &a.PaynetOrderID, &a.LastStatus, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) UpdateStatus(ctx context.Context, merchantOrderID, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payneteasy_payments SET last_status = $2, updated_at = now()
		WHERE merchant_order_id = $1
	`, merchantOrderID, status)
	return err
}
