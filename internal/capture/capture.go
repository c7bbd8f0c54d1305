package capture

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"paynetgw/internal/logger"
	"paynetgw/internal/order"

	"go.uber.org/zap"
)

const TypeCapture = "capture"

// Transaction is the financial record marking funds as collected against
// an order. The transaction id is the order's own identifier, not a
// gateway-generated one.
type Transaction struct {
	TxnID      string
	OrderID    string
	Type       string
	RawDetails map[string]string
	FailSafe   bool
	CreatedAt  time.Time
}

type Repository interface {
	SaveTransaction(ctx context.Context, txn *Transaction) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveTransaction(ctx context.Context, txn *Transaction) error {
	details, err := json.Marshal(txn.RawDetails)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions (txn_id, order_id, txn_type, raw_details, fail_safe)
		VALUES ($1, $2, $3, $4, $5)
	`, txn.TxnID, txn.OrderID, txn.Type, details, txn.FailSafe)
	return err
}

// Recorder emits the single capture transaction when an order reaches the
// approved terminal state.
type Recorder struct {
	repo Repository
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// RecordCapture builds and persists the capture transaction and appends a
// history comment to the order. The transaction is fail-safe: an error here
// must not unwind the already-applied order state change, which is why the
// caller only logs the returned error.
func (r *Recorder) RecordCapture(ctx context.Context, o *order.Order, raw map[string]string) (*Transaction, error) {
	txn := &Transaction{
		TxnID:      o.ID,
		OrderID:    o.ID,
		Type:       TypeCapture,
		RawDetails: raw,
		FailSafe:   true,
	}

	if err := r.repo.SaveTransaction(ctx, txn); err != nil {
		logger.L().Error("failed to record capture transaction",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return nil, err
	}

	o.AddHistoryComment("The payment transaction has been captured.")

	logger.L().Debug("capture transaction recorded",
		zap.String("order_id", o.ID),
		zap.String("txn_id", txn.TxnID),
	)
	return txn, nil
}
