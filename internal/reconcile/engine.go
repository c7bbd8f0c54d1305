package reconcile

import (
	"context"
	"fmt"
	"time"

	"paynetgw/internal/capture"
	"paynetgw/internal/ledger"
	"paynetgw/internal/lock"
	"paynetgw/internal/logger"
	"paynetgw/internal/order"
	"paynetgw/internal/paynet"

	"go.uber.org/zap"
)

// lockTTL bounds how long a single reconciliation may hold an order.
const lockTTL = 30 * time.Second

// CaptureRecorder is the terminal-state side effect of an approved payment.
type CaptureRecorder interface {
	RecordCapture(ctx context.Context, o *order.Order, raw map[string]string) (*capture.Transaction, error)
}

// Outcome is what a reconciliation observed and decided.
type Outcome struct {
	State order.PaymentState
	// Status is the normalized gateway status that drove the decision.
	Status paynet.Status
	// Captured is true when this call created the capture transaction.
	Captured bool
	// ChallengeHTML carries the 3-D Secure fragment to render before the
	// customer sees the outcome. Only set in passthrough mode.
	ChallengeHTML string
}

// Engine reconciles an order's payment state against the gateway. All
// three triggers (customer return, status poll, merchant cancel) funnel
// through it, and it is the single place that guards against
// double-capture.
type Engine struct {
	cfg      paynet.Config
	gateway  paynet.Gateway
	store    order.Store
	ledger   ledger.Repository
	recorder CaptureRecorder
	locker   lock.Locker

	threeDSecure    bool
	cancelableState order.PaymentState
}

func NewEngine(
	cfg paynet.Config,
	gateway paynet.Gateway,
	store order.Store,
	ledgerRepo ledger.Repository,
	recorder CaptureRecorder,
	locker lock.Locker,
	threeDSecure bool,
	cancelableState order.PaymentState,
) *Engine {
	if cancelableState == "" {
		cancelableState = order.StatePendingPayment
	}
	return &Engine{
		cfg:             cfg,
		gateway:         gateway,
		store:           store,
		ledger:          ledgerRepo,
		recorder:        recorder,
		locker:          locker,
		threeDSecure:    threeDSecure,
		cancelableState: cancelableState,
	}
}

// Reconcile polls the gateway for the order's status and applies the
// transition table. It serves both the customer-return callback and any
// explicit poll; calling it on an order already in a terminal state is a
// no-op, never an error.
func (e *Engine) Reconcile(ctx context.Context, orderID string) (*Outcome, error) {
	if orderID == "" {
		return nil, order.ErrOrderIDMissing
	}

	o, err := e.store.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentMethod != order.MethodCode {
		return nil, order.ErrUnsupportedMethod
	}

	resp, err := e.queryStatus(ctx, o)
	if err != nil {
		return nil, err
	}

	logger.L().Debug("reconciling order",
		zap.String("order_id", o.ID),
		zap.String("gateway_status", resp.RawStatus),
		zap.String("order_state", string(o.State)),
	)

	if err := e.ledger.UpdateStatus(ctx, o.ID, resp.RawStatus); err != nil {
		logger.L().Warn("failed to update attempt status",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	out := &Outcome{State: o.State, Status: resp.Status}
	if e.threeDSecure && resp.HTML != "" {
		out.ChallengeHTML = resp.HTML
	}

	return e.apply(ctx, o.ID, resp, out)
}

// apply runs read-state-then-act under the per-order lock. Only
// PENDING_PAYMENT accepts a transition-causing event; terminal states
// absorb everything silently.
func (e *Engine) apply(ctx context.Context, orderID string, resp *paynet.Response, out *Outcome) (*Outcome, error) {
	key := "order:" + orderID
	acquired, err := e.locker.Acquire(ctx, key, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquiring order lock: %w", err)
	}
	if !acquired {
		// A concurrent observation for the same order holds the lock.
		// Report the persisted state untouched; the holder's outcome wins.
		logger.L().Debug("order locked by concurrent reconciliation",
			zap.String("order_id", orderID),
		)
		return out, nil
	}
	defer func() { _ = e.locker.Release(ctx, key) }()

	// Re-read under the lock so the terminal guard sees the latest state.
	o, err := e.store.Load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out.State = o.State

	if o.State.Terminal() {
		logger.L().Debug("duplicate event on terminal order absorbed",
			zap.String("order_id", o.ID),
			zap.String("state", string(o.State)),
			zap.String("gateway_status", resp.RawStatus),
		)
		return out, nil
	}

	switch resp.Status {
	case paynet.StatusApproved:
		o.TotalPaid = o.GrandTotal
		o.BaseTotalPaid = o.BaseGrandTotal
		o.State = order.StateComplete

		if _, err := e.recorder.RecordCapture(ctx, o, resp.Raw); err == nil {
			out.Captured = true
		}
		// A capture bookkeeping failure was already logged by the
		// recorder and must not unwind the paid state.

		if err := e.store.Save(ctx, o); err != nil {
			return nil, err
		}
		out.State = o.State

		logger.L().Info("payment approved",
			zap.String("order_id", o.ID),
			zap.Float64("total_paid", o.TotalPaid),
		)

	case paynet.StatusDeclined, paynet.StatusError:
		o.State = order.StateCanceled
		o.AddHistoryComment(fmt.Sprintf("Payment failed with gateway status %q.", resp.Status))

		if err := e.store.Save(ctx, o); err != nil {
			return nil, err
		}
		out.State = o.State

		// Both fold into canceled externally, but are logged apart.
		logger.L().Info("payment failed",
			zap.String("order_id", o.ID),
			zap.String("gateway_status", string(resp.Status)),
		)

	default:
		logger.L().Info("payment still pending at gateway",
			zap.String("order_id", o.ID),
			zap.String("gateway_status", resp.RawStatus),
		)
	}

	return out, nil
}

// Cancel is the merchant-triggered path: it issues the signed return call
// for an order in the configured cancelable state and moves it to
// CANCELED. The gateway's response is logged but never creates a capture.
func (e *Engine) Cancel(ctx context.Context, orderID, comment string) error {
	if orderID == "" {
		return order.ErrOrderIDMissing
	}

	o, err := e.store.Load(ctx, orderID)
	if err != nil {
		return err
	}
	if o.PaymentMethod != order.MethodCode {
		return order.ErrUnsupportedMethod
	}
	if o.State != e.cancelableState {
		return order.ErrNotCancelable
	}

	attempt, err := e.ledger.Get(ctx, o.ID)
	if err != nil {
		return err
	}

	req := &paynet.ReturnRequest{
		Login:         e.cfg.MerchantLogin,
		ClientOrderID: o.ID,
		PaynetOrderID: attempt.PaynetOrderID,
		Comment:       comment,
	}
	req.Sign(e.cfg.ControlKey)

	resp, err := e.gateway.Return(ctx, req)
	if err != nil {
		return err
	}

	logger.L().Debug("gateway return issued",
		zap.String("order_id", o.ID),
		zap.String("paynet_order_id", attempt.PaynetOrderID),
		zap.Any("response", resp.Raw),
	)

	if err := e.ledger.UpdateStatus(ctx, o.ID, resp.RawStatus); err != nil {
		logger.L().Warn("failed to update attempt status",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}

	key := "order:" + o.ID
	acquired, err := e.locker.Acquire(ctx, key, lockTTL)
	if err != nil {
		return fmt.Errorf("acquiring order lock: %w", err)
	}
	if !acquired {
		return nil
	}
	defer func() { _ = e.locker.Release(ctx, key) }()

	fresh, err := e.store.Load(ctx, o.ID)
	if err != nil {
		return err
	}
	if fresh.State.Terminal() {
		return nil
	}

	fresh.State = order.StateCanceled
	fresh.AddHistoryComment("Order canceled by merchant; gateway return requested.")
	return e.store.Save(ctx, fresh)
}

func (e *Engine) queryStatus(ctx context.Context, o *order.Order) (*paynet.Response, error) {
	attempt, err := e.ledger.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	req := &paynet.StatusRequest{
		Login:         e.cfg.MerchantLogin,
		ClientOrderID: o.ID,
		PaynetOrderID: attempt.PaynetOrderID,
	}
	req.Sign(e.cfg.ControlKey)

	return e.gateway.QueryStatus(ctx, req)
}
