package order

import (
	"time"
)

// MethodCode identifies orders that pay through this gateway. Orders
// carrying any other payment method are rejected.
const MethodCode = "paynet_payneteasy"

// PaymentState is the reconciliation state machine over an order.
// NEW -> PENDING_PAYMENT -> {COMPLETE | CANCELED}; failed payments fold
// into CANCELED for externally visible purposes.
type PaymentState string

const (
	StateNew            PaymentState = "new"
	StatePendingPayment PaymentState = "pending_payment"
	StateComplete       PaymentState = "complete"
	StateCanceled       PaymentState = "canceled"
)

// Terminal reports whether no further reconciliation transitions apply.
func (s PaymentState) Terminal() bool {
	return s == StateComplete || s == StateCanceled
}

type Address struct {
	Street      string
	City        string
	Postcode    string
	CountryCode string
	Phone       string
}

// Order is owned by the storefront; this service only mutates its payment
// state, paid totals and history.
type Order struct {
	ID                string
	GrandTotal        float64
	BaseGrandTotal    float64
	CurrencyCode      string
	CustomerEmail     string
	CustomerFirstname string
	CustomerLastname  string
	ShippingAddress   Address
	BillingAddress    Address
	RemoteIP          string
	PaymentMethod     string
	State             PaymentState
	TotalPaid         float64
	BaseTotalPaid     float64
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// PendingComments are history entries added during this operation,
	// flushed by Store.Save.
	PendingComments []string
}

// AddHistoryComment queues a human-readable history entry for the next save.
func (o *Order) AddHistoryComment(comment string) {
	o.PendingComments = append(o.PendingComments, comment)
}
