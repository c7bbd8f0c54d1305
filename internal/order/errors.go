package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderIDMissing    = errors.New("order id missing")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrNotCancelable     = errors.New("order is not in a cancelable state")
)
