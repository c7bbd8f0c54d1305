package paynet

import "errors"

var (
	// ErrUnreachable covers transport failures and timeouts. The order is
	// left in its prior state; retrying is the caller's decision.
	ErrUnreachable = errors.New("payment gateway unreachable")
	// ErrProtocol covers non-2xx responses and bodies that do not parse.
	ErrProtocol = errors.New("payment gateway protocol error")
	// ErrIncomplete marks a parseable response missing required fields.
	// An order must never advance on an ambiguous response.
	ErrIncomplete = errors.New("payment gateway response incomplete")
)
