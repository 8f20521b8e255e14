package exchange

import "errors"

var (
	// ErrUnknownUser is returned when an order is placed for an unregistered
	// user id.
	ErrUnknownUser = errors.New("unknown user")

	// ErrSymbolNotFound is returned for operations on a symbol no order has
	// ever been placed for.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidOrder is returned when quantity or price is not positive.
	ErrInvalidOrder = errors.New("invalid order")
)
