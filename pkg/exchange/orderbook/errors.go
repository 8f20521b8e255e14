package orderbook

import "errors"

var (
	// ErrDuplicateOrder is returned when an order id is submitted twice.
	ErrDuplicateOrder = errors.New("duplicate order id")

	// ErrOrderNotFound is returned for operations on an id the book does not
	// know, or one that already reached a terminal state other than cancelled.
	ErrOrderNotFound = errors.New("order not found")
)
