package orderbook

import (
	"time"

	"github.com/google/uuid"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

// Status tracks an order through its lifecycle. Accepted orders move to
// PartiallyFilled and Filled as the matching loop consumes them; Filled,
// Cancelled and Expired are terminal.
type Status int8

const (
	Accepted Status = iota
	PartiallyFilled
	Filled
	Cancelled
	Expired
)

func (st Status) String() string {
	switch st {
	case Accepted:
		return "ACCEPTED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Expired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition is possible.
func (st Status) Terminal() bool {
	return st == Filled || st == Cancelled || st == Expired
}

// DefaultTTL is how long a resting order stays eligible for matching after
// creation. Expiry is checked lazily, only when the order is inspected as a
// match candidate.
const DefaultTTL = 30 * time.Minute

// Order is a limit order. Price and Qty are integer ticks and lots; Qty is
// the remaining, unfilled quantity.
type Order struct {
	ID        string
	UserID    string
	Symbol    string
	Side      Side
	Price     int64
	Qty       int64
	CreatedAt time.Time
	Status    Status
}

// NewOrder creates an accepted order with a fresh id.
func NewOrder(userID string, side Side, symbol string, qty, price int64, now time.Time) *Order {
	return &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Qty:       qty,
		CreatedAt: now,
		Status:    Accepted,
	}
}

func (o *Order) expired(now time.Time, ttl time.Duration) bool {
	return now.After(o.CreatedAt.Add(ttl))
}
