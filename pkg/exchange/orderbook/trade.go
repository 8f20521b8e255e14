package orderbook

import (
	"time"

	"github.com/google/uuid"
)

// Trade is an immutable record of one match. It carries copies of the order
// identifiers only, never live Order references, so dropping an order from
// the book cannot invalidate a trade already handed out.
type Trade struct {
	ID          string
	BuyOrderID  string
	SellOrderID string
	Symbol      string
	Qty         int64
	Price       int64
	ExecutedAt  time.Time
}

func newTrade(buy, sell *Order, qty, price int64, now time.Time) Trade {
	return Trade{
		ID:          uuid.NewString(),
		BuyOrderID:  buy.ID,
		SellOrderID: sell.ID,
		Symbol:      buy.Symbol,
		Qty:         qty,
		Price:       price,
		ExecutedAt:  now,
	}
}
