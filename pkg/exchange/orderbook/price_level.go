package orderbook

import "fmt"

// PriceLevel holds the resting orders at one price in strict arrival order.
// TotalQty always equals the sum of the queued orders' remaining quantities;
// an empty level must be removed from its book, never left behind.
type PriceLevel struct {
	Price    int64
	TotalQty int64
	orders   []*Order
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

func (l *PriceLevel) append(o *Order) {
	l.orders = append(l.orders, o)
	l.TotalQty += o.Qty
}

// remove unlinks the order with the given id. Removing an id that is not
// queued here is a level/index disagreement and reported as an error.
func (l *PriceLevel) remove(id string) error {
	for i, o := range l.orders {
		if o.ID == id {
			l.orders = append(l.orders[:i], l.orders[i+1:]...)
			l.TotalQty -= o.Qty
			return nil
		}
	}
	return fmt.Errorf("order %s not queued at price %d", id, l.Price)
}

func (l *PriceLevel) head() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// popHead removes and returns the oldest order, deducting its remaining
// quantity from TotalQty.
func (l *PriceLevel) popHead() *Order {
	if len(l.orders) == 0 {
		return nil
	}
	o := l.orders[0]
	l.orders = l.orders[1:]
	l.TotalQty -= o.Qty
	return o
}

func (l *PriceLevel) empty() bool { return len(l.orders) == 0 }

func (l *PriceLevel) Len() int { return len(l.orders) }
