package orderbook

import (
	"container/heap"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ketanwani/Trading-System/pkg/metrics"
	"github.com/ketanwani/Trading-System/pkg/util"
)

// Book is the matching engine for one symbol: two price-ordered sides of
// price levels, an id index for O(1) lookups, and one lock that is the unit
// of atomicity for every book-affecting operation.
//
// Liveness rule: a resting order is present in exactly one price level and in
// the id index. Filled and expired orders are dropped from both, so their ids
// stop resolving. Cancelled orders leave their level but stay in the index
// with terminal status, which keeps cancellation idempotent and status
// queries answerable.
type Book struct {
	symbol string
	ttl    time.Duration
	clock  util.Clock

	mu      sync.Mutex
	bidHeap *maxPriceHeap
	askHeap *minPriceHeap
	bids    map[int64]*PriceLevel
	asks    map[int64]*PriceLevel
	orders  map[string]*Order
}

type Option func(*Book)

// WithClock substitutes the wall clock, letting tests drive TTL expiry.
func WithClock(c util.Clock) Option {
	return func(b *Book) { b.clock = c }
}

// WithTTL overrides the resting-order time-to-live.
func WithTTL(d time.Duration) Option {
	return func(b *Book) { b.ttl = d }
}

func NewBook(symbol string, opts ...Option) *Book {
	bidHeap := &maxPriceHeap{}
	askHeap := &minPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	b := &Book{
		symbol:  symbol,
		ttl:     DefaultTTL,
		clock:   util.RealClock{},
		bidHeap: bidHeap,
		askHeap: askHeap,
		bids:    make(map[int64]*PriceLevel),
		asks:    make(map[int64]*PriceLevel),
		orders:  make(map[string]*Order),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Book) Symbol() string { return b.symbol }

// Add matches the order against the opposite side and rests any remainder.
// Trades are returned in the order they were struck. An order fully consumed
// on arrival never enters the book.
func (b *Book) Add(o *Order) ([]Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.orders[o.ID]; ok {
		return nil, fmt.Errorf("order %s: %w", o.ID, ErrDuplicateOrder)
	}
	trades := b.match(o)
	if o.Qty > 0 {
		b.rest(o)
	}
	return trades, nil
}

// match runs the price-time priority loop: always the best opposite level,
// always the oldest order within it, execution at the resting order's price.
func (b *Book) match(taker *Order) []Trade {
	var trades []Trade
	now := b.clock.Now()

	for taker.Qty > 0 {
		lvl := b.bestOpposite(taker.Side)
		if lvl == nil || !crosses(taker, lvl.Price) {
			break
		}

		maker := lvl.head()
		if maker.expired(now, b.ttl) {
			b.dropExpired(lvl, maker, taker.Side)
			continue
		}

		qty := min(taker.Qty, maker.Qty)
		trades = append(trades, b.strike(taker, maker, qty, lvl.Price, now))

		taker.Qty -= qty
		maker.Qty -= qty
		lvl.TotalQty -= qty

		taker.Status = PartiallyFilled
		if taker.Qty == 0 {
			taker.Status = Filled
		}

		if maker.Qty == 0 {
			maker.Status = Filled
			lvl.popHead()
			delete(b.orders, maker.ID)
		} else {
			maker.Status = PartiallyFilled
		}

		if lvl.empty() {
			b.removeLevel(opposite(taker.Side), lvl.Price)
		}
	}
	return trades
}

func (b *Book) strike(taker, maker *Order, qty, price int64, now time.Time) Trade {
	buy, sell := taker, maker
	if taker.Side == Sell {
		buy, sell = maker, taker
	}
	return newTrade(buy, sell, qty, price, now)
}

// dropExpired discards a dead resting order without trading and without
// consuming any of the incoming order's quantity.
func (b *Book) dropExpired(lvl *PriceLevel, o *Order, takerSide Side) {
	o.Status = Expired
	lvl.popHead()
	delete(b.orders, o.ID)
	if lvl.empty() {
		b.removeLevel(opposite(takerSide), lvl.Price)
	}
	metrics.OrdersExpiredTotal.Inc()
}

// rest inserts the order at the tail of its price level, creating the level
// (and its heap entry) if absent.
func (b *Book) rest(o *Order) {
	levels := b.bids
	if o.Side == Sell {
		levels = b.asks
	}
	lvl, ok := levels[o.Price]
	if !ok {
		lvl = newPriceLevel(o.Price)
		levels[o.Price] = lvl
		if o.Side == Buy {
			heap.Push(b.bidHeap, o.Price)
		} else {
			heap.Push(b.askHeap, o.Price)
		}
	}
	lvl.append(o)
	b.orders[o.ID] = o
}

// Cancel removes a resting order from its level and marks it cancelled.
// Cancelling an already-cancelled order is a no-op.
func (b *Book) Cancel(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	if o.Status == Cancelled {
		return nil
	}
	if err := b.unlink(o); err != nil {
		return err
	}
	o.Status = Cancelled
	return nil
}

// Modify resizes and, when side or price change, repositions the order.
// Repositioning forfeits queue priority and re-runs matching exactly as a
// fresh submission would; a pure quantity change keeps the order's place in
// the queue and never re-matches. The caller guarantees qty > 0.
func (b *Book) Modify(id string, side Side, price, qty int64) ([]Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok || o.Status.Terminal() {
		return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}

	if side == o.Side && price == o.Price {
		lvl, err := b.levelOf(o)
		if err != nil {
			return nil, err
		}
		lvl.TotalQty += qty - o.Qty
		o.Qty = qty
		return nil, nil
	}

	if err := b.unlink(o); err != nil {
		return nil, err
	}
	o.Side = side
	o.Price = price
	o.Qty = qty

	trades := b.match(o)
	if o.Qty > 0 {
		b.rest(o)
	} else {
		delete(b.orders, o.ID)
	}
	return trades, nil
}

// Status returns the current status for a resolvable order id.
func (b *Book) Status(id string) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return 0, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	return o.Status, nil
}

// LevelSnapshot is one (price, volume) row of a book side.
type LevelSnapshot struct {
	Price    int64
	TotalQty int64
}

// Snapshot returns both sides with the best price first: bids descending,
// asks ascending.
func (b *Book) Snapshot() (bids, asks []LevelSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, lvl := range b.bids {
		bids = append(bids, LevelSnapshot{Price: lvl.Price, TotalQty: lvl.TotalQty})
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].Price > bids[j].Price })

	for _, lvl := range b.asks {
		asks = append(asks, LevelSnapshot{Price: lvl.Price, TotalQty: lvl.TotalQty})
	}
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price < asks[j].Price })

	return bids, asks
}

// Depth returns the number of populated price levels on each side.
func (b *Book) Depth() (bidLevels, askLevels int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bids), len(b.asks)
}

// BestBid returns the highest bid price, if any.
func (b *Book) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.peek(), true
}

// BestAsk returns the lowest ask price, if any.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.peek(), true
}

func opposite(s Side) Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func crosses(taker *Order, restingPrice int64) bool {
	if taker.Side == Buy {
		return restingPrice <= taker.Price
	}
	return restingPrice >= taker.Price
}

// bestOpposite peeks the level the incoming side would match against next.
func (b *Book) bestOpposite(takerSide Side) *PriceLevel {
	if takerSide == Buy {
		if b.askHeap.Len() == 0 {
			return nil
		}
		return b.asks[b.askHeap.peek()]
	}
	if b.bidHeap.Len() == 0 {
		return nil
	}
	return b.bids[b.bidHeap.peek()]
}

func (b *Book) levelOf(o *Order) (*PriceLevel, error) {
	levels := b.bids
	if o.Side == Sell {
		levels = b.asks
	}
	lvl, ok := levels[o.Price]
	if !ok {
		return nil, fmt.Errorf("order %s: no %s level at price %d", o.ID, o.Side, o.Price)
	}
	return lvl, nil
}

// unlink removes a resting order from its level, dropping the level (and its
// heap entry) when emptied.
func (b *Book) unlink(o *Order) error {
	lvl, err := b.levelOf(o)
	if err != nil {
		return err
	}
	if err := lvl.remove(o.ID); err != nil {
		return err
	}
	if lvl.empty() {
		b.removeLevel(o.Side, o.Price)
	}
	return nil
}

func (b *Book) removeLevel(side Side, price int64) {
	if side == Buy {
		delete(b.bids, price)
		for i := 0; i < b.bidHeap.Len(); i++ {
			if (*b.bidHeap)[i] == price {
				heap.Remove(b.bidHeap, i)
				return
			}
		}
		return
	}
	delete(b.asks, price)
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i] == price {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}
