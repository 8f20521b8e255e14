package exchange

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ketanwani/Trading-System/pkg/exchange/orderbook"
	"github.com/ketanwani/Trading-System/pkg/exchange/user"
	"github.com/ketanwani/Trading-System/pkg/metrics"
	"github.com/ketanwani/Trading-System/pkg/util"
)

// System coordinates the per-symbol order books, the user registry and the
// global trade ledger. Books are created lazily on the first order for a
// symbol and live for the lifetime of the process; two different symbols'
// books never contend with each other.
type System struct {
	log   *zap.SugaredLogger
	clock util.Clock
	users *user.Registry

	booksMu sync.RWMutex
	books   map[string]*orderbook.Book

	ledgerMu sync.Mutex
	ledger   []orderbook.Trade
}

type Option func(*System)

// WithClock substitutes the wall clock handed to every book.
func WithClock(c util.Clock) Option {
	return func(s *System) { s.clock = c }
}

func NewSystem(log *zap.SugaredLogger, opts ...Option) *System {
	s := &System{
		log:   log,
		clock: util.RealClock{},
		users: user.NewRegistry(),
		books: make(map[string]*orderbook.Book),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUser stores a new user profile and returns its id. Never fails.
func (s *System) RegisterUser(name, phone, email string) string {
	id := s.users.Register(name, phone, email)
	s.log.Infow("user_registered", "user_id", id, "name", name)
	return id
}

// PlaceOrder creates an order for the user and submits it to the symbol's
// book, creating the book if this is the symbol's first order. Resulting
// trades are appended to the global ledger. The order id is returned whether
// the order matched, partially matched or fully rested.
func (s *System) PlaceOrder(userID string, side orderbook.Side, symbol string, qty, price int64) (string, error) {
	if !s.users.Exists(userID) {
		metrics.OrdersRejectedTotal.Inc()
		return "", fmt.Errorf("user %s: %w", userID, ErrUnknownUser)
	}
	if side != orderbook.Buy && side != orderbook.Sell {
		metrics.OrdersRejectedTotal.Inc()
		return "", fmt.Errorf("side %d: %w", side, ErrInvalidOrder)
	}
	if qty <= 0 || price <= 0 {
		metrics.OrdersRejectedTotal.Inc()
		return "", fmt.Errorf("qty %d price %d: %w", qty, price, ErrInvalidOrder)
	}

	o := orderbook.NewOrder(userID, side, symbol, qty, price, s.clock.Now())
	trades, err := s.book(symbol).Add(o)
	if err != nil {
		metrics.OrdersRejectedTotal.Inc()
		return "", err
	}

	s.recordTrades(trades)
	metrics.OrdersPlacedTotal.Inc()
	s.log.Debugw("order_placed",
		"order_id", o.ID,
		"user_id", userID,
		"symbol", symbol,
		"side", side.String(),
		"qty", qty,
		"price", price,
		"trades", len(trades))
	return o.ID, nil
}

// CancelOrder cancels a resting order. Cancelling an already-cancelled order
// succeeds without effect.
func (s *System) CancelOrder(symbol, orderID string) error {
	b, err := s.bookFor(symbol)
	if err != nil {
		return err
	}
	if err := b.Cancel(orderID); err != nil {
		return err
	}
	metrics.OrdersCancelledTotal.Inc()
	s.log.Debugw("order_cancelled", "order_id", orderID, "symbol", symbol)
	return nil
}

// ModifyOrder updates an order's quantity and, when side or price change,
// repositions it at the back of its new level and re-matches it. Trades from
// a crossing modify land on the ledger like any others.
func (s *System) ModifyOrder(symbol, orderID string, side orderbook.Side, price, qty int64) error {
	if side != orderbook.Buy && side != orderbook.Sell {
		return fmt.Errorf("side %d: %w", side, ErrInvalidOrder)
	}
	if qty <= 0 || price <= 0 {
		return fmt.Errorf("qty %d price %d: %w", qty, price, ErrInvalidOrder)
	}
	b, err := s.bookFor(symbol)
	if err != nil {
		return err
	}
	trades, err := b.Modify(orderID, side, price, qty)
	if err != nil {
		return err
	}
	s.recordTrades(trades)
	metrics.OrdersModifiedTotal.Inc()
	s.log.Debugw("order_modified",
		"order_id", orderID,
		"symbol", symbol,
		"side", side.String(),
		"price", price,
		"qty", qty,
		"trades", len(trades))
	return nil
}

// OrderStatus returns the current status of an order on the symbol's book.
func (s *System) OrderStatus(symbol, orderID string) (orderbook.Status, error) {
	b, err := s.bookFor(symbol)
	if err != nil {
		return 0, err
	}
	return b.Status(orderID)
}

// Snapshot returns the symbol's per-level depth, best price first on both
// sides. A symbol with no book yields an empty snapshot.
func (s *System) Snapshot(symbol string) BookSnapshot {
	b, err := s.bookFor(symbol)
	if err != nil {
		return BookSnapshot{Symbol: symbol}
	}
	bids, asks := b.Snapshot()
	return BookSnapshot{Symbol: b.Symbol(), Bids: bids, Asks: asks}
}

// TotalTrades returns the number of trades across all symbols.
func (s *System) TotalTrades() int {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	return len(s.ledger)
}

// TotalTradeQuantity returns the summed quantity across all trades.
func (s *System) TotalTradeQuantity() int64 {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	var qty int64
	for _, t := range s.ledger {
		qty += t.Qty
	}
	return qty
}

// Trades returns a copy of the global ledger.
func (s *System) Trades() []orderbook.Trade {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()
	out := make([]orderbook.Trade, len(s.ledger))
	copy(out, s.ledger)
	return out
}

func (s *System) recordTrades(trades []orderbook.Trade) {
	if len(trades) == 0 {
		return
	}
	var qty int64
	for _, t := range trades {
		qty += t.Qty
	}

	s.ledgerMu.Lock()
	s.ledger = append(s.ledger, trades...)
	s.ledgerMu.Unlock()

	metrics.TradesExecutedTotal.Add(float64(len(trades)))
	metrics.TradeQtyTotal.Add(float64(qty))
}

// bookFor looks up an existing book.
func (s *System) bookFor(symbol string) (*orderbook.Book, error) {
	s.booksMu.RLock()
	defer s.booksMu.RUnlock()
	b, ok := s.books[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrSymbolNotFound)
	}
	return b, nil
}

// book gets or atomically creates the symbol's book. The double-checked
// write lock closes the create race when two users place the first order for
// a symbol at the same time.
func (s *System) book(symbol string) *orderbook.Book {
	s.booksMu.RLock()
	b, ok := s.books[symbol]
	s.booksMu.RUnlock()
	if ok {
		return b
	}

	s.booksMu.Lock()
	defer s.booksMu.Unlock()
	if b, ok := s.books[symbol]; ok {
		return b
	}
	b = orderbook.NewBook(symbol, orderbook.WithClock(s.clock))
	s.books[symbol] = b
	s.log.Infow("book_created", "symbol", symbol)
	return b
}
