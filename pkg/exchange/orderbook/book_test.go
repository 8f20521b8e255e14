package orderbook_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ketanwani/Trading-System/pkg/exchange/orderbook"
)

// manualClock lets tests move time forward explicitly.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func place(t *testing.T, b *orderbook.Book, clk *manualClock, side orderbook.Side, qty, price int64) (*orderbook.Order, []orderbook.Trade) {
	t.Helper()
	o := orderbook.NewOrder("user-1", side, "AAPL", qty, price, clk.Now())
	trades, err := b.Add(o)
	require.NoError(t, err)
	return o, trades
}

func TestRestingBuyOrder(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	o, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	assert.Empty(t, trades)

	bids, asks := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Empty(t, asks)
	assert.Equal(t, int64(100), bids[0].Price)
	assert.Equal(t, int64(10), bids[0].TotalQty)

	st, err := b.Status(o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.Accepted, st)
}

func TestFIFOWithinLevel(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	sellA, _ := place(t, b, clk, orderbook.Sell, 10, 100)
	sellB, _ := place(t, b, clk, orderbook.Sell, 10, 100)

	_, trades := place(t, b, clk, orderbook.Buy, 15, 100)
	require.Len(t, trades, 2)

	// Older order fills completely before the newer one is touched.
	assert.Equal(t, sellA.ID, trades[0].SellOrderID)
	assert.Equal(t, int64(10), trades[0].Qty)
	assert.Equal(t, sellB.ID, trades[1].SellOrderID)
	assert.Equal(t, int64(5), trades[1].Qty)

	_, asks := b.Snapshot()
	require.Len(t, asks, 1)
	assert.Equal(t, int64(5), asks[0].TotalQty)

	st, err := b.Status(sellB.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.PartiallyFilled, st)

	// The fully filled order is gone from the book.
	_, err = b.Status(sellA.ID)
	assert.ErrorIs(t, err, orderbook.ErrOrderNotFound)
}

func TestPricePriorityAcrossLevels(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	// Worse price arrives first; the better price must still match first.
	sellHigh, _ := place(t, b, clk, orderbook.Sell, 10, 100)
	sellLow, _ := place(t, b, clk, orderbook.Sell, 10, 98)

	_, trades := place(t, b, clk, orderbook.Buy, 15, 102)
	require.Len(t, trades, 2)
	assert.Equal(t, sellLow.ID, trades[0].SellOrderID)
	assert.Equal(t, int64(98), trades[0].Price)
	assert.Equal(t, sellHigh.ID, trades[1].SellOrderID)
	assert.Equal(t, int64(100), trades[1].Price)
}

func TestExecutionAtRestingPrice(t *testing.T) {
	clk := newManualClock()

	t.Run("incoming buy", func(t *testing.T) {
		b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))
		place(t, b, clk, orderbook.Sell, 10, 98)
		_, trades := place(t, b, clk, orderbook.Buy, 10, 100)
		require.Len(t, trades, 1)
		assert.Equal(t, int64(98), trades[0].Price)
	})

	t.Run("incoming sell", func(t *testing.T) {
		b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))
		place(t, b, clk, orderbook.Buy, 10, 100)
		_, trades := place(t, b, clk, orderbook.Sell, 10, 98)
		require.Len(t, trades, 1)
		assert.Equal(t, int64(100), trades[0].Price)
	})
}

func TestPartialFillRests(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	buy, _ := place(t, b, clk, orderbook.Buy, 10, 100)
	_, trades := place(t, b, clk, orderbook.Sell, 4, 100)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(4), trades[0].Qty)

	bids, _ := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Equal(t, int64(6), bids[0].TotalQty)

	st, err := b.Status(buy.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.PartiallyFilled, st)
}

func TestFullyMatchedOrderNeverRests(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	place(t, b, clk, orderbook.Sell, 10, 100)
	buy, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	require.Len(t, trades, 1)

	bids, asks := b.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
	assert.Equal(t, orderbook.Filled, buy.Status)

	_, err := b.Status(buy.ID)
	assert.ErrorIs(t, err, orderbook.ErrOrderNotFound)
}

func TestDuplicateOrderRejected(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	o := orderbook.NewOrder("user-1", orderbook.Buy, "AAPL", 10, 100, clk.Now())
	_, err := b.Add(o)
	require.NoError(t, err)

	_, err = b.Add(o)
	assert.ErrorIs(t, err, orderbook.ErrDuplicateOrder)
}

func TestCancel(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	o, _ := place(t, b, clk, orderbook.Buy, 10, 100)

	require.NoError(t, b.Cancel(o.ID))

	// Last order at the level: the level disappears with it.
	bids, _ := b.Snapshot()
	assert.Empty(t, bids)

	st, err := b.Status(o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderbook.Cancelled, st)

	// Idempotent re-cancel.
	assert.NoError(t, b.Cancel(o.ID))

	// Unknown id.
	assert.ErrorIs(t, b.Cancel("no-such-order"), orderbook.ErrOrderNotFound)
}

func TestCancelLeavesRestOfLevelIntact(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	first, _ := place(t, b, clk, orderbook.Buy, 10, 100)
	place(t, b, clk, orderbook.Buy, 7, 100)

	require.NoError(t, b.Cancel(first.ID))

	bids, _ := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Equal(t, int64(7), bids[0].TotalQty)
}

func TestCancelledOrderDoesNotMatch(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	o, _ := place(t, b, clk, orderbook.Sell, 10, 100)
	require.NoError(t, b.Cancel(o.ID))

	buy, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	assert.Empty(t, trades)
	assert.Equal(t, int64(10), buy.Qty)
}

func TestExpiredOrderDiscardedWithoutTrade(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	stale, _ := place(t, b, clk, orderbook.Sell, 10, 100)
	clk.Advance(orderbook.DefaultTTL + time.Minute)

	buy, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	assert.Empty(t, trades)

	// The incoming order keeps its full quantity and rests.
	assert.Equal(t, int64(10), buy.Qty)
	bids, asks := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Empty(t, asks)

	_, err := b.Status(stale.ID)
	assert.ErrorIs(t, err, orderbook.ErrOrderNotFound)
}

func TestExpiredHeadSkippedFreshOrderMatches(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	place(t, b, clk, orderbook.Sell, 10, 100)
	clk.Advance(orderbook.DefaultTTL + time.Minute)
	fresh, _ := place(t, b, clk, orderbook.Sell, 10, 100)

	_, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	require.Len(t, trades, 1)
	assert.Equal(t, fresh.ID, trades[0].SellOrderID)
	assert.Equal(t, int64(10), trades[0].Qty)

	_, asks := b.Snapshot()
	assert.Empty(t, asks)
}

func TestExpiryHonorsCustomTTL(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk), orderbook.WithTTL(time.Minute))

	place(t, b, clk, orderbook.Sell, 10, 100)
	clk.Advance(2 * time.Minute)

	_, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	assert.Empty(t, trades)
}

func TestModifyQuantityKeepsQueuePosition(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	first, _ := place(t, b, clk, orderbook.Buy, 10, 100)
	place(t, b, clk, orderbook.Buy, 10, 100)

	trades, err := b.Modify(first.ID, orderbook.Buy, 100, 3)
	require.NoError(t, err)
	assert.Empty(t, trades)

	bids, _ := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Equal(t, int64(13), bids[0].TotalQty)

	// Still first in line at its price.
	_, matched := place(t, b, clk, orderbook.Sell, 3, 100)
	require.Len(t, matched, 1)
	assert.Equal(t, first.ID, matched[0].BuyOrderID)
}

func TestModifyPriceLosesQueuePosition(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	first, _ := place(t, b, clk, orderbook.Buy, 10, 100)
	second, _ := place(t, b, clk, orderbook.Buy, 10, 100)

	// Reprice away and back: the order re-queues behind its old peer.
	_, err := b.Modify(first.ID, orderbook.Buy, 99, 10)
	require.NoError(t, err)
	_, err = b.Modify(first.ID, orderbook.Buy, 100, 10)
	require.NoError(t, err)

	_, trades := place(t, b, clk, orderbook.Sell, 10, 100)
	require.Len(t, trades, 1)
	assert.Equal(t, second.ID, trades[0].BuyOrderID)
}

func TestModifyCrossingMatchesLikeFreshOrder(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	place(t, b, clk, orderbook.Sell, 10, 105)
	buy, _ := place(t, b, clk, orderbook.Buy, 10, 100)

	trades, err := b.Modify(buy.ID, orderbook.Buy, 105, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(10), trades[0].Qty)
	assert.Equal(t, int64(105), trades[0].Price)

	bids, asks := b.Snapshot()
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestModifySideRequeues(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	o, _ := place(t, b, clk, orderbook.Sell, 5, 99)

	trades, err := b.Modify(o.ID, orderbook.Buy, 98, 1)
	require.NoError(t, err)
	assert.Empty(t, trades)

	bids, asks := b.Snapshot()
	require.Len(t, bids, 1)
	assert.Empty(t, asks)
	assert.Equal(t, int64(98), bids[0].Price)
	assert.Equal(t, int64(1), bids[0].TotalQty)
}

func TestModifyUnknownOrTerminalOrder(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	_, err := b.Modify("no-such-order", orderbook.Buy, 100, 1)
	assert.ErrorIs(t, err, orderbook.ErrOrderNotFound)

	o, _ := place(t, b, clk, orderbook.Buy, 10, 100)
	require.NoError(t, b.Cancel(o.ID))
	_, err = b.Modify(o.ID, orderbook.Buy, 101, 1)
	assert.ErrorIs(t, err, orderbook.ErrOrderNotFound)
}

func TestSnapshotOrdersBothSidesBestFirst(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	place(t, b, clk, orderbook.Buy, 1, 97)
	place(t, b, clk, orderbook.Buy, 1, 99)
	place(t, b, clk, orderbook.Buy, 1, 98)
	place(t, b, clk, orderbook.Sell, 1, 103)
	place(t, b, clk, orderbook.Sell, 1, 101)
	place(t, b, clk, orderbook.Sell, 1, 102)

	bids, asks := b.Snapshot()
	require.Len(t, bids, 3)
	require.Len(t, asks, 3)
	assert.Equal(t, []int64{99, 98, 97}, []int64{bids[0].Price, bids[1].Price, bids[2].Price})
	assert.Equal(t, []int64{101, 102, 103}, []int64{asks[0].Price, asks[1].Price, asks[2].Price})

	bb, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(99), bb)
	ba, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(101), ba)
}

func TestDepthCountsPopulatedLevels(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	bidLevels, askLevels := b.Depth()
	assert.Zero(t, bidLevels)
	assert.Zero(t, askLevels)

	place(t, b, clk, orderbook.Buy, 1, 98)
	place(t, b, clk, orderbook.Buy, 1, 99)
	place(t, b, clk, orderbook.Buy, 2, 99) // same level, no new depth
	place(t, b, clk, orderbook.Sell, 1, 101)

	bidLevels, askLevels = b.Depth()
	assert.Equal(t, 2, bidLevels)
	assert.Equal(t, 1, askLevels)

	// Filling the lone ask empties its level.
	place(t, b, clk, orderbook.Buy, 1, 101)
	bidLevels, askLevels = b.Depth()
	assert.Equal(t, 2, bidLevels)
	assert.Zero(t, askLevels)
}

func TestNoZeroQuantityTrades(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	place(t, b, clk, orderbook.Sell, 3, 100)
	place(t, b, clk, orderbook.Sell, 7, 100)
	_, trades := place(t, b, clk, orderbook.Buy, 10, 100)
	require.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Positive(t, tr.Qty)
	}
}

func TestCrossedSequenceConservesQuantity(t *testing.T) {
	clk := newManualClock()
	b := orderbook.NewBook("AAPL", orderbook.WithClock(clk))

	var sellTotal int64
	for _, qty := range []int64{5, 8, 2} {
		place(t, b, clk, orderbook.Sell, qty, 100)
		sellTotal += qty
	}

	var traded int64
	var buyTotal int64
	for _, qty := range []int64{7, 20} {
		_, trades := place(t, b, clk, orderbook.Buy, qty, 100)
		buyTotal += qty
		for _, tr := range trades {
			traded += tr.Qty
		}
	}

	assert.Equal(t, min(buyTotal, sellTotal), traded)
}
