package main

import (
	"fmt"
	"log"

	"github.com/ketanwani/Trading-System/params"
	"github.com/ketanwani/Trading-System/pkg/exchange"
	"github.com/ketanwani/Trading-System/pkg/exchange/orderbook"
	"github.com/ketanwani/Trading-System/pkg/util"
)

// Walks the trading system through a small scripted session on one symbol:
// resting orders, a partial match, and two modifies (one repositioning, one
// crossing), printing the book after each step.
func main() {
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLogger(cfg.Exchange.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	sys := exchange.NewSystem(sugar)
	symbol := "AMZN"

	alice := sys.RegisterUser("Alice", "5550100", "alice@example.com")
	bob := sys.RegisterUser("Bob", "5550101", "bob@example.com")

	printBook := func() {
		fmt.Println(sys.Snapshot(symbol).Render(cfg.Exchange.TickSize))
	}

	mustPlace := func(userID string, side orderbook.Side, qty, price int64) string {
		id, err := sys.PlaceOrder(userID, side, symbol, qty, price)
		if err != nil {
			sugar.Fatalw("place_order_failed", "err", err)
		}
		return id
	}

	mustPlace(alice, orderbook.Buy, 10, 100)
	order2 := mustPlace(bob, orderbook.Sell, 11, 99)
	printBook()

	mustPlace(alice, orderbook.Buy, 10, 98)
	order4 := mustPlace(bob, orderbook.Sell, 10, 100)
	printBook()

	// Reprice the resting sell down to the standing bid: it crosses and fills.
	if err := sys.ModifyOrder(symbol, order4, orderbook.Sell, 98, 10); err != nil {
		sugar.Fatalw("modify_order_failed", "order_id", order4, "err", err)
	}
	printBook()

	// Flip the leftover sell to a tiny bid.
	if err := sys.ModifyOrder(symbol, order2, orderbook.Buy, 98, 1); err != nil {
		sugar.Fatalw("modify_order_failed", "order_id", order2, "err", err)
	}
	printBook()

	sugar.Infow("session_complete",
		"total_trades", sys.TotalTrades(),
		"total_traded_qty", sys.TotalTradeQuantity())
}
