package main

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ketanwani/Trading-System/params"
	"github.com/ketanwani/Trading-System/pkg/exchange"
	"github.com/ketanwani/Trading-System/pkg/exchange/orderbook"
	"github.com/ketanwani/Trading-System/pkg/metrics"
	"github.com/ketanwani/Trading-System/pkg/util"
)

// Drives the engine from many concurrent users against a single symbol, then
// reports ledger totals and engine counters.
func main() {
	cfg := params.LoadFromEnv("")

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	reg := metrics.Init(sugar)
	sys := exchange.NewSystem(sugar)
	symbol := cfg.Exchange.Symbol

	users := make([]string, cfg.Load.Users)
	for i := range users {
		users[i] = sys.RegisterUser(
			fmt.Sprintf("user_%d", i+1),
			fmt.Sprintf("90000000%02d", i%100),
			fmt.Sprintf("user_%d@example.com", i+1),
		)
	}

	sugar.Infow("load_starting",
		"symbol", symbol,
		"users", cfg.Load.Users,
		"orders_per_user", cfg.Load.OrdersPerUser)

	start := time.Now()
	var g errgroup.Group
	for _, userID := range users {
		userID := userID
		side := orderbook.Buy
		if rand.Intn(2) == 0 {
			side = orderbook.Sell
		}
		g.Go(func() error {
			for i := 0; i < cfg.Load.OrdersPerUser; i++ {
				price := cfg.Load.BasePrice + int64(i)
				qty := cfg.Load.BaseQty + int64(i)
				if _, err := sys.PlaceOrder(userID, side, symbol, qty, price); err != nil {
					return fmt.Errorf("user %s order %d: %w", userID, i, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		sugar.Fatalw("load_failed", "err", err)
	}
	elapsed := time.Since(start)

	fmt.Println(sys.Snapshot(symbol).Render(cfg.Exchange.TickSize))

	sugar.Infow("load_complete",
		"total_trades", sys.TotalTrades(),
		"total_traded_qty", sys.TotalTradeQuantity(),
		"elapsed", elapsed)

	// Dump engine counters gathered from the local registry.
	families, err := reg.Gather()
	if err != nil {
		sugar.Fatalw("metrics_gather_failed", "err", err)
	}
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "go_") || strings.HasPrefix(mf.GetName(), "process_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				sugar.Infow("counter", "name", mf.GetName(), "value", c.GetValue())
			}
		}
	}
}

func newLogger(cfg params.Config) (*zap.Logger, error) {
	if cfg.Exchange.LogFile != "" {
		return util.NewLoggerWithFile(cfg.Exchange.LogFile, cfg.Exchange.LogLevel)
	}
	return util.NewLogger(cfg.Exchange.LogLevel)
}
