package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	OrdersPlacedTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_placed_total", Help: "Orders accepted by the trading system"})
	OrdersRejectedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_rejected_total", Help: "Orders rejected before entering a book"})
	OrdersCancelledTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_cancelled_total", Help: "Orders cancelled by their owner"})
	OrdersModifiedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_modified_total", Help: "Orders modified in place or repositioned"})
	OrdersExpiredTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "orders_expired_total", Help: "Resting orders discarded on lazy TTL expiry"})
	TradesExecutedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "trades_executed_total", Help: "Trades generated by matching"})
	TradeQtyTotal        = prometheus.NewCounter(prometheus.CounterOpts{Name: "trade_qty_total", Help: "Total quantity across all trades"})
)

// Init registers all engine collectors on a fresh registry and returns it.
func Init(logger *zap.SugaredLogger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		OrdersPlacedTotal, OrdersRejectedTotal, OrdersCancelledTotal,
		OrdersModifiedTotal, OrdersExpiredTotal,
		TradesExecutedTotal, TradeQtyTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info("metrics initialized")
	return reg
}
