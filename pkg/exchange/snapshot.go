package exchange

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ketanwani/Trading-System/pkg/exchange/orderbook"
)

// BookSnapshot is a point-in-time view of one symbol's depth. Bids are
// ordered by descending price, asks by ascending price, so the best price
// leads both sides.
type BookSnapshot struct {
	Symbol string
	Bids   []orderbook.LevelSnapshot
	Asks   []orderbook.LevelSnapshot
}

// Render formats the snapshot for console reporting, converting integer tick
// prices to human units with the given tick size.
func (bs BookSnapshot) Render(tickSize decimal.Decimal) string {
	var sb strings.Builder
	sb.WriteString("--------------------------\n")

	fmt.Fprintf(&sb, "Buy book for %s:\n", bs.Symbol)
	for _, lvl := range bs.Bids {
		fmt.Fprintf(&sb, "  price: %s, total volume: %d\n",
			decimal.NewFromInt(lvl.Price).Mul(tickSize), lvl.TotalQty)
	}

	fmt.Fprintf(&sb, "\nSell book for %s:\n", bs.Symbol)
	for _, lvl := range bs.Asks {
		fmt.Fprintf(&sb, "  price: %s, total volume: %d\n",
			decimal.NewFromInt(lvl.Price).Mul(tickSize), lvl.TotalQty)
	}

	sb.WriteString("--------------------------")
	return sb.String()
}
