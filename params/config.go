package params

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Exchange struct {
	Symbol   string
	TickSize decimal.Decimal // human price units per tick, e.g. 0.01
	LogLevel string
	LogFile  string // optional file tee for logs; empty disables
}

type Load struct {
	Users         int
	OrdersPerUser int
	BasePrice     int64 // ticks; per-order prices fan out from here
	BaseQty       int64 // lots
}

type Config struct {
	Exchange Exchange
	Load     Load
}

func Default() Config {
	return Config{
		Exchange: Exchange{
			Symbol:   "AAPL",
			TickSize: decimal.NewFromInt(1),
			LogLevel: "info",
		},
		Load: Load{
			Users:         100,
			OrdersPerUser: 100,
			BasePrice:     100,
			BaseQty:       10,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if symbol := os.Getenv("EXCHANGE_SYMBOL"); symbol != "" {
		cfg.Exchange.Symbol = symbol
	}
	if tick := os.Getenv("EXCHANGE_TICK_SIZE"); tick != "" {
		if d, err := decimal.NewFromString(tick); err == nil && d.IsPositive() {
			cfg.Exchange.TickSize = d
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Exchange.LogLevel = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.Exchange.LogFile = file
	}

	if users := os.Getenv("LOAD_USERS"); users != "" {
		if n, err := strconv.Atoi(users); err == nil && n > 0 {
			cfg.Load.Users = n
		}
	}
	if orders := os.Getenv("LOAD_ORDERS_PER_USER"); orders != "" {
		if n, err := strconv.Atoi(orders); err == nil && n > 0 {
			cfg.Load.OrdersPerUser = n
		}
	}
	if price := os.Getenv("LOAD_BASE_PRICE"); price != "" {
		if ticks, err := cfg.PriceTicks(price); err == nil {
			cfg.Load.BasePrice = ticks
		}
	}
	if qty := os.Getenv("LOAD_BASE_QTY"); qty != "" {
		if n, err := strconv.ParseInt(qty, 10, 64); err == nil && n > 0 {
			cfg.Load.BaseQty = n
		}
	}

	return cfg
}

// PriceTicks converts a human price string ("99.50") to integer ticks using
// the configured tick size. The price must be a whole multiple of the tick.
func (c Config) PriceTicks(price string) (int64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", price, err)
	}
	ticks := d.Div(c.Exchange.TickSize)
	if !ticks.IsInteger() {
		return 0, fmt.Errorf("price %s is not a multiple of tick size %s", d, c.Exchange.TickSize)
	}
	return ticks.IntPart(), nil
}
