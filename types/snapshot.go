package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailySnapshot records end-of-day portfolio state. One is appended per
// simulated day, ordered by date.
type DailySnapshot struct {
	Date           time.Time
	Cash           decimal.Decimal
	PositionsValue decimal.Decimal
	PortfolioValue decimal.Decimal
	TotalPnL       decimal.Decimal
	TotalPnLPct    decimal.Decimal
}
