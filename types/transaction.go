package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideTypeBuy  Side = "BUY"
	SideTypeSell Side = "SELL"
)

// Transaction is one executed fill. The log is append-only; a record is
// never mutated after creation. RealizedPnL is only set on SELL records.
type Transaction struct {
	ID          string
	Date        time.Time
	Ticker      string
	Side        Side
	Shares      int64
	Price       decimal.Decimal
	Total       decimal.Decimal
	RealizedPnL decimal.Decimal
}
