package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceBar is one day of OHLCV data for a single ticker.
// Bars are immutable once recorded and ordered by date.
type PriceBar struct {
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}
