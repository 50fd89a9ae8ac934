package engine

import (
	"time"

	"tradesim/types"
)

// MarketData supplies preloaded daily bars. Implementations must never
// return a bar dated after the query date.
type MarketData interface {
	// AsOf returns the latest bar for ticker with date <= the given date.
	AsOf(ticker string, date time.Time) (types.PriceBar, bool)
	// Window returns the trailing n bars for ticker as of date.
	Window(ticker string, date time.Time, n int) []types.PriceBar
	// TradingDays returns the sorted union of all bar dates.
	TradingDays() []time.Time
}

// SignalProvider produces a trading decision per ticker per day. It must be
// evaluable using only information available as of asOf.
type SignalProvider interface {
	Evaluate(ticker string, asOf time.Time) (types.SignalDecision, error)
}
