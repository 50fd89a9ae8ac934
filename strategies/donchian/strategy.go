// Package donchian implements a Donchian channel breakout signal provider.
// A BUY is emitted when a close breaks above the highest high of the
// preceding entry window; a SELL when it breaks below the lowest low of the
// preceding exit window. The current bar is excluded from both channels.
package donchian

import (
	"time"

	"github.com/shopspring/decimal"

	"tradesim/internal/marketdata"
	"tradesim/types"
)

const (
	DefaultEntryWindow = 20
	DefaultExitWindow  = 10
)

type Provider struct {
	data        *marketdata.History
	entryWindow int
	exitWindow  int
}

// New returns a breakout provider over the given history. Non-positive
// windows fall back to the defaults.
func New(data *marketdata.History, entryWindow, exitWindow int) *Provider {
	if entryWindow <= 0 {
		entryWindow = DefaultEntryWindow
	}
	if exitWindow <= 0 {
		exitWindow = DefaultExitWindow
	}
	return &Provider{data: data, entryWindow: entryWindow, exitWindow: exitWindow}
}

// Evaluate emits a decision for ticker using only bars dated <= asOf.
// Until the entry window has filled, the answer is HOLD.
func (p *Provider) Evaluate(ticker string, asOf time.Time) (types.SignalDecision, error) {
	bars := p.data.Window(ticker, asOf, p.entryWindow+1)
	if len(bars) < p.entryWindow+1 {
		return hold(ticker), nil
	}

	cur := bars[len(bars)-1]
	prior := bars[:len(bars)-1]

	upper := channelHigh(prior)
	lower := channelLow(prior[len(prior)-min(p.exitWindow, len(prior)):])

	switch {
	case cur.Close.GreaterThan(upper):
		return types.SignalDecision{
			Ticker:   ticker,
			Action:   types.ActionBuy,
			Price:    cur.Close,
			Strength: breakoutStrength(cur.Close, upper),
		}, nil
	case cur.Close.LessThan(lower):
		return types.SignalDecision{
			Ticker:   ticker,
			Action:   types.ActionSell,
			Price:    cur.Close,
			Strength: breakoutStrength(lower, cur.Close),
		}, nil
	}
	return hold(ticker), nil
}

func hold(ticker string) types.SignalDecision {
	return types.SignalDecision{Ticker: ticker, Action: types.ActionHold}
}

func channelHigh(bars []types.PriceBar) decimal.Decimal {
	high := bars[0].High
	for _, bar := range bars[1:] {
		if bar.High.GreaterThan(high) {
			high = bar.High
		}
	}
	return high
}

func channelLow(bars []types.PriceBar) decimal.Decimal {
	low := bars[0].Low
	for _, bar := range bars[1:] {
		if bar.Low.LessThan(low) {
			low = bar.Low
		}
	}
	return low
}

// breakoutStrength measures how far the close cleared the channel bound,
// as a fraction of the bound. Capped at 1 so sizing heuristics stay sane.
func breakoutStrength(above, bound decimal.Decimal) float64 {
	if !bound.IsPositive() {
		return 1
	}
	s, _ := above.Sub(bound).Div(bound).Float64()
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
