package types

import (
	"github.com/shopspring/decimal"
)

// Position is an open long holding. Shares is always > 0 while the
// position exists; the ledger removes the position when it reaches zero.
type Position struct {
	Ticker       string
	Shares       int64
	AvgCost      decimal.Decimal
	CurrentPrice decimal.Decimal
}

// MarketValue returns Shares * CurrentPrice.
func (p Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Shares))
}

// UnrealizedPnL returns Shares * (CurrentPrice - AvgCost).
func (p Position) UnrealizedPnL() decimal.Decimal {
	return p.CurrentPrice.Sub(p.AvgCost).Mul(decimal.NewFromInt(p.Shares))
}

// StopLevels are the exit prices fixed at entry time for a position.
// They are never recomputed while the position is open.
type StopLevels struct {
	Ticker     string
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// RewardRisk returns the take-profit distance divided by the stop-loss
// distance from the given entry price, or zero when the stop distance is zero.
func (s StopLevels) RewardRisk(entry decimal.Decimal) decimal.Decimal {
	risk := entry.Sub(s.StopLoss)
	if risk.IsZero() {
		return decimal.Zero
	}
	return s.TakeProfit.Sub(entry).Div(risk)
}
