package risk

import (
	"github.com/shopspring/decimal"
)

// fallbackStopPct is the stop-distance estimate of last resort: 5% of the
// entry price, used when neither ATR nor realized volatility is available.
var fallbackStopPct = decimal.RequireFromString("0.05")

// Manager turns an entry price, a volatility measure and a risk budget into
// a position size and fixed exit levels. It holds no per-position state.
type Manager struct {
	maxRiskPerTrade decimal.Decimal
	maxAllocation   decimal.Decimal
	horizon         Horizon
	rules           RuleTable
}

func NewManager(maxRiskPerTrade, maxAllocation decimal.Decimal, horizon Horizon, rules RuleTable) *Manager {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Manager{
		maxRiskPerTrade: maxRiskPerTrade,
		maxAllocation:   maxAllocation,
		horizon:         horizon,
		rules:           rules,
	}
}

// StopDistance resolves the per-share risk for an entry: ATR scaled by the
// matched rule's stop multiplier, falling back to entry*volatility and
// finally entry*5% when no volatility measure is usable.
func (m *Manager) StopDistance(ticker string, entryPrice, atr decimal.Decimal, volatility float64) decimal.Decimal {
	rule := m.rules.Match(ticker, volatility)
	if atr.IsPositive() {
		return atr.Mul(rule.multipliers(m.horizon).StopLoss)
	}
	if volatility > 0 {
		return entryPrice.Mul(decimal.NewFromFloat(volatility))
	}
	return entryPrice.Mul(fallbackStopPct)
}

// PositionSize computes how many shares to buy.
//
// The risk budget is accountValue*maxRiskPerTrade; shares are capped so the
// position never exceeds accountValue*maxAllocation. The result is at least
// one share when both bounds allow any, and zero for a non-positive entry
// price.
func (m *Manager) PositionSize(ticker string, accountValue, entryPrice, atr decimal.Decimal, volatility float64) int64 {
	if !entryPrice.IsPositive() {
		return 0
	}

	stopDistance := m.StopDistance(ticker, entryPrice, atr, volatility)
	if !stopDistance.IsPositive() {
		return 0
	}

	budget := accountValue.Mul(m.maxRiskPerTrade)
	riskShares := budget.Div(stopDistance).IntPart()
	capShares := accountValue.Mul(m.maxAllocation).Div(entryPrice).IntPart()

	size := riskShares
	if capShares < size {
		size = capShares
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Levels fixes the stop-loss and take-profit prices for a new position.
// With a usable ATR both are multiples of it below/above entry; otherwise
// the matched rule's percentage targets apply.
func (m *Manager) Levels(ticker string, entryPrice, atr decimal.Decimal, volatility float64) (decimal.Decimal, decimal.Decimal) {
	rule := m.rules.Match(ticker, volatility)

	if atr.IsPositive() {
		mult := rule.multipliers(m.horizon)
		stop := entryPrice.Sub(atr.Mul(mult.StopLoss))
		target := entryPrice.Add(atr.Mul(mult.TakeProfit))
		return stop, target
	}

	stop := entryPrice.Mul(decimal.NewFromInt(1).Sub(rule.StopPct))
	target := entryPrice.Mul(decimal.NewFromInt(1).Add(rule.TargetPct))
	return stop, target
}

// Category reports which rule the ticker resolves to, mainly for logging.
func (m *Manager) Category(ticker string, volatility float64) string {
	return m.rules.Match(ticker, volatility).Category
}

// CheckStopLoss reports whether the position must exit at the stop.
func CheckStopLoss(currentPrice, stopLoss decimal.Decimal) bool {
	return currentPrice.LessThanOrEqual(stopLoss)
}

// CheckTakeProfit reports whether the position must exit at the target.
func CheckTakeProfit(currentPrice, takeProfit decimal.Decimal) bool {
	return currentPrice.GreaterThanOrEqual(takeProfit)
}
