// Package metrics turns a finished value series and trade log into
// standardized performance statistics. It never mutates its inputs and
// resolves numerically degenerate cases to 0 or +Inf instead of failing.
package metrics

import (
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"tradesim/types"
)

// tradingDaysPerYear is the annualization convention for daily series.
const tradingDaysPerYear = 252.0

// Compute derives the full summary from the recorded daily snapshots and
// the transaction log. riskFreeRate is annual (e.g. 0.04) and doubles as
// the Sortino target return.
func Compute(history []types.DailySnapshot, transactions []types.Transaction, riskFreeRate float64) types.MetricsSummary {
	values := make([]float64, 0, len(history))
	for _, snap := range history {
		v, _ := snap.PortfolioValue.Float64()
		values = append(values, v)
	}

	var summary types.MetricsSummary
	summary.Trading = tradingMetrics(transactions)
	if len(values) < 2 {
		return summary
	}

	returns := dailyReturns(values)
	totalReturn := 0.0
	if values[0] != 0 {
		totalReturn = (values[len(values)-1] - values[0]) / values[0]
	}
	days := float64(len(values) - 1)
	annualized := math.Pow(1+totalReturn, tradingDaysPerYear/days) - 1

	maxDD, peak, trough := maxDrawdown(values)

	summary.Returns = types.ReturnMetrics{
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualized,
	}
	summary.Risk = types.RiskMetrics{
		Volatility:     stdev(returns) * math.Sqrt(tradingDaysPerYear),
		MaxDrawdown:    maxDD,
		DrawdownPeak:   peak,
		DrawdownTrough: trough,
	}
	summary.RiskAdjusted = types.RiskAdjustedMetrics{
		Sharpe:         sharpe(returns, riskFreeRate),
		Sortino:        sortino(returns, riskFreeRate),
		Calmar:         ratioOverDrawdown(annualized, maxDD),
		RecoveryFactor: ratioOverDrawdown(totalReturn, maxDD),
	}
	summary.Statistics = types.DistributionMetrics{
		Skewness: skewness(returns),
		Kurtosis: kurtosis(returns),
	}
	return summary
}

// WriteYAML renders the summary as YAML, section by section.
func WriteYAML(w io.Writer, summary types.MetricsSummary) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(summary)
}

func dailyReturns(values []float64) []float64 {
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}
	return returns
}

// maxDrawdown returns the most negative decline from the running peak plus
// the indexes of the peak preceding the trough and the trough itself.
func maxDrawdown(values []float64) (float64, int, int) {
	peakValue := values[0]
	peakIdx := 0
	maxDD := 0.0
	ddPeak, ddTrough := 0, 0

	for i, v := range values {
		if v > peakValue {
			peakValue = v
			peakIdx = i
		}
		if peakValue == 0 {
			continue
		}
		dd := (v - peakValue) / peakValue
		if dd < maxDD {
			maxDD = dd
			ddPeak = peakIdx
			ddTrough = i
		}
	}
	return maxDD, ddPeak, ddTrough
}

func sharpe(returns []float64, riskFreeRate float64) float64 {
	sd := stdev(returns)
	if sd == 0 {
		return 0
	}
	excess := mean(returns) - riskFreeRate/tradingDaysPerYear
	return excess / sd * math.Sqrt(tradingDaysPerYear)
}

// sortino uses the same numerator as sharpe but only penalizes returns
// below the daily target.
func sortino(returns []float64, target float64) float64 {
	downside := make([]float64, len(returns))
	for i, r := range returns {
		downside[i] = math.Min(r-target/tradingDaysPerYear, 0)
	}
	sd := stdev(downside)
	if sd == 0 {
		return 0
	}
	excess := mean(returns) - target/tradingDaysPerYear
	return excess / sd * math.Sqrt(tradingDaysPerYear)
}

// ratioOverDrawdown implements the Calmar/recovery-factor convention:
// +Inf for a positive numerator with zero drawdown, 0 otherwise.
func ratioOverDrawdown(numerator, maxDD float64) float64 {
	dd := math.Abs(maxDD)
	if dd == 0 {
		if numerator > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return numerator / dd
}

func tradingMetrics(transactions []types.Transaction) types.TradingMetrics {
	var out types.TradingMetrics

	grossProfit, grossLoss := 0.0, 0.0
	sumWins, sumLosses := 0.0, 0.0
	winStreak, lossStreak := 0, 0

	for _, tx := range transactions {
		if tx.Side != types.SideTypeSell {
			continue
		}
		out.TotalTrades++
		pnl, _ := tx.RealizedPnL.Float64()

		switch {
		case pnl > 0:
			out.WinningTrades++
			grossProfit += pnl
			sumWins += pnl
			winStreak++
			lossStreak = 0
		case pnl < 0:
			out.LosingTrades++
			grossLoss += -pnl
			sumLosses += -pnl
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > out.ConsecutiveWins {
			out.ConsecutiveWins = winStreak
		}
		if lossStreak > out.ConsecutiveLosses {
			out.ConsecutiveLosses = lossStreak
		}
	}

	if out.TotalTrades == 0 {
		return out
	}

	out.WinRate = float64(out.WinningTrades) / float64(out.TotalTrades)
	if out.WinningTrades > 0 {
		out.AvgWin = sumWins / float64(out.WinningTrades)
	}
	if out.LosingTrades > 0 {
		out.AvgLoss = sumLosses / float64(out.LosingTrades)
	}
	out.Expectancy = out.WinRate*out.AvgWin - (1-out.WinRate)*out.AvgLoss

	switch {
	case grossLoss > 0:
		out.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		out.ProfitFactor = math.Inf(1)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func skewness(xs []float64) float64 {
	sd := stdev(xs)
	if sd == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		z := (x - m) / sd
		sum += z * z * z
	}
	return sum / float64(len(xs))
}

// kurtosis returns excess kurtosis (normal distribution -> 0).
func kurtosis(xs []float64) float64 {
	sd := stdev(xs)
	if sd == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		z := (x - m) / sd
		sum += z * z * z * z
	}
	return sum/float64(len(xs)) - 3
}
