package indicators

import (
	"math"

	"github.com/shopspring/decimal"

	"tradesim/types"
)

// DefaultATRWindow is the trailing window used when no explicit window is configured.
const DefaultATRWindow = 14

// tradingDaysPerYear is the annualization base for daily return series.
const tradingDaysPerYear = 252

// TrueRange returns the true range of cur given the previous bar:
// max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(cur, prev types.PriceBar) decimal.Decimal {
	highLow := cur.High.Sub(cur.Low)
	highClose := cur.High.Sub(prev.Close).Abs()
	lowClose := cur.Low.Sub(prev.Close).Abs()
	return decimal.Max(highLow, highClose, lowClose)
}

// ATR computes the Average True Range over the trailing window bars as the
// arithmetic mean of per-bar true ranges. The first bar of the input has no
// previous close, so its true range is high-low. Returns zero when fewer
// than window bars are available; callers are expected to fall back to a
// percentage-of-price estimate.
func ATR(bars []types.PriceBar, window int) decimal.Decimal {
	if window <= 0 || len(bars) < window {
		return decimal.Zero
	}

	trueRanges := make([]decimal.Decimal, 0, len(bars))
	for i, bar := range bars {
		if i == 0 {
			trueRanges = append(trueRanges, bar.High.Sub(bar.Low))
			continue
		}
		trueRanges = append(trueRanges, TrueRange(bar, bars[i-1]))
	}

	trailing := trueRanges[len(trueRanges)-window:]
	return decimal.Avg(trailing[0], trailing[1:]...)
}

// RealizedVolatility computes the annualized standard deviation of daily
// close-to-close returns. Returns zero when fewer than two bars are
// available or all closes are flat.
func RealizedVolatility(bars []types.PriceBar) float64 {
	if len(bars) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev.IsZero() {
			returns = append(returns, 0)
			continue
		}
		r, _ := bars[i].Close.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}

	return stdev(returns) * math.Sqrt(tradingDaysPerYear)
}

func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
