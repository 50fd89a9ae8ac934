package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/types"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func closeBar(ticker string, d int, close float64) types.PriceBar {
	p := decimal.NewFromFloat(close)
	return types.PriceBar{Ticker: ticker, Date: day(d), Open: p, High: p, Low: p, Close: p}
}

func TestAsOfNeverReturnsFutureBar(t *testing.T) {
	h := NewHistory([]types.PriceBar{
		closeBar("AAPL", 4, 101),
		closeBar("AAPL", 1, 100), // intentionally out of order
		closeBar("AAPL", 8, 103),
	})

	// Query dates before, on, and between bar dates, plus a date with only
	// future bars. The future bar on day 8 must never leak out.
	bar, ok := h.AsOf("AAPL", day(5))
	require.True(t, ok)
	assert.Equal(t, day(4), bar.Date)

	bar, ok = h.AsOf("AAPL", day(4))
	require.True(t, ok)
	assert.Equal(t, day(4), bar.Date)

	_, ok = h.AsOf("AAPL", day(1).AddDate(0, 0, -1))
	assert.False(t, ok, "query before first bar must miss")

	bar, ok = h.AsOf("AAPL", day(28))
	require.True(t, ok)
	assert.Equal(t, day(8), bar.Date)

	_, ok = h.AsOf("MSFT", day(5))
	assert.False(t, ok)
}

func TestBarsThroughExcludesFuture(t *testing.T) {
	h := NewHistory([]types.PriceBar{
		closeBar("AAPL", 1, 100),
		closeBar("AAPL", 4, 101),
		closeBar("AAPL", 8, 103),
	})

	bars := h.BarsThrough("AAPL", day(4))
	require.Len(t, bars, 2)
	for _, bar := range bars {
		assert.False(t, bar.Date.After(day(4)))
	}
	assert.Empty(t, h.BarsThrough("AAPL", day(1).AddDate(0, 0, -1)))
}

func TestWindowTrailing(t *testing.T) {
	h := NewHistory([]types.PriceBar{
		closeBar("AAPL", 1, 100),
		closeBar("AAPL", 2, 101),
		closeBar("AAPL", 3, 102),
		closeBar("AAPL", 4, 103),
	})

	w := h.Window("AAPL", day(4), 2)
	require.Len(t, w, 2)
	assert.Equal(t, day(3), w[0].Date)
	assert.Equal(t, day(4), w[1].Date)

	// Shorter series than requested window.
	assert.Len(t, h.Window("AAPL", day(2), 10), 2)
}

func TestTradingDaysUnion(t *testing.T) {
	h := NewHistory([]types.PriceBar{
		closeBar("AAPL", 1, 100),
		closeBar("AAPL", 3, 101),
		closeBar("MSFT", 2, 200),
		closeBar("MSFT", 3, 201),
	})

	days := h.TradingDays()
	require.Len(t, days, 3)
	assert.Equal(t, []time.Time{day(1), day(2), day(3)}, days)
	assert.Equal(t, []string{"AAPL", "MSFT"}, h.Tickers())
}
