package marketdata

import (
	"sort"
	"time"

	"tradesim/types"
)

// History is an immutable in-memory store of daily bars, batch-loaded
// before a simulation starts. All lookups are "as-of": a query for date d
// can never observe a bar dated after d.
type History struct {
	bars map[string][]types.PriceBar
}

// NewHistory indexes bars per ticker and sorts each series by date.
func NewHistory(bars []types.PriceBar) *History {
	byTicker := make(map[string][]types.PriceBar)
	for _, bar := range bars {
		byTicker[bar.Ticker] = append(byTicker[bar.Ticker], bar)
	}
	for _, series := range byTicker {
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	}
	return &History{bars: byTicker}
}

// Tickers returns all known tickers, sorted.
func (h *History) Tickers() []string {
	out := make([]string, 0, len(h.bars))
	for ticker := range h.bars {
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// TradingDays returns the sorted union of bar dates across all tickers.
// The simulation loop iterates this calendar strictly ascending.
func (h *History) TradingDays() []time.Time {
	seen := make(map[time.Time]struct{})
	for _, series := range h.bars {
		for _, bar := range series {
			seen[bar.Date] = struct{}{}
		}
	}
	out := make([]time.Time, 0, len(seen))
	for date := range seen {
		out = append(out, date)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// AsOf returns the latest bar for ticker with Date <= date. The second
// return is false when no such bar exists.
func (h *History) AsOf(ticker string, date time.Time) (types.PriceBar, bool) {
	series := h.bars[ticker]
	i := sort.Search(len(series), func(i int) bool { return series[i].Date.After(date) })
	if i == 0 {
		return types.PriceBar{}, false
	}
	return series[i-1], true
}

// BarsThrough returns every bar for ticker with Date <= date, oldest first.
// The returned slice shares backing storage and must not be mutated.
func (h *History) BarsThrough(ticker string, date time.Time) []types.PriceBar {
	series := h.bars[ticker]
	i := sort.Search(len(series), func(i int) bool { return series[i].Date.After(date) })
	return series[:i]
}

// Window returns the trailing n bars as of date, or fewer when the series
// is shorter.
func (h *History) Window(ticker string, date time.Time, n int) []types.PriceBar {
	through := h.BarsThrough(ticker, date)
	if n <= 0 || len(through) <= n {
		return through
	}
	return through[len(through)-n:]
}
