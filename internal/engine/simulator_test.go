package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/internal/marketdata"
	"tradesim/types"
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func bar(ticker string, d int, high, low, close float64) types.PriceBar {
	return types.PriceBar{
		Ticker: ticker,
		Date:   day(d),
		Open:   decimal.NewFromFloat(close),
		High:   decimal.NewFromFloat(high),
		Low:    decimal.NewFromFloat(low),
		Close:  decimal.NewFromFloat(close),
	}
}

// scriptedSignals replays fixed decisions per (ticker, date) and defaults
// to HOLD. Tickers listed in fail always return an error.
type scriptedSignals struct {
	actions map[string]map[string]types.Action // ticker -> date -> action
	fail    map[string]error

	seen []time.Time
}

func (s *scriptedSignals) Evaluate(ticker string, asOf time.Time) (types.SignalDecision, error) {
	s.seen = append(s.seen, asOf)
	if err, ok := s.fail[ticker]; ok {
		return types.SignalDecision{}, err
	}
	action := types.ActionHold
	if byDate, ok := s.actions[ticker]; ok {
		if a, ok := byDate[asOf.Format("2006-01-02")]; ok {
			action = a
		}
	}
	return types.SignalDecision{Ticker: ticker, Action: action, Strength: 1}, nil
}

func testConfig() Config {
	return Config{
		InitialCash: decimal.NewFromInt(100000),
		ATRWindow:   2,
		Horizon:     "SHORT_TERM",
	}
}

func TestStopLossScenario(t *testing.T) {
	// Two flat warmup bars give ATR(2)=2 at entry. BUY at 100 with the
	// short-term 1.5 multiplier sets the stop at 97; the close of 95 two
	// days later breaches it.
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 105.5, 104, 105),
		bar("AAPL", 4, 96, 94.5, 95),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"AAPL": {"2024-06-02": types.ActionBuy},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	txs := result.Transactions
	require.Len(t, txs, 2, "expected exactly one BUY and one SELL")

	assert.Equal(t, types.SideTypeBuy, txs[0].Side)
	assert.Equal(t, day(2), txs[0].Date)
	assert.True(t, txs[0].Price.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, types.SideTypeSell, txs[1].Side)
	assert.Equal(t, day(4), txs[1].Date)
	assert.True(t, txs[1].Price.Equal(decimal.NewFromInt(95)))
	assert.True(t, txs[1].RealizedPnL.IsNegative(), "stop-loss exit must realize a loss")

	// Allocation cap: 20% of 100000 at 100/share = 200 shares.
	assert.Equal(t, int64(200), txs[0].Shares)
	assert.True(t, txs[1].RealizedPnL.Equal(decimal.NewFromInt(-1000)))
}

func TestTakeProfitScenario(t *testing.T) {
	// Same entry as above (stop 97, target 106); a close at 107 exits.
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 107.5, 104, 107),
		bar("AAPL", 4, 108, 106, 107),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"AAPL": {"2024-06-02": types.ActionBuy},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	txs := result.Transactions
	require.Len(t, txs, 2)
	assert.Equal(t, day(3), txs[1].Date)
	assert.True(t, txs[1].RealizedPnL.IsPositive())
	assert.Equal(t, 1, result.Summary.Trading.WinningTrades)
}

func TestSellSignalClosesAndStateIsTerminal(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 103, 101, 102),
		bar("AAPL", 4, 103, 101, 102),
		bar("AAPL", 5, 103, 101, 102),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"AAPL": {
			"2024-06-02": types.ActionBuy,
			"2024-06-03": types.ActionSell,
			"2024-06-04": types.ActionBuy, // ignored: CLOSED is terminal
		},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, types.SideTypeSell, result.Transactions[1].Side)
	assert.Equal(t, day(3), result.Transactions[1].Date)
}

func TestForcedLiquidationOnFinalDay(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 103, 101, 102),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"AAPL": {"2024-06-02": types.ActionBuy},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Transactions, 2)
	final := result.Transactions[1]
	assert.Equal(t, types.SideTypeSell, final.Side)
	assert.Equal(t, day(3), final.Date)
	assert.True(t, final.Price.Equal(decimal.NewFromInt(102)))

	// Liquidation at the marked price preserves portfolio value: the final
	// cash equals the last recorded snapshot value.
	last := result.History[len(result.History)-1]
	assert.True(t, result.FinalValue.Equal(last.PortfolioValue))
}

func TestSnapshotInvariantEveryDay(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 105.5, 104, 105),
		bar("MSFT", 2, 201, 199, 200),
		bar("MSFT", 3, 203, 201, 202),
		bar("MSFT", 4, 205, 203, 204),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"AAPL": {"2024-06-02": types.ActionBuy},
		"MSFT": {"2024-06-03": types.ActionBuy},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL", "MSFT"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.History, 4)
	for _, snap := range result.History {
		want := snap.Cash.Add(snap.PositionsValue)
		assert.True(t, snap.PortfolioValue.Equal(want),
			"day %s: value %s != cash+positions %s", snap.Date, snap.PortfolioValue, want)
		assert.False(t, snap.Cash.IsNegative(), "day %s: negative cash", snap.Date)
	}
}

func TestSignalErrorDegradesToHold(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 103, 101, 102),
		bar("BAD", 1, 51, 49, 50),
		bar("BAD", 2, 51, 49, 50),
		bar("BAD", 3, 51, 49, 50),
	})
	signals := &scriptedSignals{
		actions: map[string]map[string]types.Action{
			"AAPL": {"2024-06-02": types.ActionBuy},
		},
		fail: map[string]error{"BAD": errors.New("provider unavailable")},
	}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL", "BAD"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	// The failing ticker never trades; the healthy one is unaffected.
	for _, tx := range result.Transactions {
		assert.Equal(t, "AAPL", tx.Ticker)
	}
	require.Len(t, result.History, 3)
}

func TestMissingBarsSkipTickerForDay(t *testing.T) {
	// MSFT has no bar until day 3; its BUY signal on day 2 cannot execute
	// because there is no resolvable price yet.
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 103, 101, 102),
		bar("MSFT", 3, 201, 199, 200),
	})
	signals := &scriptedSignals{actions: map[string]map[string]types.Action{
		"MSFT": {"2024-06-02": types.ActionBuy},
	}}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL", "MSFT"}, nil)
	require.NoError(t, err)
	result, err := sim.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Transactions)
}

func TestSignalQueriesNeverSeeFutureDates(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
		bar("AAPL", 3, 103, 101, 102),
	})
	signals := &scriptedSignals{}

	sim, err := NewSimulator(testConfig(), data, signals, []string{"AAPL"}, nil)
	require.NoError(t, err)
	_, err = sim.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, signals.seen)
	prev := signals.seen[0]
	for _, asOf := range signals.seen[1:] {
		assert.False(t, asOf.Before(prev), "as-of dates must be non-decreasing")
		prev = asOf
	}
	assert.False(t, signals.seen[len(signals.seen)-1].After(day(3)))
}

func TestRunCancellation(t *testing.T) {
	data := marketdata.NewHistory([]types.PriceBar{
		bar("AAPL", 1, 101, 99, 100),
		bar("AAPL", 2, 101, 99, 100),
	})
	sim, err := NewSimulator(testConfig(), data, &scriptedSignals{}, []string{"AAPL"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWithoutData(t *testing.T) {
	sim, err := NewSimulator(testConfig(), marketdata.NewHistory(nil), &scriptedSignals{}, nil, nil)
	require.NoError(t, err)
	_, err = sim.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoTradingDays)
}
