package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradesim/types"
)

var startTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
var endTime = startTime.AddDate(0, 0, 5)

type mockBarSource struct {
	bars map[string][]types.PriceBar
	err  error
}

func (m mockBarSource) DailyBars(_ context.Context, ticker string, _, _ time.Time) ([]types.PriceBar, error) {
	if m.err != nil {
		return nil, m.err
	}
	bars, ok := m.bars[ticker]
	if !ok || len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}

func mockBars(ticker string, n int) []types.PriceBar {
	out := make([]types.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		price := decimal.NewFromInt(int64(100 + i))
		out = append(out, types.PriceBar{
			Ticker: ticker,
			Date:   startTime.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
		})
	}
	return out
}

func TestLoadHistory(t *testing.T) {
	tests := []struct {
		name     string
		source   mockBarSource
		tickers  []string
		wantErr  error
		wantDays int
	}{
		{
			name:     "all tickers load",
			source:   mockBarSource{bars: map[string][]types.PriceBar{"AAPL": mockBars("AAPL", 3), "MSFT": mockBars("MSFT", 3)}},
			tickers:  []string{"AAPL", "MSFT"},
			wantDays: 3,
		},
		{
			name:    "missing ticker is a loading error",
			source:  mockBarSource{bars: map[string][]types.PriceBar{"AAPL": mockBars("AAPL", 3)}},
			tickers: []string{"AAPL", "MSFT"},
			wantErr: ErrNoBars,
		},
		{
			name:    "query failure propagates",
			source:  mockBarSource{err: errors.New("connection reset")},
			tickers: []string{"AAPL"},
			wantErr: nil, // generic error, checked below
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := LoadHistory(context.Background(), tt.source, tt.tickers, startTime, endTime)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoadHistory() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.source.err != nil {
				if err == nil {
					t.Fatal("LoadHistory() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadHistory() error = %v", err)
			}
			if got := len(history.TradingDays()); got != tt.wantDays {
				t.Errorf("trading days = %d, want %d", got, tt.wantDays)
			}
		})
	}
}
