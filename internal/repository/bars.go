package repository

import (
	"context"
	"fmt"
	"time"

	"tradesim/internal/marketdata"
	"tradesim/types"
)

// DailyBars returns the date-ordered daily bars for one ticker in
// [start, end]. Returns ErrNoBars when the range is empty.
func (db *Database) DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.PriceBar, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT date, open, high, low, close, volume
		FROM daily_bars
		WHERE ticker = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`,
		ticker, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []types.PriceBar
	for rows.Next() {
		bar := types.PriceBar{Ticker: ticker}
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoBars
	}
	return bars, nil
}

// BarSource abstracts the per-ticker bar query so history loading can be
// tested without a live database.
type BarSource interface {
	DailyBars(ctx context.Context, ticker string, start, end time.Time) ([]types.PriceBar, error)
}

// LoadHistory batch-fetches every ticker's bars and builds the in-memory
// history the simulator reads from. A ticker with no data is a loading
// error: simulations must start with a complete dataset.
func LoadHistory(ctx context.Context, src BarSource, tickers []string, start, end time.Time) (*marketdata.History, error) {
	var all []types.PriceBar
	for _, ticker := range tickers {
		bars, err := src.DailyBars(ctx, ticker, start, end)
		if err != nil {
			return nil, fmt.Errorf("load bars for %s: %w", ticker, err)
		}
		all = append(all, bars...)
	}
	return marketdata.NewHistory(all), nil
}
