package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"tradesim/types"
)

const exportDateLayout = "2006-01-02"

// WriteDailyValuesCSVFile writes the daily value history to a CSV file.
func WriteDailyValuesCSVFile(path string, history []types.DailySnapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create daily values file: %w", err)
	}
	defer f.Close()

	return WriteDailyValuesCSV(f, history)
}

// WriteDailyValuesCSV writes ordered daily rows to any io.Writer.
func WriteDailyValuesCSV(w io.Writer, history []types.DailySnapshot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"date", "cash", "positions_value", "portfolio_value", "pnl", "pnl_pct"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, snap := range history {
		record := []string{
			snap.Date.Format(exportDateLayout),
			snap.Cash.String(),
			snap.PositionsValue.String(),
			snap.PortfolioValue.String(),
			snap.TotalPnL.String(),
			snap.TotalPnLPct.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteTransactionsCSVFile writes the transaction log to a CSV file.
func WriteTransactionsCSVFile(path string, transactions []types.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create transactions file: %w", err)
	}
	defer f.Close()

	return WriteTransactionsCSV(f, transactions)
}

// WriteTransactionsCSV writes ordered transaction rows to any io.Writer.
// The realized_pnl column is empty for BUY rows.
func WriteTransactionsCSV(w io.Writer, transactions []types.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"id", "date", "ticker", "type", "shares", "price", "total", "realized_pnl"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tx := range transactions {
		realized := ""
		if tx.Side == types.SideTypeSell {
			realized = tx.RealizedPnL.String()
		}
		record := []string{
			tx.ID,
			tx.Date.Format(time.RFC3339),
			tx.Ticker,
			string(tx.Side),
			fmt.Sprintf("%d", tx.Shares),
			tx.Price.String(),
			tx.Total.String(),
			realized,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
