package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"tradesim/types"
)

var (
	ErrNonPositiveCash    = errors.New("initial cash must be positive")
	ErrInsufficientCash   = errors.New("insufficient cash for buy")
	ErrNoPosition         = errors.New("no open position for ticker")
	ErrInsufficientShares = errors.New("sell size exceeds held shares")
	ErrInvalidOrder       = errors.New("shares and price must be positive")
)

// Ledger owns cash, open positions, stop levels, the transaction log and
// the daily value history for one simulation run. It is not safe for
// concurrent use; a run drives it from a single goroutine.
//
// Invariant after every mutation: PortfolioValue == Cash + Σ position value,
// and Cash is never negative.
type Ledger struct {
	initialCash  decimal.Decimal
	cash         decimal.Decimal
	positions    map[string]*types.Position
	stops        map[string]types.StopLevels
	transactions []types.Transaction
	history      []types.DailySnapshot
	realizedPnL  decimal.Decimal
}

func New(initialCash decimal.Decimal) (*Ledger, error) {
	if !initialCash.IsPositive() {
		return nil, ErrNonPositiveCash
	}
	return &Ledger{
		initialCash: initialCash,
		cash:        initialCash,
		positions:   make(map[string]*types.Position),
		stops:       make(map[string]types.StopLevels),
	}, nil
}

// Buy debits cash and opens or scales into a position at the weighted
// average cost. On ErrInsufficientCash (or an invalid order) no state
// changes; the caller decides whether that is a warning or a bug.
func (l *Ledger) Buy(ticker string, shares int64, price decimal.Decimal, date time.Time) error {
	if shares <= 0 || !price.IsPositive() {
		return ErrInvalidOrder
	}

	qty := decimal.NewFromInt(shares)
	total := price.Mul(qty)
	if total.GreaterThan(l.cash) {
		return ErrInsufficientCash
	}
	l.cash = l.cash.Sub(total)

	pos, ok := l.positions[ticker]
	if !ok {
		l.positions[ticker] = &types.Position{
			Ticker:       ticker,
			Shares:       shares,
			AvgCost:      price,
			CurrentPrice: price,
		}
	} else {
		oldQty := decimal.NewFromInt(pos.Shares)
		newQty := oldQty.Add(qty)
		pos.AvgCost = pos.AvgCost.Mul(oldQty).Add(total).Div(newQty)
		pos.Shares += shares
		pos.CurrentPrice = price
	}

	l.transactions = append(l.transactions, types.Transaction{
		ID:     ulid.Make().String(),
		Date:   date,
		Ticker: ticker,
		Side:   types.SideTypeBuy,
		Shares: shares,
		Price:  price,
		Total:  total,
	})
	return nil
}

// Sell credits cash and realizes shares*(price-avgCost). Partial sells keep
// the average cost; selling the full position removes it together with any
// stop levels. Returns the realized PnL of this fill.
func (l *Ledger) Sell(ticker string, shares int64, price decimal.Decimal, date time.Time) (decimal.Decimal, error) {
	if shares <= 0 || !price.IsPositive() {
		return decimal.Zero, ErrInvalidOrder
	}

	pos, ok := l.positions[ticker]
	if !ok {
		return decimal.Zero, ErrNoPosition
	}
	if shares > pos.Shares {
		return decimal.Zero, ErrInsufficientShares
	}

	qty := decimal.NewFromInt(shares)
	total := price.Mul(qty)
	realized := price.Sub(pos.AvgCost).Mul(qty)

	l.cash = l.cash.Add(total)
	l.realizedPnL = l.realizedPnL.Add(realized)

	pos.Shares -= shares
	pos.CurrentPrice = price
	if pos.Shares == 0 {
		delete(l.positions, ticker)
		delete(l.stops, ticker)
	}

	l.transactions = append(l.transactions, types.Transaction{
		ID:          ulid.Make().String(),
		Date:        date,
		Ticker:      ticker,
		Side:        types.SideTypeSell,
		Shares:      shares,
		Price:       price,
		Total:       total,
		RealizedPnL: realized,
	})
	return realized, nil
}

// UpdatePrice marks an open position to market. No-op without a position.
func (l *Ledger) UpdatePrice(ticker string, price decimal.Decimal) {
	if pos, ok := l.positions[ticker]; ok {
		pos.CurrentPrice = price
	}
}

// SetStopLevels attaches exit levels to an open position. They are fixed
// until the position closes.
func (l *Ledger) SetStopLevels(levels types.StopLevels) {
	if _, ok := l.positions[levels.Ticker]; ok {
		l.stops[levels.Ticker] = levels
	}
}

// StopLevels returns the exit levels for a ticker, if any.
func (l *Ledger) StopLevels(ticker string) (types.StopLevels, bool) {
	levels, ok := l.stops[ticker]
	return levels, ok
}

func (l *Ledger) Cash() decimal.Decimal        { return l.cash }
func (l *Ledger) InitialCash() decimal.Decimal { return l.initialCash }
func (l *Ledger) RealizedPnL() decimal.Decimal { return l.realizedPnL }

// Position returns a copy of the open position for a ticker.
func (l *Ledger) Position(ticker string) (types.Position, bool) {
	pos, ok := l.positions[ticker]
	if !ok {
		return types.Position{}, false
	}
	return *pos, true
}

// Positions returns copies of all open positions, sorted by ticker.
func (l *Ledger) Positions() []types.Position {
	out := make([]types.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// PositionsValue returns Σ shares*currentPrice over open positions.
func (l *Ledger) PositionsValue() decimal.Decimal {
	value := decimal.Zero
	for _, pos := range l.positions {
		value = value.Add(pos.MarketValue())
	}
	return value
}

// PortfolioValue returns cash plus the marked value of open positions.
func (l *Ledger) PortfolioValue() decimal.Decimal {
	return l.cash.Add(l.PositionsValue())
}

// Transactions returns the append-only transaction log.
func (l *Ledger) Transactions() []types.Transaction {
	return append([]types.Transaction(nil), l.transactions...)
}

// History returns the recorded daily snapshots in date order.
func (l *Ledger) History() []types.DailySnapshot {
	return append([]types.DailySnapshot(nil), l.history...)
}

// RecordDailyState appends a snapshot of the current state. Prior snapshots
// are never mutated.
func (l *Ledger) RecordDailyState(date time.Time) types.DailySnapshot {
	positionsValue := l.PositionsValue()
	portfolioValue := l.cash.Add(positionsValue)
	totalPnL := portfolioValue.Sub(l.initialCash)

	snap := types.DailySnapshot{
		Date:           date,
		Cash:           l.cash,
		PositionsValue: positionsValue,
		PortfolioValue: portfolioValue,
		TotalPnL:       totalPnL,
		TotalPnLPct:    totalPnL.Div(l.initialCash),
	}
	l.history = append(l.history, snap)
	return snap
}

// CloseAllPositions sells every open position at the supplied price for its
// ticker, falling back to the last marked price when the map has no entry.
// Used once for end-of-run liquidation.
func (l *Ledger) CloseAllPositions(prices map[string]decimal.Decimal, date time.Time) {
	tickers := make([]string, 0, len(l.positions))
	for ticker := range l.positions {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		pos := l.positions[ticker]
		price, ok := prices[ticker]
		if !ok || !price.IsPositive() {
			price = pos.CurrentPrice
		}
		// Selling held shares at a positive price cannot fail.
		l.Sell(ticker, pos.Shares, price, date)
	}
}
