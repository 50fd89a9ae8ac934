package engine

import (
	"context"
	"errors"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradesim/internal/indicators"
	"tradesim/internal/ledger"
	"tradesim/internal/metrics"
	"tradesim/internal/risk"
	"tradesim/types"
)

// volatilityLookback bounds the bar window fed to the realized-volatility
// estimate used for category matching and sizing fallbacks.
const volatilityLookback = 252

var ErrNoTradingDays = errors.New("market data contains no trading days")

// tickerState is the per-ticker lifecycle: a position is opened at most
// once per run and never reopened after it closes.
type tickerState int

const (
	stateNone tickerState = iota
	stateOpen
	stateClosed
)

// exit reasons recorded on forced position closes.
const (
	exitStopLoss    = "stop_loss"
	exitTakeProfit  = "take_profit"
	exitSignal      = "sell_signal"
	exitLiquidation = "end_of_run"
)

// dayOutcome reports what happened to one ticker on one simulated day.
// A non-empty Skip means the ticker was left untouched for that day.
type dayOutcome struct {
	Ticker string
	Action types.Action
	Exit   string
	Skip   string
}

// Simulator drives the day-by-day loop. State at day t is a pure function
// of state at day t-1 plus day-t inputs: days are processed strictly
// ascending and never revisited, and all market data is preloaded, so the
// loop performs no I/O per iteration.
type Simulator struct {
	cfg     Config
	data    MarketData
	signals SignalProvider
	tickers []string

	ledger  *ledger.Ledger
	riskMgr *risk.Manager
	states  map[string]tickerState
	logger  *zap.Logger
}

// Result is the finished run: the value history and trade log feed the
// metrics engine; everything is a copy the caller may keep.
type Result struct {
	History      []types.DailySnapshot
	Transactions []types.Transaction
	Summary      types.MetricsSummary
	FinalValue   decimal.Decimal
}

func NewSimulator(cfg Config, data MarketData, signals SignalProvider, tickers []string, logger *zap.Logger) (*Simulator, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	book, err := ledger.New(cfg.InitialCash)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	states := make(map[string]tickerState, len(tickers))
	for _, ticker := range tickers {
		states[ticker] = stateNone
	}
	return &Simulator{
		cfg:     cfg,
		data:    data,
		signals: signals,
		tickers: tickers,
		ledger:  book,
		riskMgr: cfg.RiskManager(),
		states:  states,
		logger:  logger,
	}, nil
}

// Run executes the simulation over every trading day in the data. Stopping
// via ctx takes effect between days, where the ledger is always consistent.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	days := s.data.TradingDays()
	if len(days) == 0 {
		return nil, ErrNoTradingDays
	}

	var bar *progressbar.ProgressBar
	if s.cfg.Progress {
		bar = newProgressBar(len(days))
	}

	for i, day := range days {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		final := i == len(days)-1
		s.step(day, final)

		if bar != nil {
			bar.Add(1)
		}
	}

	history := s.ledger.History()
	transactions := s.ledger.Transactions()
	return &Result{
		History:      history,
		Transactions: transactions,
		Summary:      metrics.Compute(history, transactions, s.cfg.RiskFreeRate),
		FinalValue:   s.ledger.PortfolioValue(),
	}, nil
}

// step advances one simulated day: mark-to-market, breach exits, signal
// entries/exits, snapshot, and forced liquidation on the final day.
func (s *Simulator) step(day time.Time, final bool) {
	prices := make(map[string]decimal.Decimal, len(s.tickers))

	// Mark all open positions to the latest known close, then evaluate
	// stop-loss before take-profit. Breach exits happen before any new
	// entries are considered that day.
	for _, ticker := range s.tickers {
		priceBar, ok := s.data.AsOf(ticker, day)
		if !ok {
			continue
		}
		prices[ticker] = priceBar.Close
		s.ledger.UpdatePrice(ticker, priceBar.Close)

		if s.states[ticker] == stateOpen {
			s.checkBreaches(ticker, priceBar.Close, day)
		}
	}

	for _, ticker := range s.tickers {
		outcome := s.applySignal(ticker, day, prices)
		s.logOutcome(day, outcome)
	}

	s.ledger.RecordDailyState(day)

	if final {
		s.ledger.CloseAllPositions(prices, day)
		for ticker, state := range s.states {
			if state == stateOpen {
				s.states[ticker] = stateClosed
				s.logger.Info("forced liquidation",
					zap.String("ticker", ticker),
					zap.Time("date", day),
					zap.String("reason", exitLiquidation))
			}
		}
	}
}

// checkBreaches exits the full position when the stop or target is hit.
// Stop-loss is always evaluated first so the ordering is deterministic.
func (s *Simulator) checkBreaches(ticker string, price decimal.Decimal, day time.Time) {
	levels, ok := s.ledger.StopLevels(ticker)
	if !ok {
		return
	}

	var exit string
	switch {
	case risk.CheckStopLoss(price, levels.StopLoss):
		exit = exitStopLoss
	case risk.CheckTakeProfit(price, levels.TakeProfit):
		exit = exitTakeProfit
	default:
		return
	}

	pos, ok := s.ledger.Position(ticker)
	if !ok {
		return
	}
	pnl, err := s.ledger.Sell(ticker, pos.Shares, price, day)
	if err != nil {
		s.logger.Warn("breach exit rejected", zap.String("ticker", ticker), zap.Error(err))
		return
	}
	s.states[ticker] = stateClosed
	s.logger.Info("position closed",
		zap.String("ticker", ticker),
		zap.Time("date", day),
		zap.String("reason", exit),
		zap.String("pnl", pnl.String()))
}

// applySignal consults the external provider and executes the decision.
// Data gaps and provider failures degrade to HOLD for this ticker only.
func (s *Simulator) applySignal(ticker string, day time.Time, prices map[string]decimal.Decimal) dayOutcome {
	price, ok := prices[ticker]
	if !ok {
		return dayOutcome{Ticker: ticker, Skip: "no price data"}
	}

	decision, err := s.signals.Evaluate(ticker, day)
	if err != nil {
		s.logger.Warn("signal provider failed, treating as HOLD",
			zap.String("ticker", ticker), zap.Time("date", day), zap.Error(err))
		return dayOutcome{Ticker: ticker, Action: types.ActionHold, Skip: "signal error"}
	}

	switch decision.Action {
	case types.ActionBuy:
		if s.states[ticker] != stateNone {
			return dayOutcome{Ticker: ticker, Action: decision.Action, Skip: "position already taken"}
		}
		return s.enter(ticker, day, decision, price)

	case types.ActionSell:
		if s.states[ticker] != stateOpen {
			return dayOutcome{Ticker: ticker, Action: decision.Action, Skip: "no open position"}
		}
		pos, _ := s.ledger.Position(ticker)
		pnl, err := s.ledger.Sell(ticker, pos.Shares, price, day)
		if err != nil {
			s.logger.Warn("sell rejected", zap.String("ticker", ticker), zap.Error(err))
			return dayOutcome{Ticker: ticker, Action: decision.Action, Skip: err.Error()}
		}
		s.states[ticker] = stateClosed
		s.logger.Info("position closed",
			zap.String("ticker", ticker),
			zap.Time("date", day),
			zap.String("reason", exitSignal),
			zap.String("pnl", pnl.String()))
		return dayOutcome{Ticker: ticker, Action: decision.Action, Exit: exitSignal}
	}

	return dayOutcome{Ticker: ticker, Action: types.ActionHold}
}

// enter sizes a new position via the risk manager and opens it with fixed
// stop levels.
func (s *Simulator) enter(ticker string, day time.Time, decision types.SignalDecision, lastClose decimal.Decimal) dayOutcome {
	entry := decision.Price
	if !entry.IsPositive() {
		entry = lastClose
	}

	window := s.data.Window(ticker, day, s.cfg.ATRWindow+1)
	atr := indicators.ATR(window, s.cfg.ATRWindow)
	vol := indicators.RealizedVolatility(s.data.Window(ticker, day, volatilityLookback))

	accountValue := s.ledger.PortfolioValue()
	shares := s.riskMgr.PositionSize(ticker, accountValue, entry, atr, vol)
	if shares <= 0 {
		return dayOutcome{Ticker: ticker, Action: decision.Action, Skip: "sized to zero"}
	}

	if err := s.ledger.Buy(ticker, shares, entry, day); err != nil {
		s.logger.Warn("buy rejected",
			zap.String("ticker", ticker),
			zap.Int64("shares", shares),
			zap.String("price", entry.String()),
			zap.Error(err))
		return dayOutcome{Ticker: ticker, Action: decision.Action, Skip: err.Error()}
	}

	stop, target := s.riskMgr.Levels(ticker, entry, atr, vol)
	s.ledger.SetStopLevels(types.StopLevels{Ticker: ticker, StopLoss: stop, TakeProfit: target})
	s.states[ticker] = stateOpen

	s.logger.Info("position opened",
		zap.String("ticker", ticker),
		zap.Time("date", day),
		zap.Int64("shares", shares),
		zap.String("entry", entry.String()),
		zap.String("stop", stop.String()),
		zap.String("target", target.String()),
		zap.String("category", s.riskMgr.Category(ticker, vol)))
	return dayOutcome{Ticker: ticker, Action: decision.Action}
}

func (s *Simulator) logOutcome(day time.Time, outcome dayOutcome) {
	if outcome.Ticker == "" || outcome.Skip == "" {
		return
	}
	s.logger.Debug("ticker skipped",
		zap.Time("date", day),
		zap.String("ticker", outcome.Ticker),
		zap.String("reason", outcome.Skip))
}

func newProgressBar(days int) *progressbar.ProgressBar {
	return progressbar.NewOptions(days,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Simulating..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
