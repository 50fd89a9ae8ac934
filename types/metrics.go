package types

// MetricsSummary is the full set of performance statistics computed from a
// completed simulation run. Percentages are expressed as fractions
// (0.25 = 25%) and degenerate inputs resolve to 0 or +Inf, never an error.
type MetricsSummary struct {
	Returns      ReturnMetrics       `yaml:"returns" json:"returns"`
	Risk         RiskMetrics         `yaml:"risk" json:"risk"`
	RiskAdjusted RiskAdjustedMetrics `yaml:"risk_adjusted" json:"risk_adjusted"`
	Trading      TradingMetrics      `yaml:"trading" json:"trading"`
	Statistics   DistributionMetrics `yaml:"statistics" json:"statistics"`
}

type ReturnMetrics struct {
	TotalReturn      float64 `yaml:"total_return" json:"total_return"`
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
}

type RiskMetrics struct {
	Volatility     float64 `yaml:"volatility" json:"volatility"`
	MaxDrawdown    float64 `yaml:"max_drawdown" json:"max_drawdown"`
	DrawdownPeak   int     `yaml:"drawdown_peak" json:"drawdown_peak"`
	DrawdownTrough int     `yaml:"drawdown_trough" json:"drawdown_trough"`
}

type RiskAdjustedMetrics struct {
	Sharpe         float64 `yaml:"sharpe" json:"sharpe"`
	Sortino        float64 `yaml:"sortino" json:"sortino"`
	Calmar         float64 `yaml:"calmar" json:"calmar"`
	RecoveryFactor float64 `yaml:"recovery_factor" json:"recovery_factor"`
}

type TradingMetrics struct {
	TotalTrades       int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades     int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades      int     `yaml:"losing_trades" json:"losing_trades"`
	WinRate           float64 `yaml:"win_rate" json:"win_rate"`
	ProfitFactor      float64 `yaml:"profit_factor" json:"profit_factor"`
	AvgWin            float64 `yaml:"avg_win" json:"avg_win"`
	AvgLoss           float64 `yaml:"avg_loss" json:"avg_loss"`
	Expectancy        float64 `yaml:"expectancy" json:"expectancy"`
	ConsecutiveWins   int     `yaml:"consecutive_wins" json:"consecutive_wins"`
	ConsecutiveLosses int     `yaml:"consecutive_losses" json:"consecutive_losses"`
}

type DistributionMetrics struct {
	Skewness float64 `yaml:"skewness" json:"skewness"`
	Kurtosis float64 `yaml:"kurtosis" json:"kurtosis"`
}
