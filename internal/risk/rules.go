package risk

import (
	"github.com/shopspring/decimal"
)

type Horizon string

const (
	HorizonShortTerm Horizon = "SHORT_TERM"
	HorizonLongTerm  Horizon = "LONG_TERM"
)

// Multipliers scale ATR into stop-loss and take-profit distances from the
// entry price.
type Multipliers struct {
	StopLoss   decimal.Decimal `yaml:"stop_loss"`
	TakeProfit decimal.Decimal `yaml:"take_profit"`
}

// Canonical multiplier pairs. Both keep an exact 2:1 reward/risk ratio.
var (
	ShortTermMultipliers = Multipliers{
		StopLoss:   decimal.RequireFromString("1.5"),
		TakeProfit: decimal.RequireFromString("3"),
	}
	LongTermMultipliers = Multipliers{
		StopLoss:   decimal.RequireFromString("2"),
		TakeProfit: decimal.RequireFromString("4"),
	}
)

// Rule assigns a stock category its exit parameters. A rule with explicit
// Tickers matches on membership alone; otherwise it matches when the
// annualized realized volatility falls inside [MinVolatility, MaxVolatility).
type Rule struct {
	Category string   `yaml:"category"`
	Tickers  []string `yaml:"tickers,omitempty"`

	MinVolatility float64 `yaml:"min_volatility"`
	MaxVolatility float64 `yaml:"max_volatility"`

	ShortTerm Multipliers `yaml:"short_term"`
	LongTerm  Multipliers `yaml:"long_term"`

	// Percentage fallbacks for when no usable ATR exists.
	StopPct   decimal.Decimal `yaml:"stop_pct"`
	TargetPct decimal.Decimal `yaml:"target_pct"`
}

func (r Rule) multipliers(h Horizon) Multipliers {
	if h == Horizon("") || h == HorizonLongTerm {
		return r.LongTerm
	}
	return r.ShortTerm
}

// RuleTable is a priority-ordered list of rules. Explicit-membership rules
// are listed before volatility-band rules so precedence stays auditable.
type RuleTable []Rule

// Match returns the first rule that applies to the ticker and volatility.
// Explicit ticker membership wins over any band; the last rule acts as the
// catch-all when its band is open-ended.
func (t RuleTable) Match(ticker string, volatility float64) Rule {
	for _, rule := range t {
		if len(rule.Tickers) > 0 {
			for _, member := range rule.Tickers {
				if member == ticker {
					return rule
				}
			}
			continue
		}
		if volatility >= rule.MinVolatility && (rule.MaxVolatility <= 0 || volatility < rule.MaxVolatility) {
			return rule
		}
	}
	if len(t) == 0 {
		return defaultRule
	}
	return t[len(t)-1]
}

var defaultRule = Rule{
	Category:  "core",
	ShortTerm: ShortTermMultipliers,
	LongTerm:  LongTermMultipliers,
	StopPct:   decimal.RequireFromString("0.03"),
	TargetPct: decimal.RequireFromString("0.06"),
}

// DefaultRules builds the stock categorization used when no explicit table
// is configured: volatility bands for defensive, core and speculative names,
// with percentage targets of 4%, 6% and 10% respectively.
func DefaultRules() RuleTable {
	return RuleTable{
		{
			Category:      "defensive",
			MaxVolatility: 0.20,
			ShortTerm:     ShortTermMultipliers,
			LongTerm:      LongTermMultipliers,
			StopPct:       decimal.RequireFromString("0.02"),
			TargetPct:     decimal.RequireFromString("0.04"),
		},
		{
			Category:      "core",
			MinVolatility: 0.20,
			MaxVolatility: 0.40,
			ShortTerm:     ShortTermMultipliers,
			LongTerm:      LongTermMultipliers,
			StopPct:       decimal.RequireFromString("0.03"),
			TargetPct:     decimal.RequireFromString("0.06"),
		},
		{
			Category:      "speculative",
			MinVolatility: 0.40,
			ShortTerm:     ShortTermMultipliers,
			LongTerm:      LongTermMultipliers,
			StopPct:       decimal.RequireFromString("0.05"),
			TargetPct:     decimal.RequireFromString("0.10"),
		},
	}
}
