package engine

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"tradesim/internal/risk"
)

var ErrNonPositiveInitialCash = errors.New("initial cash must be positive")

// Config parameterizes one simulation run. Invalid configuration is fatal
// and rejected at construction, before any simulation begins.
type Config struct {
	InitialCash decimal.Decimal `yaml:"initial_cash"`

	// MaxRiskPerTrade is the fraction of account value risked per entry.
	MaxRiskPerTrade float64 `yaml:"max_risk_per_trade" default:"0.02" validate:"gt=0,lte=1"`
	// MaxAllocation caps a single position as a fraction of account value.
	MaxAllocation float64 `yaml:"max_portfolio_allocation" default:"0.20" validate:"gt=0,lte=1"`

	ATRWindow    int     `yaml:"atr_window" default:"14" validate:"gt=0"`
	RiskFreeRate float64 `yaml:"risk_free_rate" default:"0.04" validate:"gte=0"`

	Horizon risk.Horizon `yaml:"horizon" default:"LONG_TERM" validate:"oneof=SHORT_TERM LONG_TERM"`

	// Rules override the default category tables; priority-ordered,
	// explicit-membership rules first.
	Rules risk.RuleTable `yaml:"rules,omitempty"`

	// Progress enables the console progress bar during the run.
	Progress bool `yaml:"progress"`
}

var validate = validator.New()

// Normalize applies defaults and validates ranges. It must be called (and
// must succeed) before the config is handed to a simulator.
func (c *Config) Normalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if !c.InitialCash.IsPositive() {
		return ErrNonPositiveInitialCash
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// RiskManager builds the risk manager this config describes.
func (c *Config) RiskManager() *risk.Manager {
	return risk.NewManager(
		decimal.NewFromFloat(c.MaxRiskPerTrade),
		decimal.NewFromFloat(c.MaxAllocation),
		c.Horizon,
		c.Rules,
	)
}
