package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{InitialCash: decimal.NewFromInt(10000)}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, 0.02, cfg.MaxRiskPerTrade)
	assert.Equal(t, 0.20, cfg.MaxAllocation)
	assert.Equal(t, 14, cfg.ATRWindow)
	assert.Equal(t, 0.04, cfg.RiskFreeRate)
	assert.Equal(t, "LONG_TERM", string(cfg.Horizon))
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero initial cash", func(c *Config) { c.InitialCash = decimal.Zero }},
		{"negative initial cash", func(c *Config) { c.InitialCash = decimal.NewFromInt(-1) }},
		{"risk fraction above one", func(c *Config) { c.MaxRiskPerTrade = 1.5 }},
		{"negative risk fraction", func(c *Config) { c.MaxRiskPerTrade = -0.1 }},
		{"allocation above one", func(c *Config) { c.MaxAllocation = 2 }},
		{"negative atr window", func(c *Config) { c.ATRWindow = -5 }},
		{"unknown horizon", func(c *Config) { c.Horizon = "INTRADAY" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{InitialCash: decimal.NewFromInt(10000)}
			tt.mutate(&cfg)
			assert.Error(t, cfg.Normalize())
		})
	}
}

func TestConfigExplicitValuesKept(t *testing.T) {
	cfg := Config{
		InitialCash:     decimal.NewFromInt(5000),
		MaxRiskPerTrade: 0.01,
		MaxAllocation:   0.5,
		ATRWindow:       20,
		RiskFreeRate:    0.03,
		Horizon:         "SHORT_TERM",
	}
	require.NoError(t, cfg.Normalize())

	assert.Equal(t, 0.01, cfg.MaxRiskPerTrade)
	assert.Equal(t, 20, cfg.ATRWindow)
	assert.Equal(t, "SHORT_TERM", string(cfg.Horizon))
}
