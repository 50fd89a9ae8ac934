package types

import (
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// SignalDecision is the contract the simulator requires from an external
// signal provider. It must be derivable from information available as of
// the date it was requested for.
type SignalDecision struct {
	Ticker   string
	Action   Action
	Price    decimal.Decimal
	Strength float64
}
