package signal

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/order"
)

var errMissingStrategy = errors.New("signal requires a strategy id")

// Signal is a strategy's request to trade. The embedded event time is the
// generation time; TimeInForce of zero means the signal never lapses
type Signal struct {
	event.Base
	ID                  string            `json:"id"`
	Action              order.Action      `json:"action"`
	Direction           order.Direction   `json:"direction"`
	Confidence          decimal.Decimal   `json:"confidence"`
	StrategyID          string            `json:"strategyId"`
	RootCandleTimestamp time.Time         `json:"rootCandleTimestamp"`
	Parameters          map[string]string `json:"parameters,omitempty"`
	TimeInForce         time.Duration     `json:"timeInForce"`
}
