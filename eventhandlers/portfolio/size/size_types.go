package size

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// MaximumRiskPerTrade is the default share of total equity a single entry
// may commit
var MaximumRiskPerTrade = decimal.NewFromFloat(0.1)

var (
	errCannotAllocate = errors.New("cannot allocate a size")
	errNilBroker      = errors.New("nil broker")
	errNilPortfolio   = errors.New("nil portfolio")
	errInvalidRisk    = errors.New("maximum risk must be within (0, 1]")
)

// Broker reports the largest affordable entry for an amount of cash. An
// invalid cash means the portfolio's cash
type Broker interface {
	MaxEntryOrderSize(a market.Asset, d order.Direction, cash decimal.NullDecimal) (decimal.Decimal, error)
}

// Portfolio exposes the balances sizing depends on
type Portfolio interface {
	TotalEquity() decimal.Decimal
	NetSize(a market.Asset, d order.Direction) decimal.Decimal
}

// Settings configures a Sizer. A zero MaxRisk uses MaximumRiskPerTrade
type Settings struct {
	MaxRisk decimal.Decimal
	// FractionalSize disables truncation to whole units
	FractionalSize bool
}

// Sizer sets order sizes from equity, cash and open positions
type Sizer struct {
	broker      Broker
	portfolio   Portfolio
	maxRisk     decimal.Decimal
	integerSize bool
}

// initiator is implemented by cover and bracket orders
type initiator interface {
	Initiation() *order.Order
}
