package ordercreator

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// Policy selects how an entry signal is wrapped
type Policy string

// Policies
const (
	Plain   Policy = "plain"
	Cover   Policy = "cover"
	Bracket Policy = "bracket"
)

var (
	errNilPriceSource = errors.New("nil price source")
	errNilTimeSource  = errors.New("nil time source")
	errUnknownPolicy  = errors.New("unknown order policy")
	errNoPrice        = errors.New("no current price")
	errNegativePct    = errors.New("percentage cannot be negative")
	errMissingStopPct = errors.New("protective orders require a stop percentage")
	errMissingTarget  = errors.New("bracket orders require a target percentage")
	errBadDefaultType = errors.New("invalid default order type")
)

// PriceSource returns the latest known price of an asset
type PriceSource interface {
	CurrentPrice(market.Asset) (decimal.Decimal, bool)
}

// Settings configures a Creator. Percentages are fractions of the current
// price, so 0.05 places a level five percent away
type Settings struct {
	Policy Policy
	// OrderType is the type of plain orders, Market when empty
	OrderType order.Type
	LimitPct  decimal.Decimal
	StopPct   decimal.Decimal
	TargetPct decimal.Decimal
	// TrailingStop makes the protective leg of cover and bracket orders a
	// trailing stop of StopPct
	TrailingStop bool
	TimeInForce  time.Duration
}

// Creator turns signals into orders
type Creator struct {
	prices   PriceSource
	clock    order.TimeSource
	settings Settings
}
