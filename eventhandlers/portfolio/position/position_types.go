package position

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	// ErrMismatchedPosition is returned when a transaction's asset or
	// direction differs from the position it is applied to
	ErrMismatchedPosition = errors.New("transaction does not match position")
	// ErrBackwardsTime is returned when an update would move a position's
	// timestamp backwards
	ErrBackwardsTime = errors.New("timestamp is before the last update")

	errInvalidSize  = errors.New("transaction size must be greater than zero")
	errInvalidPrice = errors.New("transaction price cannot be negative")
)

// Transaction is an executed fill
type Transaction struct {
	ID         string          `json:"id"`
	Asset      market.Asset    `json:"asset"`
	Size       decimal.Decimal `json:"size"`
	Action     order.Action    `json:"action"`
	Direction  order.Direction `json:"direction"`
	Price      decimal.Decimal `json:"price"`
	OrderID    string          `json:"orderId"`
	Commission decimal.Decimal `json:"commission"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Position tracks the fills of one asset in one direction. Sizes are
// cumulative per leg, so net size is negative for short positions
type Position struct {
	Asset          market.Asset    `json:"asset"`
	Direction      order.Direction `json:"direction"`
	Price          decimal.Decimal `json:"price"`
	BuySize        decimal.Decimal `json:"buySize"`
	SellSize       decimal.Decimal `json:"sellSize"`
	AvgBought      decimal.Decimal `json:"avgBought"`
	AvgSold        decimal.Decimal `json:"avgSold"`
	BuyCommission  decimal.Decimal `json:"buyCommission"`
	SellCommission decimal.Decimal `json:"sellCommission"`
	RealisedPnL    decimal.Decimal `json:"realisedPnl"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Handler holds every open position of a portfolio
type Handler struct {
	positions map[market.Asset]map[order.Direction]*Position
	// realised PnL of positions that have been closed and removed
	closedRealised decimal.Decimal
}
