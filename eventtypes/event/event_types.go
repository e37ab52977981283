package event

import (
	"time"

	"github.com/thrasher-corp/tradecore/market"
)

// Kind distinguishes loop events without a type switch, mostly for
// logging and metrics labels
type Kind string

// Event kinds
const (
	MarketData    Kind = "MARKET_DATA"
	MarketEodData Kind = "MARKET_EOD_DATA"
	MarketDataEnd Kind = "MARKET_DATA_END"
	Signal        Kind = "SIGNAL"
	OpenOrders    Kind = "OPEN_ORDERS"
	PendingSignal Kind = "PENDING_SIGNAL"
)

// Base holds the fields common to every event
type Base struct {
	Asset     market.Asset `json:"asset"`
	Time      time.Time    `json:"time"`
	BarsDelay int64        `json:"barsDelay,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// Handler is implemented by every event the loop dispatches
type Handler interface {
	Kind() Kind
	GetAsset() market.Asset
	GetTime() time.Time
	GetBarsDelay() int64
	SetBarsDelay(int64)
	DecrementBarsDelay()
	GetReason() string
	AppendReason(string)
}
