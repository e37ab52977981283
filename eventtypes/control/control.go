package control

import (
	"time"

	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/market"
)

// EndOfDay asks the broker to close the asset's positions for the session
type EndOfDay struct {
	event.Base
}

// DataEnd marks that a feed has no further data for the asset
type DataEnd struct {
	event.Base
}

// OpenOrders asks the broker to evaluate its open orders
type OpenOrders struct {
	event.Base
}

// PendingSignal asks the order manager to re-evaluate delayed signals
type PendingSignal struct {
	event.Base
}

// NewEndOfDay returns a MarketEodData event
func NewEndOfDay(a market.Asset, t time.Time, barsDelay int64) *EndOfDay {
	return &EndOfDay{Base: event.Base{Asset: a, Time: t, BarsDelay: barsDelay}}
}

// NewDataEnd returns a MarketDataEnd event
func NewDataEnd(a market.Asset, t time.Time) *DataEnd {
	return &DataEnd{Base: event.Base{Asset: a, Time: t}}
}

// NewOpenOrders returns an OpenOrders event
func NewOpenOrders(a market.Asset, t time.Time) *OpenOrders {
	return &OpenOrders{Base: event.Base{Asset: a, Time: t}}
}

// NewPendingSignal returns a PendingSignal event
func NewPendingSignal(a market.Asset, t time.Time) *PendingSignal {
	return &PendingSignal{Base: event.Base{Asset: a, Time: t}}
}

// Kind implements event.Handler
func (e *EndOfDay) Kind() event.Kind {
	return event.MarketEodData
}

// Kind implements event.Handler
func (e *DataEnd) Kind() event.Kind {
	return event.MarketDataEnd
}

// Kind implements event.Handler
func (e *OpenOrders) Kind() event.Kind {
	return event.OpenOrders
}

// Kind implements event.Handler
func (e *PendingSignal) Kind() event.Kind {
	return event.PendingSignal
}
