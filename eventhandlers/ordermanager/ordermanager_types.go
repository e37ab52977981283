package ordermanager

import (
	"context"
	"errors"

	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	errNilClock      = errors.New("nil clock")
	errNilBroker     = errors.New("nil broker")
	errNilCreator    = errors.New("nil order creator")
	errNilSizer      = errors.New("nil position sizer")
	errNegativeDelay = errors.New("bars delay cannot be negative")
)

// Broker accepts orders and reports open positions
type Broker interface {
	HasOpenedPosition(ctx context.Context, a market.Asset, d order.Direction) bool
	SubmitOrder(order.Item) error
}

// Creator turns a signal into an unsized order
type Creator interface {
	CreateOrder(*signal.Signal) (order.Item, error)
}

// Sizer sets the size of every leaf of an order
type Sizer interface {
	SizeOrder(order.Item) error
}

// Manager validates strategy signals and converts accepted ones into sized
// orders once their bar delay has passed
type Manager struct {
	clock     clock.Clock
	broker    Broker
	creator   Creator
	sizer     Sizer
	barsDelay int64
	pending   []pendingSignal
}

type pendingSignal struct {
	signal  *signal.Signal
	arrival int64
}
