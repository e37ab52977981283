package data

import (
	"context"
	"errors"

	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	// ErrNoAssets is returned when a feed is configured without assets
	ErrNoAssets = errors.New("feed has no assets")
	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("feed already started")
	// ErrNotStarted is returned when a feed is used before Start
	ErrNotStarted = errors.New("feed not started")

	errNilSink         = errors.New("nil event sink")
	errUnexpectedAsset = errors.New("candle for an asset the feed was not configured with")
)

// Feed produces MarketData events for the event loop. Historical feeds emit
// on UpdateLatestData and finish with one MarketDataEnd per asset; streaming
// feeds append from a background consumer
type Feed interface {
	Start(ctx context.Context) error
	Stop() error
	UpdateLatestData(ctx context.Context) error
	Assets() []market.Asset
}

// Sink receives events from a feed. The event holder is the only
// implementation the loop uses
type Sink interface {
	AppendEvent(...event.Handler)
}

// Historical replays a fixed candle set one timestamp at a time
type Historical struct {
	sink     Sink
	assets   []market.Asset
	order    map[market.Asset]int
	candles  []market.Candle
	offset   int
	finished bool
}
