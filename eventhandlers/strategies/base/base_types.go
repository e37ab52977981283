package base

import (
	"errors"
	"time"

	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	// ErrStrategyNotFound is returned when no registered strategy has the
	// requested name
	ErrStrategyNotFound = errors.New("strategy not found")
	// ErrInvalidCustomSettings is returned for an unknown key or a value that
	// cannot be parsed
	ErrInvalidCustomSettings = errors.New("invalid custom settings")
	// ErrUnknownAsset is returned when a candle arrives for an asset the
	// strategy was not initialised with
	ErrUnknownAsset = errors.New("strategy not initialised for asset")
)

// Strategy holds state common to every strategy: the time of the last
// indicator point acted on and the last signal emitted, per asset
type Strategy struct {
	TimeInForce time.Duration
	lastPoint   map[market.Asset]time.Time
	lastSignal  map[market.Asset]*signal.Signal
}
