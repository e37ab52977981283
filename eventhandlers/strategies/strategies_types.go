package strategies

import (
	"time"

	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/indicators"
	"github.com/thrasher-corp/tradecore/market"
)

// Handler is implemented by every strategy. Init subscribes the strategy's
// indicators for each asset; ProcessCandle runs after the candle has been
// pushed through the indicator graph
type Handler interface {
	Name() string
	Description() string
	SetDefaults()
	SetCustomSettings(map[string]any) error
	Init(m *indicators.Manager, assets []market.Asset) error
	ProcessCandle(c *market.Candle, now time.Time) ([]*signal.Signal, error)
}
