package rsi

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/base"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/indicators"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

const (
	// Name is the strategy name
	Name           = "rsi"
	rsiPeriodKey   = "rsi-period"
	rsiLowKey      = "rsi-low"
	rsiHighKey     = "rsi-high"
	timeframeKey   = "timeframe"
	timeInForceKey = "time-in-force"
	description    = `The relative strength index is a technical indicator used in the analysis of financial markets. It is intended to chart the current and historical strength or weakness of a stock or market based on the closing prices of a recent trading period`
)

var errThresholds = fmt.Errorf("%w: rsi-low must be below rsi-high and both within (0, 100)", base.ErrInvalidCustomSettings)

// Strategy buys oversold and exits overbought assets
type Strategy struct {
	base.Strategy
	rsiPeriod int
	rsiLow    decimal.Decimal
	rsiHigh   decimal.Decimal
	timeframe market.Interval
	nodes     map[market.Asset]*indicators.Rsi
}

// Name returns the name of the strategy
func (s *Strategy) Name() string {
	return Name
}

// Description provides an overview of the strategy
func (s *Strategy) Description() string {
	return description
}

// SetDefaults sets the custom settings to their default values
func (s *Strategy) SetDefaults() {
	s.rsiHigh = decimal.NewFromInt(70)
	s.rsiLow = decimal.NewFromInt(30)
	s.rsiPeriod = 14
	s.timeframe = 0
	s.TimeInForce = 0
}

// SetCustomSettings allows a user to modify the RSI limits in their config
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		var err error
		switch k {
		case rsiHighKey:
			var f float64
			f, err = base.Float(k, v)
			s.rsiHigh = decimal.NewFromFloat(f)
		case rsiLowKey:
			var f float64
			f, err = base.Float(k, v)
			s.rsiLow = decimal.NewFromFloat(f)
		case rsiPeriodKey:
			s.rsiPeriod, err = base.PositiveInt(k, v)
		case timeframeKey:
			s.timeframe, err = base.Interval(k, v)
		case timeInForceKey:
			s.TimeInForce, err = base.Duration(k, v)
		default:
			err = fmt.Errorf("%w: unrecognised key %v with value %v", base.ErrInvalidCustomSettings, k, v)
		}
		if err != nil {
			return err
		}
	}
	if !s.rsiLow.IsPositive() || s.rsiHigh.GreaterThanOrEqual(decimal.NewFromInt(100)) || s.rsiLow.GreaterThanOrEqual(s.rsiHigh) {
		return errThresholds
	}
	return nil
}

// Init subscribes an RSI of closes for each asset
func (s *Strategy) Init(m *indicators.Manager, assets []market.Asset) error {
	s.nodes = make(map[market.Asset]*indicators.Rsi, len(assets))
	for _, a := range assets {
		node, err := m.Rsi(indicators.Series{Asset: a, Timeframe: s.timeframe, Field: market.ClosePrice}, s.rsiPeriod, 1)
		if err != nil {
			return err
		}
		s.nodes[a] = node
	}
	return nil
}

// ProcessCandle signals Buy/Long at or below rsi-low and Sell/Long at or
// above rsi-high
func (s *Strategy) ProcessCandle(c *market.Candle, now time.Time) ([]*signal.Signal, error) {
	node, ok := s.nodes[c.Asset]
	if !ok {
		return nil, fmt.Errorf("%w %v", base.ErrUnknownAsset, c.Asset)
	}
	p, ok := node.Latest()
	if !ok || !s.IsNew(c.Asset, p.Time) {
		return nil, nil
	}
	var action order.Action
	switch {
	case p.Value.GreaterThanOrEqual(s.rsiHigh):
		action = order.Sell
	case p.Value.LessThanOrEqual(s.rsiLow):
		action = order.Buy
	default:
		return nil, nil
	}
	sig, err := s.NewSignal(Name, c.Asset, action, order.Long, p.Time, now)
	if err != nil {
		return nil, err
	}
	sig.SetParameter("rsi", p.Value.StringFixed(2))
	return []*signal.Signal{sig}, nil
}
