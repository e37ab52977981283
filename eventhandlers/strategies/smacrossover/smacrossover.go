package smacrossover

import (
	"fmt"
	"strconv"
	"time"

	"github.com/thrasher-corp/tradecore/eventhandlers/strategies/base"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/indicators"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

const (
	// Name is the strategy name
	Name           = "smacrossover"
	fastPeriodKey  = "fast-period"
	slowPeriodKey  = "slow-period"
	timeframeKey   = "timeframe"
	timeInForceKey = "time-in-force"
	description    = `Goes long when the fast simple moving average of closes crosses above the slow one and exits when it crosses back below`
)

var errPeriods = fmt.Errorf("%w: fast period must be shorter than slow period", base.ErrInvalidCustomSettings)

// Strategy trades the crossing of two simple moving averages
type Strategy struct {
	base.Strategy
	fastPeriod int
	slowPeriod int
	timeframe  market.Interval
	crossovers map[market.Asset]*indicators.Crossover
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
	s.fastPeriod = 9
	s.slowPeriod = 65
	s.timeframe = 0
	s.TimeInForce = 0
}

// SetCustomSettings overrides periods, timeframe and signal time in force
func (s *Strategy) SetCustomSettings(customSettings map[string]any) error {
	for k, v := range customSettings {
		var err error
		switch k {
		case fastPeriodKey:
			s.fastPeriod, err = base.PositiveInt(k, v)
		case slowPeriodKey:
			s.slowPeriod, err = base.PositiveInt(k, v)
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
	if s.fastPeriod >= s.slowPeriod {
		return errPeriods
	}
	return nil
}

// Init subscribes a fast and a slow average of closes and their crossover
// for each asset
func (s *Strategy) Init(m *indicators.Manager, assets []market.Asset) error {
	s.crossovers = make(map[market.Asset]*indicators.Crossover, len(assets))
	for _, a := range assets {
		series := indicators.Series{Asset: a, Timeframe: s.timeframe, Field: market.ClosePrice}
		fast, err := m.Sma(series, s.fastPeriod, 2)
		if err != nil {
			return err
		}
		slow, err := m.Sma(series, s.slowPeriod, 2)
		if err != nil {
			return err
		}
		cross, err := m.Crossover(fast, slow, 2)
		if err != nil {
			return err
		}
		s.crossovers[a] = cross
	}
	return nil
}

// ProcessCandle signals Buy/Long when the fast average crosses above the slow
// one and Sell/Long when it crosses below
func (s *Strategy) ProcessCandle(c *market.Candle, now time.Time) ([]*signal.Signal, error) {
	cross, ok := s.crossovers[c.Asset]
	if !ok {
		return nil, fmt.Errorf("%w %v", base.ErrUnknownAsset, c.Asset)
	}
	p, ok := cross.Latest()
	if !ok || !s.IsNew(c.Asset, p.Time) {
		return nil, nil
	}
	var action order.Action
	switch p.Value.Sign() {
	case 1:
		action = order.Buy
	case -1:
		action = order.Sell
	default:
		return nil, nil
	}
	sig, err := s.NewSignal(Name, c.Asset, action, order.Long, p.Time, now)
	if err != nil {
		return nil, err
	}
	sig.SetParameter(fastPeriodKey, strconv.Itoa(s.fastPeriod))
	sig.SetParameter(slowPeriodKey, strconv.Itoa(s.slowPeriod))
	return []*signal.Signal{sig}, nil
}
