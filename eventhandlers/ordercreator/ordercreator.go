package ordercreator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/order"
)

// New validates s and returns a Creator. A nil s creates plain market orders
func New(p PriceSource, c order.TimeSource, s *Settings) (*Creator, error) {
	if p == nil {
		return nil, errNilPriceSource
	}
	if c == nil {
		return nil, errNilTimeSource
	}
	var settings Settings
	if s != nil {
		settings = *s
	}
	settings.Policy = Policy(strings.ToLower(string(settings.Policy)))
	if settings.Policy == "" {
		settings.Policy = Plain
	}
	if settings.OrderType == "" {
		settings.OrderType = order.Market
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Creator{prices: p, clock: c, settings: settings}, nil
}

// Validate checks the policy can produce valid orders
func (s *Settings) Validate() error {
	for _, pct := range []decimal.Decimal{s.LimitPct, s.StopPct, s.TargetPct} {
		if pct.IsNegative() {
			return fmt.Errorf("%w: %v", errNegativePct, pct)
		}
	}
	if err := s.OrderType.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errBadDefaultType, err)
	}
	if s.OrderType == order.TrailingStop && !s.StopPct.IsPositive() {
		return errMissingStopPct
	}
	switch s.Policy {
	case Plain:
	case Cover:
		if !s.StopPct.IsPositive() {
			return errMissingStopPct
		}
	case Bracket:
		if !s.StopPct.IsPositive() {
			return errMissingStopPct
		}
		if !s.TargetPct.IsPositive() {
			return errMissingTarget
		}
	default:
		return fmt.Errorf("%w %q", errUnknownPolicy, s.Policy)
	}
	return nil
}

// Policy returns the configured policy
func (c *Creator) Policy() Policy {
	return c.settings.Policy
}

// CreateOrder returns an unsized order for sig. Exit signals and the plain
// policy produce a single order of the default type; entries under the cover
// or bracket policy produce a market initiation wrapped with protective legs
func (c *Creator) CreateOrder(sig *signal.Signal) (order.Item, error) {
	if sig == nil {
		return nil, common.ErrNilEvent
	}
	if c.settings.Policy == Plain || sig.IsExit() {
		o, err := c.leaf(sig, sig.Action, c.settings.OrderType)
		if err != nil {
			return nil, err
		}
		log.Debugf(log.OrderMgr, "created %v for signal %s", o, sig.ID)
		return o, nil
	}

	opener, err := c.leaf(sig, sig.Action, order.Market)
	if err != nil {
		return nil, err
	}
	stopType := order.Stop
	if c.settings.TrailingStop {
		stopType = order.TrailingStop
	}
	stop, err := c.leaf(sig, sig.Action.Opposite(), stopType)
	if err != nil {
		return nil, err
	}
	var item order.Item
	if c.settings.Policy == Cover {
		item, err = order.NewCover(opener, stop)
	} else {
		var target *order.Order
		target, err = c.leaf(sig, sig.Action.Opposite(), order.Target)
		if err != nil {
			return nil, err
		}
		item, err = order.NewBracket(opener, target, stop)
	}
	if err != nil {
		return nil, err
	}
	log.Debugf(log.OrderMgr, "created %s order %s for signal %s", c.settings.Policy, item.GetID(), sig.ID)
	return item, nil
}

// leaf builds one order for sig's asset and direction. Price levels are set
// only for the type that uses them
func (c *Creator) leaf(sig *signal.Signal, action order.Action, typ order.Type) (*order.Order, error) {
	o := order.Order{
		Asset:          sig.Asset,
		Action:         action,
		Direction:      sig.Direction,
		Type:           typ,
		SignalID:       sig.ID,
		GenerationTime: c.clock.CurrentTime(sig.Asset),
		TimeInForce:    c.settings.TimeInForce,
	}
	if typ != order.Market {
		price, ok := c.prices.CurrentPrice(sig.Asset)
		if !ok {
			return nil, fmt.Errorf("%w for %v", errNoPrice, sig.Asset)
		}
		switch typ {
		case order.Limit:
			o.Limit = decimal.NewNullDecimal(Limit(action, price, c.settings.LimitPct))
		case order.Stop:
			o.Stop = decimal.NewNullDecimal(StopLevel(action, price, c.settings.StopPct))
		case order.Target:
			o.Target = decimal.NewNullDecimal(Target(action, price, c.settings.TargetPct))
		case order.TrailingStop:
			o.StopPct = decimal.NewNullDecimal(c.settings.StopPct)
			o.Stop = decimal.NewNullDecimal(order.TrailStop(action, price, c.settings.StopPct, decimal.NullDecimal{}))
		}
	}
	return order.New(o)
}

// away moves price by pct, up when up is true
func away(price, pct decimal.Decimal, up bool) decimal.Decimal {
	offset := price.Mul(pct)
	if up {
		return price.Add(offset)
	}
	return price.Sub(offset)
}

// Limit returns a limit level: below the market to buy, above to sell
func Limit(a order.Action, price, pct decimal.Decimal) decimal.Decimal {
	return away(price, pct, a == order.Sell)
}

// StopLevel returns a stop level: above the market to buy, below to sell
func StopLevel(a order.Action, price, pct decimal.Decimal) decimal.Decimal {
	return away(price, pct, a == order.Buy)
}

// Target returns a profit target: below the market to buy, above to sell
func Target(a order.Action, price, pct decimal.Decimal) decimal.Decimal {
	return away(price, pct, a == order.Sell)
}
