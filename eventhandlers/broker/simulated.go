package broker

import (
	"context"
	"errors"

	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

func isInsufficientCash(err error) bool {
	return errors.Is(err, portfolio.ErrInsufficientCash)
}

func (simulated) name() string {
	return "simulated"
}

func (simulated) synchronize(context.Context, *Broker) error {
	return nil
}

func (simulated) hasOpenedPosition(_ context.Context, b *Broker, a market.Asset, d order.Direction) bool {
	return b.portfolio.HasPosition(a, d)
}

// execute fills o at the last price once its trigger condition holds
func (simulated) execute(_ context.Context, b *Broker, o *order.Order) (bool, error) {
	price, ok := b.lastPrices[o.Asset]
	if !ok {
		log.Debugf(log.Broker, "%v waiting for a price", o)
		return true, nil
	}
	if o.Type == order.TrailingStop {
		o.Trail(price)
	}
	if !order.Triggered(o.Type, o.Action, price, o.Level().Decimal) {
		return true, nil
	}
	if !o.Size.IsPositive() {
		o.Cancel()
		b.dropped(o, "nothing to fill")
		return false, nil
	}
	consideration := price.Mul(o.Size)
	commission := b.fees.CalcTotalCost(o.Asset, o.Size, consideration)
	t, err := position.NewTransaction(o.Asset, o.Action, o.Direction, o.Size, price, commission, o.ID, b.clock.CurrentTime(o.Asset))
	if err != nil {
		o.Cancel()
		b.dropped(o, err.Error())
		return false, err
	}
	return b.applyFill(o, t)
}
