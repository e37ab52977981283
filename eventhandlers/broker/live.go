package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/venue"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/metrics"
	"github.com/thrasher-corp/tradecore/order"
)

var errNilVenue = errors.New("nil venue")

// NewLive returns a broker that routes orders through v and mirrors the
// venue's fills into the portfolio
func NewLive(c clock.Clock, p *portfolio.Portfolio, fees fee.Model, s *Settings, v venue.Venue) (*Broker, error) {
	if v == nil {
		return nil, errNilVenue
	}
	now := func() time.Time { return time.Now().UTC() }
	if s != nil && s.Now != nil {
		now = s.Now
	}
	return newBroker(c, p, fees, s, &live{
		venue:      v,
		products:   make(map[market.Asset]venue.Product),
		executed:   make(map[string]struct{}),
		open:       make(map[string]*order.Order),
		processed:  make(map[string]struct{}),
		lastUpdate: make(map[resource]time.Time),
		thresholds: map[resource]time.Duration{
			balancesResource:     BalancesRefresh,
			pricesResource:       PricesRefresh,
			positionsResource:    PositionsRefresh,
			transactionsResource: TransactionsRefresh,
			productsResource:     ProductsRefresh,
		},
		now: now,
	})
}

func (l *live) name() string {
	return l.venue.Name()
}

// due reports whether r has not been refreshed within its threshold
func (l *live) due(r resource) bool {
	last, ok := l.lastUpdate[r]
	return !ok || l.now().Sub(last) >= l.thresholds[r]
}

func (l *live) refreshed(r resource) {
	l.lastUpdate[r] = l.now()
}

func (l *live) hasOpenedPosition(ctx context.Context, b *Broker, a market.Asset, d order.Direction) bool {
	ok, err := l.venue.HasOpenedPosition(ctx, a, d)
	if err != nil {
		log.Warnf(log.Broker, "%s position check for %v %v failed, using portfolio: %v", l.name(), a, d, err)
		return b.portfolio.HasPosition(a, d)
	}
	return ok
}

// synchronize refreshes every resource past its threshold. A failed
// resource keeps its previous refresh time so it is retried next cycle
func (l *live) synchronize(ctx context.Context, b *Broker) error {
	var errs error
	steps := []struct {
		r  resource
		fn func(context.Context, *Broker) error
	}{
		{productsResource, l.syncProducts},
		{balancesResource, l.syncBalances},
		{pricesResource, l.syncPrices},
		{transactionsResource, l.syncTransactions},
		{positionsResource, l.syncPositions},
	}
	for _, s := range steps {
		if !l.due(s.r) {
			continue
		}
		if err := s.fn(ctx, b); err != nil {
			log.Errorf(log.Broker, "%s %s synchronisation failed: %v", l.name(), s.r, err)
			metrics.VenueSyncFailures.WithLabelValues(l.name(), string(s.r)).Inc()
			errs = common.AppendError(errs, fmt.Errorf("%s %s: %w", l.name(), s.r, err))
			continue
		}
		l.refreshed(s.r)
	}
	return errs
}

func (l *live) syncProducts(ctx context.Context, _ *Broker) error {
	products, err := l.venue.UpdateProducts(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		l.products[products[i].Asset] = products[i]
	}
	return nil
}

func (l *live) syncBalances(ctx context.Context, b *Broker) error {
	balances, err := l.venue.UpdateCashBalances(ctx)
	if err != nil {
		return err
	}
	for cur, amount := range balances {
		if _, ok := b.supported[cur]; !ok {
			continue
		}
		b.cashBalances[cur] = amount
	}
	return nil
}

func (l *live) syncPrices(ctx context.Context, b *Broker) error {
	assets := make(map[market.Asset]struct{})
	for a := range b.lastPrices {
		assets[a] = struct{}{}
	}
	for _, o := range b.openOrders {
		assets[o.Asset] = struct{}{}
	}
	for _, a := range b.portfolio.Positions().Assets() {
		assets[a] = struct{}{}
	}
	var errs error
	for a := range assets {
		price, err := l.venue.UpdatePrice(ctx, a)
		if err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		b.lastPrices[a] = price
		errs = common.AppendError(errs, b.portfolio.UpdateMarketValue(a, price, b.clock.CurrentTime(a)))
	}
	return errs
}

func (l *live) syncPositions(ctx context.Context, b *Broker) error {
	positions, err := l.venue.UpdatePositions(ctx)
	if err != nil {
		return err
	}
	for i := range positions {
		local := b.portfolio.NetSize(positions[i].Asset, positions[i].Direction).Abs()
		if !local.Equal(positions[i].Size) {
			log.Warnf(log.Broker, "%s reports %v %v size %v, portfolio holds %v",
				l.name(), positions[i].Asset, positions[i].Direction, positions[i].Size, local)
		}
	}
	return nil
}

// syncTransactions books every unseen venue fill. Fills of orders this broker
// sent complete those orders
func (l *live) syncTransactions(ctx context.Context, b *Broker) error {
	fills, err := l.venue.UpdateTransactions(ctx, l.fillsSince)
	if err != nil {
		return err
	}
	var errs error
	for i := range fills {
		f := &fills[i]
		if _, ok := l.processed[f.ID]; ok {
			continue
		}
		if f.Timestamp.After(l.fillsSince) {
			l.fillsSince = f.Timestamp
		}
		ts := f.Timestamp
		if ts.IsZero() {
			ts = b.clock.CurrentTime(f.Asset)
		}
		// marks to market run ahead of venue execution times
		if pos, ok := b.portfolio.Positions().Position(f.Asset, f.Direction); ok && pos.Timestamp.After(ts) {
			ts = pos.Timestamp
		}
		o := l.open[f.VenueOrderID]
		orderID := f.VenueOrderID
		if o != nil {
			orderID = o.ID
		}
		t, err := position.NewTransaction(f.Asset, f.Action, f.Direction, f.Size, f.Price, f.Commission, orderID, ts)
		if err != nil {
			l.processed[f.ID] = struct{}{}
			errs = common.AppendError(errs, err)
			continue
		}
		if o == nil {
			log.Warnf(log.Broker, "%s fill %s for unknown order %s, booking to portfolio", l.name(), f.ID, f.VenueOrderID)
			if _, err := b.portfolio.Transact(t); err != nil {
				if !isInsufficientCash(err) {
					return common.AppendError(errs, err)
				}
				log.Errorf(log.Broker, "%s fill %s could not be booked: %v", l.name(), f.ID, err)
			}
			l.processed[f.ID] = struct{}{}
			continue
		}
		retry, err := b.applyFill(o, t)
		if err != nil {
			return common.AppendError(errs, err)
		}
		if retry {
			// the venue has already executed, so the fill stays pending
			// until cash is available
			continue
		}
		l.processed[f.ID] = struct{}{}
		delete(l.open, f.VenueOrderID)
	}
	return errs
}

// execute sends o to the venue once. A sent order stays queued until its
// fill arrives through synchronisation
func (l *live) execute(ctx context.Context, b *Broker, o *order.Order) (bool, error) {
	if _, ok := l.executed[o.ID]; ok {
		return true, nil
	}
	req, err := l.translate(o)
	if err != nil {
		o.Reject(err.Error())
		b.dropped(o, err.Error())
		return false, nil
	}
	var id string
	switch o.Type {
	case order.Market:
		id, err = l.venue.ExecuteMarketOrder(ctx, req)
	case order.Limit:
		id, err = l.venue.ExecuteLimitOrder(ctx, req)
	case order.Stop:
		id, err = l.venue.ExecuteStopOrder(ctx, req)
	case order.Target:
		id, err = l.venue.ExecuteTargetOrder(ctx, req)
	case order.TrailingStop:
		id, err = l.venue.ExecuteTrailingStopOrder(ctx, req)
	default:
		err = fmt.Errorf("%w: unsupported order type %v", venue.ErrOrderRejected, o.Type)
	}
	switch {
	case err == nil:
	case errors.Is(err, venue.ErrOrderRejected):
		o.Reject(err.Error())
		b.dropped(o, err.Error())
		return false, nil
	default:
		log.Warnf(log.Broker, "%s could not take %v, retrying: %v", l.name(), o, err)
		return true, nil
	}
	o.VenueOrderID = id
	l.executed[o.ID] = struct{}{}
	l.open[id] = o
	log.Infof(log.Broker, "%s accepted %v as %s", l.name(), o, id)
	return true, nil
}

// translate maps an order to venue terms using product metadata: symbol,
// price levels rounded to tick and size truncated to lot
func (l *live) translate(o *order.Order) (*venue.Request, error) {
	req := &venue.Request{
		ClientOrderID: o.ID,
		Asset:         o.Asset,
		Symbol:        o.Asset.Symbol,
		Action:        o.Action,
		Direction:     o.Direction,
		Type:          o.Type,
		Size:          o.Size,
		Limit:         o.Limit,
		Stop:          o.Stop,
		Target:        o.Target,
		StopPct:       o.StopPct,
	}
	p, ok := l.products[o.Asset]
	if !ok {
		return req, nil
	}
	if p.Symbol != "" {
		req.Symbol = p.Symbol
	}
	req.Size = truncateToLot(o.Size, p.LotSize)
	if !req.Size.IsPositive() {
		return nil, fmt.Errorf("%w: size %v below lot %v", venue.ErrOrderRejected, o.Size, p.LotSize)
	}
	req.Limit = roundToTick(o.Limit, p.PriceTick)
	req.Stop = roundToTick(o.Stop, p.PriceTick)
	req.Target = roundToTick(o.Target, p.PriceTick)
	return req, nil
}

func roundToTick(v decimal.NullDecimal, tick decimal.Decimal) decimal.NullDecimal {
	if !v.Valid || !tick.IsPositive() {
		return v
	}
	return decimal.NewNullDecimal(v.Decimal.Div(tick).Round(0).Mul(tick))
}

func truncateToLot(v, lot decimal.Decimal) decimal.Decimal {
	if !lot.IsPositive() {
		return v
	}
	return v.Div(lot).Floor().Mul(lot)
}
