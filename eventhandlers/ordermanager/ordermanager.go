package ordermanager

import (
	"context"
	"fmt"

	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns a Manager that holds each accepted signal for barsDelay bars
// of its asset before ordering
func New(c clock.Clock, b Broker, oc Creator, s Sizer, barsDelay int64) (*Manager, error) {
	if c == nil {
		return nil, errNilClock
	}
	if b == nil {
		return nil, errNilBroker
	}
	if oc == nil {
		return nil, errNilCreator
	}
	if s == nil {
		return nil, errNilSizer
	}
	if barsDelay < 0 {
		return nil, fmt.Errorf("%w: %d", errNegativeDelay, barsDelay)
	}
	return &Manager{
		clock:     c,
		broker:    b,
		creator:   oc,
		sizer:     s,
		barsDelay: barsDelay,
	}, nil
}

// BarsDelay returns the configured delay
func (m *Manager) BarsDelay() int64 {
	return m.barsDelay
}

// CheckSignal accepts s when it is in force and either an entry without an
// open position or an exit with one. Accepted signals are queued and the
// queue is processed straight away
func (m *Manager) CheckSignal(ctx context.Context, s *signal.Signal) ([]order.Item, error) {
	if s == nil {
		return nil, common.ErrNilEvent
	}
	now := m.clock.CurrentTime(s.Asset)
	if !s.InForce(now) {
		log.Debugf(log.OrderMgr, "signal %s lapsed at %v", s.ID, now)
		return nil, nil
	}
	open := m.broker.HasOpenedPosition(ctx, s.Asset, s.Direction)
	if s.IsEntry() == open {
		log.Debugf(log.OrderMgr, "signal %s ignored, open position %v", s, open)
		return nil, nil
	}
	m.pending = append(m.pending, pendingSignal{signal: s, arrival: m.clock.Bars(s.Asset)})
	log.Infof(log.OrderMgr, "accepted signal %s", s)
	return m.ProcessSignals(ctx)
}

// ProcessSignals orders every queued signal whose delay has passed and keeps
// the rest queued. It returns the submitted orders; a signal that fails to
// become an order is dropped and its error returned
func (m *Manager) ProcessSignals(_ context.Context) ([]order.Item, error) {
	queue := m.pending
	m.pending = nil
	var submitted []order.Item
	var errs error
	for _, p := range queue {
		if p.arrival+m.barsDelay > m.clock.Bars(p.signal.Asset) {
			m.pending = append(m.pending, p)
			continue
		}
		item, err := m.order(p.signal)
		if err != nil {
			log.Warnf(log.OrderMgr, "dropping signal %s: %v", p.signal.ID, err)
			errs = common.AppendError(errs, fmt.Errorf("signal %s: %w", p.signal.ID, err))
			continue
		}
		submitted = append(submitted, item)
	}
	return submitted, errs
}

func (m *Manager) order(s *signal.Signal) (order.Item, error) {
	item, err := m.creator.CreateOrder(s)
	if err != nil {
		return nil, err
	}
	if err := m.sizer.SizeOrder(item); err != nil {
		return nil, err
	}
	if err := m.broker.SubmitOrder(item); err != nil {
		return nil, err
	}
	return item, nil
}

// PendingCount returns the number of queued signals for an asset
func (m *Manager) PendingCount(a market.Asset) int {
	var n int
	for i := range m.pending {
		if m.pending[i].signal.Asset == a {
			n++
		}
	}
	return n
}
