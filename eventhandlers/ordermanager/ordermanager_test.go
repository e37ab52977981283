package ordermanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	aapl  = market.NewAsset("AAPL", "IEX")
	msft  = market.NewAsset("MSFT", "IEX")
	epoch = time.Date(2020, 6, 18, 13, 30, 0, 0, time.UTC)
)

type fakeBroker struct {
	open      map[market.Asset]bool
	submitted []order.Item
	err       error
}

func (f *fakeBroker) HasOpenedPosition(_ context.Context, a market.Asset, _ order.Direction) bool {
	return f.open[a]
}

func (f *fakeBroker) SubmitOrder(i order.Item) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, i)
	return nil
}

type fakeCreator struct {
	err error
}

func (f *fakeCreator) CreateOrder(s *signal.Signal) (order.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return order.New(order.Order{Asset: s.Asset, Action: s.Action, Direction: s.Direction, Type: order.Market, SignalID: s.ID})
}

type fakeSizer struct {
	err error
}

func (f *fakeSizer) SizeOrder(i order.Item) error {
	if f.err != nil {
		return f.err
	}
	for _, l := range i.Leaves() {
		l.Size = decimal.NewFromInt(10)
	}
	return nil
}

type fixture struct {
	m       *Manager
	c       *clock.Simulated
	broker  *fakeBroker
	creator *fakeCreator
	sizer   *fakeSizer
}

func newFixture(t *testing.T, delay int64) *fixture {
	t.Helper()
	f := &fixture{
		c:       clock.NewSimulated(),
		broker:  &fakeBroker{open: make(map[market.Asset]bool)},
		creator: &fakeCreator{},
		sizer:   &fakeSizer{},
	}
	f.c.Update(aapl, epoch)
	m, err := New(f.c, f.broker, f.creator, f.sizer, delay)
	require.NoError(t, err)
	f.m = m
	return f
}

func newSignal(t *testing.T, a market.Asset, action order.Action, tif time.Duration) *signal.Signal {
	t.Helper()
	s, err := signal.New(a, action, order.Long, "sma", epoch, epoch, tif)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	t.Parallel()
	c := clock.NewSimulated()
	_, err := New(nil, &fakeBroker{}, &fakeCreator{}, &fakeSizer{}, 0)
	assert.ErrorIs(t, err, errNilClock)
	_, err = New(c, nil, &fakeCreator{}, &fakeSizer{}, 0)
	assert.ErrorIs(t, err, errNilBroker)
	_, err = New(c, &fakeBroker{}, nil, &fakeSizer{}, 0)
	assert.ErrorIs(t, err, errNilCreator)
	_, err = New(c, &fakeBroker{}, &fakeCreator{}, nil, 0)
	assert.ErrorIs(t, err, errNilSizer)
	_, err = New(c, &fakeBroker{}, &fakeCreator{}, &fakeSizer{}, -1)
	assert.ErrorIs(t, err, errNegativeDelay)
	m, err := New(c, &fakeBroker{}, &fakeCreator{}, &fakeSizer{}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.BarsDelay())
	_, err = m.CheckSignal(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrNilEvent)
}

func TestCheckSignalAcceptance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		action   order.Action
		open     bool
		accepted bool
	}{
		{"entry while flat", order.Buy, false, true},
		{"entry while open", order.Buy, true, false},
		{"exit while open", order.Sell, true, true},
		{"exit while flat", order.Sell, false, false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, 0)
			f.broker.open[aapl] = tc.open
			items, err := f.m.CheckSignal(context.Background(), newSignal(t, aapl, tc.action, 0))
			require.NoError(t, err)
			if !tc.accepted {
				assert.Empty(t, items)
				assert.Empty(t, f.broker.submitted)
				return
			}
			require.Len(t, items, 1)
			assert.Equal(t, items, f.broker.submitted)
			o := items[0].(*order.Order)
			assert.True(t, o.Size.Equal(decimal.NewFromInt(10)))
		})
	}
}

func TestLapsedSignalIsIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 0)
	f.c.Update(aapl, epoch.Add(2*time.Minute))
	items, err := f.m.CheckSignal(context.Background(), newSignal(t, aapl, order.Buy, time.Minute))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, f.m.PendingCount(aapl))
}

func TestBarsDelay(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2)
	ctx := context.Background()
	items, err := f.m.CheckSignal(ctx, newSignal(t, aapl, order.Buy, 0))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, f.m.PendingCount(aapl))
	assert.Zero(t, f.m.PendingCount(msft))

	f.c.Update(aapl, epoch.Add(time.Minute))
	items, err = f.m.ProcessSignals(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	f.c.Update(msft, epoch.Add(time.Minute))
	f.c.Update(msft, epoch.Add(2*time.Minute))
	items, err = f.m.ProcessSignals(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "only bars of the signal's asset count")

	f.c.Update(aapl, epoch.Add(2*time.Minute))
	items, err = f.m.ProcessSignals(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Zero(t, f.m.PendingCount(aapl))
}

func TestFailedSignalsAreDropped(t *testing.T) {
	t.Parallel()
	errBoom := errors.New("boom")
	ctx := context.Background()

	f := newFixture(t, 0)
	f.creator.err = errBoom
	_, err := f.m.CheckSignal(ctx, newSignal(t, aapl, order.Buy, 0))
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, f.m.PendingCount(aapl))

	f = newFixture(t, 0)
	f.sizer.err = errBoom
	_, err = f.m.CheckSignal(ctx, newSignal(t, aapl, order.Buy, 0))
	assert.ErrorIs(t, err, errBoom)

	f = newFixture(t, 0)
	f.broker.err = order.ErrInvalidComposite
	_, err = f.m.CheckSignal(ctx, newSignal(t, aapl, order.Buy, 0))
	assert.ErrorIs(t, err, order.ErrInvalidComposite)
	assert.Zero(t, f.m.PendingCount(aapl))
}
