package ordercreator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	aapl  = market.NewAsset("AAPL", "IEX")
	epoch = time.Date(2020, 6, 18, 13, 30, 0, 0, time.UTC)
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type prices map[market.Asset]decimal.Decimal

func (p prices) CurrentPrice(a market.Asset) (decimal.Decimal, bool) {
	v, ok := p[a]
	return v, ok
}

type fixedTime time.Time

func (f fixedTime) CurrentTime(market.Asset) time.Time { return time.Time(f) }

func newSignal(t *testing.T, action order.Action, direction order.Direction) *signal.Signal {
	t.Helper()
	s, err := signal.New(aapl, action, direction, "sma", epoch, epoch, 0)
	require.NoError(t, err)
	return s
}

func newCreator(t *testing.T, s *Settings) *Creator {
	t.Helper()
	c, err := New(prices{aapl: dec(100)}, fixedTime(epoch), s)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := New(nil, fixedTime(epoch), nil)
	assert.ErrorIs(t, err, errNilPriceSource)
	_, err = New(prices{}, nil, nil)
	assert.ErrorIs(t, err, errNilTimeSource)

	tests := []struct {
		name     string
		settings Settings
		err      error
	}{
		{"unknown policy", Settings{Policy: "ladder"}, errUnknownPolicy},
		{"negative pct", Settings{LimitPct: dec(-0.1)}, errNegativePct},
		{"bad type", Settings{OrderType: "ICEBERG"}, errBadDefaultType},
		{"trailing without pct", Settings{OrderType: order.TrailingStop}, errMissingStopPct},
		{"cover without stop", Settings{Policy: Cover}, errMissingStopPct},
		{"bracket without target", Settings{Policy: Bracket, StopPct: dec(0.05)}, errMissingTarget},
		{"bracket", Settings{Policy: "BRACKET", StopPct: dec(0.05), TargetPct: dec(0.05)}, nil},
	}
	for _, tc := range tests {
		_, err := New(prices{}, fixedTime(epoch), &tc.settings)
		assert.ErrorIs(t, err, tc.err, tc.name)
	}

	c := newCreator(t, nil)
	assert.Equal(t, Plain, c.Policy())
	_, err = c.CreateOrder(nil)
	assert.ErrorIs(t, err, common.ErrNilEvent)
}

func TestPlainMarketOrder(t *testing.T) {
	t.Parallel()
	c := newCreator(t, &Settings{TimeInForce: time.Hour})
	sig := newSignal(t, order.Buy, order.Long)
	item, err := c.CreateOrder(sig)
	require.NoError(t, err)
	o, ok := item.(*order.Order)
	require.True(t, ok)
	assert.Equal(t, order.Market, o.Type)
	assert.Equal(t, order.Buy, o.Action)
	assert.Equal(t, order.Long, o.Direction)
	assert.Equal(t, sig.ID, o.SignalID)
	assert.Equal(t, epoch, o.GenerationTime)
	assert.Equal(t, time.Hour, o.TimeInForce)
	assert.Equal(t, order.Created, o.Status)
	assert.True(t, o.Size.IsZero())
	assert.False(t, o.Limit.Valid)
}

func TestPlainLevels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		typ    order.Type
		action order.Action
		dir    order.Direction
		level  float64
	}{
		{order.Limit, order.Buy, order.Long, 98},
		{order.Limit, order.Sell, order.Long, 102},
		{order.Stop, order.Buy, order.Long, 105},
		{order.Stop, order.Sell, order.Long, 95},
		{order.Target, order.Buy, order.Short, 90},
		{order.Target, order.Sell, order.Long, 110},
		{order.TrailingStop, order.Sell, order.Long, 95},
	}
	for _, tc := range tests {
		c := newCreator(t, &Settings{OrderType: tc.typ, LimitPct: dec(0.02), StopPct: dec(0.05), TargetPct: dec(0.1)})
		item, err := c.CreateOrder(newSignal(t, tc.action, tc.dir))
		require.NoError(t, err)
		o := item.(*order.Order)
		assert.Equal(t, tc.typ, o.Type)
		assert.True(t, o.Level().Decimal.Equal(dec(tc.level)), "%v %v level %v", tc.typ, tc.action, o.Level().Decimal)
	}
}

func TestLevelsNeedAPrice(t *testing.T) {
	t.Parallel()
	c, err := New(prices{}, fixedTime(epoch), &Settings{OrderType: order.Limit, LimitPct: dec(0.01)})
	require.NoError(t, err)
	_, err = c.CreateOrder(newSignal(t, order.Buy, order.Long))
	assert.ErrorIs(t, err, errNoPrice)
}

func TestCoverPolicy(t *testing.T) {
	t.Parallel()
	c := newCreator(t, &Settings{Policy: Cover, StopPct: dec(0.05)})
	item, err := c.CreateOrder(newSignal(t, order.Buy, order.Long))
	require.NoError(t, err)
	cover, ok := item.(*order.Cover)
	require.True(t, ok)
	assert.Equal(t, order.Market, cover.Initiation().Type)
	assert.Equal(t, order.Stop, cover.StopLoss().Type)
	assert.Equal(t, order.Sell, cover.StopLoss().Action)
	assert.True(t, cover.StopLoss().Stop.Decimal.Equal(dec(95)))

	trailing := newCreator(t, &Settings{Policy: Cover, StopPct: dec(0.05), TrailingStop: true})
	item, err = trailing.CreateOrder(newSignal(t, order.Sell, order.Short))
	require.NoError(t, err)
	cover = item.(*order.Cover)
	assert.Equal(t, order.TrailingStop, cover.StopLoss().Type)
	assert.Equal(t, order.Buy, cover.StopLoss().Action)
	assert.True(t, cover.StopLoss().Stop.Decimal.Equal(dec(105)))
}

func TestBracketPolicy(t *testing.T) {
	t.Parallel()
	c := newCreator(t, &Settings{Policy: Bracket, StopPct: dec(0.05), TargetPct: dec(0.05)})
	item, err := c.CreateOrder(newSignal(t, order.Buy, order.Long))
	require.NoError(t, err)
	b, ok := item.(*order.Bracket)
	require.True(t, ok)
	assert.True(t, b.Target().Target.Decimal.Equal(dec(105)))
	assert.True(t, b.StopLoss().Stop.Decimal.Equal(dec(95)))
	assert.Len(t, b.Leaves(), 3)

	item, err = c.CreateOrder(newSignal(t, order.Sell, order.Long))
	require.NoError(t, err)
	exit, ok := item.(*order.Order)
	require.True(t, ok, "exit signals are never wrapped")
	assert.Equal(t, order.Market, exit.Type)
}

func TestLevelHelpers(t *testing.T) {
	t.Parallel()
	assert.True(t, Limit(order.Buy, dec(200), dec(0.1)).Equal(dec(180)))
	assert.True(t, StopLevel(order.Sell, dec(200), dec(0.1)).Equal(dec(180)))
	assert.True(t, Target(order.Buy, dec(200), dec(0.1)).Equal(dec(180)))
	assert.True(t, Target(order.Sell, dec(200), dec(0.1)).Equal(dec(220)))
}
