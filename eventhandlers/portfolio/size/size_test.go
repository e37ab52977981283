package size

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	aapl = market.NewAsset("AAPL", "IEX")
	msft = market.NewAsset("MSFT", "IEX")
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

var errNoPrice = errors.New("no price")

// fakeBroker prices every asset at price with a zero fee model
type fakeBroker struct {
	price decimal.Decimal
	cash  decimal.Decimal
}

func (f *fakeBroker) MaxEntryOrderSize(_ market.Asset, _ order.Direction, cash decimal.NullDecimal) (decimal.Decimal, error) {
	if f.price.IsZero() {
		return decimal.Zero, errNoPrice
	}
	available := f.cash
	if cash.Valid {
		available = cash.Decimal
	}
	return available.Div(f.price), nil
}

type fakePortfolio struct {
	equity decimal.Decimal
	net    map[market.Asset]map[order.Direction]decimal.Decimal
}

func (f *fakePortfolio) TotalEquity() decimal.Decimal { return f.equity }

func (f *fakePortfolio) NetSize(a market.Asset, d order.Direction) decimal.Decimal {
	return f.net[a][d]
}

func newOrder(t *testing.T, action order.Action, direction order.Direction, typ order.Type) *order.Order {
	t.Helper()
	o := order.Order{Asset: aapl, Action: action, Direction: direction, Type: typ}
	switch typ {
	case order.Stop:
		o.Stop = decimal.NewNullDecimal(dec(95))
	case order.Target:
		o.Target = decimal.NewNullDecimal(dec(110))
	}
	resp, err := order.New(o)
	require.NoError(t, err)
	return resp
}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := New(nil, &fakePortfolio{}, nil)
	assert.ErrorIs(t, err, errNilBroker)
	_, err = New(&fakeBroker{}, nil, nil)
	assert.ErrorIs(t, err, errNilPortfolio)
	_, err = New(&fakeBroker{}, &fakePortfolio{}, &Settings{MaxRisk: dec(1.5)})
	assert.ErrorIs(t, err, errInvalidRisk)
	_, err = New(&fakeBroker{}, &fakePortfolio{}, &Settings{MaxRisk: dec(-0.1)})
	assert.ErrorIs(t, err, errInvalidRisk)

	s, err := New(&fakeBroker{}, &fakePortfolio{}, nil)
	require.NoError(t, err)
	assert.True(t, s.MaxRisk().Equal(MaximumRiskPerTrade))
	assert.ErrorIs(t, s.SizeOrder(nil), common.ErrNilArguments)
}

func TestEntrySizeIsBoundByRiskAndCash(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		equity     float64
		cash       float64
		price      float64
		fractional bool
		want       string
	}{
		{"risk bound", 10000, 10000, 100, false, "10"},
		{"risk bound truncated", 10000, 10000, 30, false, "33"},
		{"cash bound", 10000, 500, 100, false, "5"},
		{"fractional", 10000, 10000, 30, true, "33.3333333333333333"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := New(&fakeBroker{price: dec(tc.price), cash: dec(tc.cash)}, &fakePortfolio{equity: dec(tc.equity)}, &Settings{FractionalSize: tc.fractional})
			require.NoError(t, err)
			o := newOrder(t, order.Buy, order.Long, order.Market)
			require.NoError(t, s.SizeOrder(o))
			assert.True(t, o.Size.Equal(decimal.RequireFromString(tc.want)), "got %v", o.Size)
		})
	}
}

func TestEntryWithoutFunds(t *testing.T) {
	t.Parallel()
	s, err := New(&fakeBroker{price: dec(100), cash: dec(50)}, &fakePortfolio{equity: dec(50)}, nil)
	require.NoError(t, err)
	o := newOrder(t, order.Buy, order.Long, order.Market)
	assert.ErrorIs(t, s.SizeOrder(o), errCannotAllocate)
	assert.True(t, o.Size.IsZero())

	s, err = New(&fakeBroker{}, &fakePortfolio{equity: dec(50)}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.SizeOrder(o), errNoPrice)
}

func TestExitUsesOpenPosition(t *testing.T) {
	t.Parallel()
	p := &fakePortfolio{
		equity: dec(10000),
		net: map[market.Asset]map[order.Direction]decimal.Decimal{
			aapl: {order.Long: dec(12), order.Short: dec(-4)},
		},
	}
	s, err := New(&fakeBroker{price: dec(100), cash: dec(10000)}, p, nil)
	require.NoError(t, err)

	sell := newOrder(t, order.Sell, order.Long, order.Market)
	require.NoError(t, s.SizeOrder(sell))
	assert.True(t, sell.Size.Equal(dec(12)))

	cover := newOrder(t, order.Buy, order.Short, order.Market)
	require.NoError(t, s.SizeOrder(cover))
	assert.True(t, cover.Size.Equal(dec(4)))

	flat, err := order.New(order.Order{Asset: msft, Action: order.Sell, Direction: order.Long, Type: order.Market})
	require.NoError(t, err)
	assert.ErrorIs(t, s.SizeOrder(flat), errCannotAllocate)
}

func TestCompositeLegsCopyInitiation(t *testing.T) {
	t.Parallel()
	s, err := New(&fakeBroker{price: dec(100), cash: dec(10000)}, &fakePortfolio{equity: dec(10000)}, nil)
	require.NoError(t, err)

	entry := newOrder(t, order.Buy, order.Long, order.Market)
	target := newOrder(t, order.Sell, order.Long, order.Target)
	stop := newOrder(t, order.Sell, order.Long, order.Stop)
	b, err := order.NewBracket(entry, target, stop)
	require.NoError(t, err)
	require.NoError(t, s.SizeOrder(b))
	for _, leaf := range b.Leaves() {
		assert.True(t, leaf.Size.Equal(dec(10)), "%v", leaf)
	}

	entry = newOrder(t, order.Buy, order.Long, order.Market)
	stop = newOrder(t, order.Sell, order.Long, order.Stop)
	c, err := order.NewCover(entry, stop)
	require.NoError(t, err)
	require.NoError(t, s.SizeOrder(c))
	assert.True(t, stop.Size.Equal(dec(10)))
}

func TestMultipleSizesEachLeaf(t *testing.T) {
	t.Parallel()
	p := &fakePortfolio{
		equity: dec(10000),
		net:    map[market.Asset]map[order.Direction]decimal.Decimal{aapl: {order.Long: dec(3)}},
	}
	s, err := New(&fakeBroker{price: dec(100), cash: dec(10000)}, p, nil)
	require.NoError(t, err)
	entry := newOrder(t, order.Sell, order.Short, order.Market)
	exit := newOrder(t, order.Sell, order.Long, order.Market)
	m, err := order.NewMultiple(entry, exit)
	require.NoError(t, err)
	require.NoError(t, s.SizeOrder(m))
	assert.True(t, entry.Size.Equal(dec(10)))
	assert.True(t, exit.Size.Equal(dec(3)))
}
