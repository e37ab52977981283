package broker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

var (
	aapl  = market.NewAsset("AAPL", "IEX")
	msft  = market.NewAsset("MSFT", "IEX")
	epoch = time.Date(2020, 6, 18, 13, 30, 0, 0, time.UTC)
)

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func level(f float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(f))
}

type observer struct {
	submitted, completed, dropped []*order.Order
	transactions                  []*position.Transaction
}

func (o *observer) OnOrderSubmitted(ord *order.Order) { o.submitted = append(o.submitted, ord) }

func (o *observer) OnOrderCompleted(ord *order.Order, t *position.Transaction) {
	o.completed = append(o.completed, ord)
	o.transactions = append(o.transactions, t)
}

func (o *observer) OnOrderDropped(ord *order.Order) { o.dropped = append(o.dropped, ord) }

type fixture struct {
	b   *Broker
	c   *clock.Simulated
	p   *portfolio.Portfolio
	obs *observer
}

func newFixture(t *testing.T, cash float64) *fixture {
	t.Helper()
	c := clock.NewSimulated()
	c.Update(aapl, epoch)
	p, err := portfolio.New("USD")
	require.NoError(t, err)
	b, err := New(c, p, nil, &Settings{BaseCurrency: "usd", InitialCash: dec(cash)})
	require.NoError(t, err)
	require.NoError(t, b.SubscribeFundsToPortfolio(dec(cash)))
	obs := &observer{}
	b.SetObserver(obs)
	return &fixture{b: b, c: c, p: p, obs: obs}
}

// tick advances the asset clock by a minute and marks price
func (f *fixture) tick(t *testing.T, a market.Asset, price float64) {
	t.Helper()
	ts := f.c.CurrentTime(a)
	if f.c.Bars(a) > 0 {
		ts = ts.Add(time.Minute)
	} else {
		ts = epoch
	}
	f.c.Update(a, ts)
	p := dec(price)
	require.NoError(t, f.b.UpdatePrice(&market.Candle{Asset: a, Open: p, High: p, Low: p, Close: p, Timestamp: ts}))
}

func newOrder(t *testing.T, o order.Order) *order.Order {
	t.Helper()
	if o.Asset.IsEmpty() {
		o.Asset = aapl
	}
	if o.Direction == "" {
		o.Direction = order.Long
	}
	if o.Type == "" {
		o.Type = order.Market
	}
	if o.Size.IsZero() {
		o.Size = dec(10)
	}
	resp, err := order.New(o)
	require.NoError(t, err)
	return resp
}

func (f *fixture) openLong(t *testing.T, size float64) {
	t.Helper()
	require.NoError(t, f.b.SubmitOrder(newOrder(t, order.Order{Action: order.Buy, Size: dec(size)})))
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	require.True(t, f.p.HasPosition(aapl, order.Long))
}

func TestNew(t *testing.T) {
	t.Parallel()
	c := clock.NewSimulated()
	p, err := portfolio.New("USD")
	require.NoError(t, err)
	_, err = New(nil, p, nil, &Settings{BaseCurrency: "USD"})
	assert.ErrorIs(t, err, errNilClock)
	_, err = New(c, nil, nil, &Settings{BaseCurrency: "USD"})
	assert.ErrorIs(t, err, errNilPortfolio)
	_, err = New(c, p, nil, nil)
	assert.ErrorIs(t, err, common.ErrNilArguments)
	_, err = New(c, p, nil, &Settings{})
	assert.ErrorIs(t, err, errEmptyCurrency)
	_, err = New(c, p, nil, &Settings{BaseCurrency: "EUR"})
	assert.ErrorIs(t, err, errCurrencyMismatch)
	_, err = New(c, p, nil, &Settings{BaseCurrency: "USD", InitialCash: dec(-1)})
	assert.ErrorIs(t, err, portfolio.ErrBadAmount)

	b, err := New(c, p, nil, &Settings{BaseCurrency: "USD", SupportedCurrencies: []string{"eur"}})
	require.NoError(t, err)
	assert.False(t, b.IsLive())
	assert.Equal(t, "USD", b.BaseCurrency())
	assert.Same(t, p, b.Portfolio())
	assert.NoError(t, b.Synchronize(context.Background()))
}

func TestCashBalances(t *testing.T) {
	t.Parallel()
	c := clock.NewSimulated()
	p, err := portfolio.New("USD")
	require.NoError(t, err)
	b, err := New(c, p, nil, &Settings{BaseCurrency: "USD", SupportedCurrencies: []string{"eur"}, InitialCash: dec(100)})
	require.NoError(t, err)

	eur, err := b.CashBalance("eur")
	require.NoError(t, err)
	assert.True(t, eur.IsZero())
	_, err = b.CashBalance("GBP")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
	assert.ErrorIs(t, b.SetCashBalance("GBP", dec(1)), ErrUnknownCurrency)
	assert.ErrorIs(t, b.SetCashBalance("EUR", dec(-1)), portfolio.ErrBadAmount)
	require.NoError(t, b.SetCashBalance("EUR", dec(5)))
	eur, err = b.CashBalance("EUR")
	require.NoError(t, err)
	assert.True(t, eur.Equal(dec(5)))

	assert.ErrorIs(t, b.SubscribeFundsToPortfolio(dec(-1)), portfolio.ErrBadAmount)
	assert.ErrorIs(t, b.SubscribeFundsToPortfolio(dec(101)), portfolio.ErrInsufficientCash)
	require.NoError(t, b.SubscribeFundsToPortfolio(dec(60)))
	usd, err := b.CashBalance("USD")
	require.NoError(t, err)
	assert.True(t, usd.Equal(dec(40)))
	assert.True(t, p.Cash().Equal(dec(60)))
}

func TestMarketBuyWithSufficientCash(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	o := newOrder(t, order.Order{Action: order.Buy})
	require.NoError(t, f.b.SubmitOrder(o))
	assert.Equal(t, order.Submitted, o.Status)
	assert.Len(t, f.b.OpenOrders(), 1)

	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, o.Status)
	assert.Empty(t, f.b.OpenOrders())
	assert.True(t, f.p.Cash().Equal(dec(9000)))
	pos, ok := f.p.Positions().Position(aapl, order.Long)
	require.True(t, ok)
	assert.True(t, pos.NetSize().Equal(dec(10)))
	assert.True(t, pos.AvgPrice().Equal(dec(100)))
	assert.True(t, pos.MarketValue().Equal(dec(1000)))
	assert.True(t, f.p.TotalEquity().Equal(dec(10000)))
	assert.True(t, f.b.HasOpenedPosition(context.Background(), aapl, order.Long))

	require.Len(t, f.obs.completed, 1)
	assert.Equal(t, o, f.obs.completed[0])
	assert.Equal(t, o.ID, f.obs.transactions[0].OrderID)
	assert.Len(t, f.obs.submitted, 1)
}

func TestMaxEntryOrderSize(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1000)
	_, err := f.b.MaxEntryOrderSize(aapl, order.Long, decimal.NullDecimal{})
	assert.ErrorIs(t, err, errNoPrice)
	f.tick(t, aapl, 100)
	size, err := f.b.MaxEntryOrderSize(aapl, order.Long, decimal.NullDecimal{})
	require.NoError(t, err)
	assert.True(t, size.Equal(dec(10)))
	size, err = f.b.MaxEntryOrderSize(aapl, order.Long, level(250))
	require.NoError(t, err)
	assert.True(t, size.Equal(dec(2.5)))
	price, ok := f.b.CurrentPrice(aapl)
	assert.True(t, ok)
	assert.True(t, price.Equal(dec(100)))
}

func TestOrderWaitsForPrice(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	o := newOrder(t, order.Order{Asset: msft, Action: order.Buy})
	require.NoError(t, f.b.SubmitOrder(o))
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Submitted, o.Status)
	assert.Len(t, f.b.OpenOrders(), 1)

	f.tick(t, msft, 50)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, o.Status)
	assert.True(t, f.p.Cash().Equal(dec(9500)))
}

func TestInsufficientCashRequeuesUntilExpiry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 50)
	f.tick(t, aapl, 100)
	o := newOrder(t, order.Order{Action: order.Buy, TimeInForce: 2 * time.Minute})
	require.NoError(t, f.b.SubmitOrder(o))

	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Submitted, o.Status)
	assert.Equal(t, []*order.Order{o}, f.b.OpenOrders())
	assert.True(t, f.p.Cash().Equal(dec(50)))
	assert.False(t, f.p.HasPosition(aapl, order.Long))

	f.tick(t, aapl, 100)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Submitted, o.Status)

	f.tick(t, aapl, 100)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Expired, o.Status)
	assert.Empty(t, f.b.OpenOrders())
	assert.True(t, f.p.Cash().Equal(dec(50)))
	assert.Empty(t, f.p.History()[1:], "only the subscription is recorded")
	assert.Equal(t, []*order.Order{o}, f.obs.dropped)
}

func TestQueueIsRequeuedOrTerminal(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	orders := []*order.Order{
		newOrder(t, order.Order{Action: order.Buy}),
		newOrder(t, order.Order{Action: order.Buy, Type: order.Limit, Limit: level(90)}),
		newOrder(t, order.Order{Action: order.Buy, Type: order.Limit, Limit: level(101)}),
		newOrder(t, order.Order{Asset: msft, Action: order.Buy}),
	}
	for _, o := range orders {
		require.NoError(t, f.b.SubmitOrder(o))
	}
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	queued := make(map[string]bool)
	for _, o := range f.b.OpenOrders() {
		queued[o.ID] = true
	}
	for _, o := range orders {
		assert.True(t, o.IsTerminal() != queued[o.ID], "%v must be terminal or queued", o)
	}
	assert.Equal(t, []*order.Order{orders[1], orders[3]}, f.b.OpenOrders(), "requeue keeps submission order")
}

func TestTrailingStopTightensThenFires(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	f.openLong(t, 10)

	stop := newOrder(t, order.Order{Action: order.Sell, Type: order.TrailingStop, StopPct: level(0.05)})
	require.NoError(t, f.b.SubmitOrder(stop))
	slot, ok := f.b.ExitOrder(aapl, order.Long)
	require.True(t, ok)
	assert.Equal(t, order.Item(stop), slot)

	steps := []struct {
		price, stop float64
	}{
		{100, 95},
		{110, 104.5},
		{120, 114},
	}
	for _, s := range steps {
		f.tick(t, aapl, s.price)
		require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
		assert.True(t, stop.Stop.Decimal.Equal(dec(s.stop)), "price %v stop %v", s.price, stop.Stop.Decimal)
		assert.Equal(t, order.Submitted, stop.Status)
	}

	f.tick(t, aapl, 113)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, stop.Status)
	assert.False(t, f.p.HasPosition(aapl, order.Long))
	assert.True(t, f.p.TotalRealisedPnL().Equal(dec(130)))
	_, ok = f.b.ExitOrder(aapl, order.Long)
	assert.False(t, ok)
}

func TestBracketTargetCancelsStop(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	entry := newOrder(t, order.Order{Action: order.Buy})
	target := newOrder(t, order.Order{Action: order.Sell, Type: order.Target, Target: level(105)})
	stop := newOrder(t, order.Order{Action: order.Sell, Type: order.Stop, Stop: level(95)})
	bracket, err := order.NewBracket(entry, target, stop)
	require.NoError(t, err)

	require.NoError(t, f.b.SubmitOrder(bracket))
	assert.Equal(t, []*order.Order{entry}, f.b.OpenOrders())
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, entry.Status)
	assert.Equal(t, []*order.Order{target, stop}, f.b.OpenOrders())
	slot, ok := f.b.ExitOrder(aapl, order.Long)
	require.True(t, ok)
	assert.Equal(t, order.Item(bracket.Exits()), slot)

	f.tick(t, aapl, 105)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, target.Status)
	assert.Equal(t, order.Cancelled, stop.Status)
	assert.Equal(t, order.Completed, bracket.Status)
	assert.False(t, f.p.HasPosition(aapl, order.Long))
	assert.True(t, f.p.Cash().Equal(dec(10050)))
	assert.Empty(t, f.b.OpenOrders())
	_, ok = f.b.ExitOrder(aapl, order.Long)
	assert.False(t, ok)
}

func TestCoverSubmitsStopAfterEntry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	entry := newOrder(t, order.Order{Action: order.Buy})
	stop := newOrder(t, order.Order{Action: order.Sell, Type: order.Stop, Stop: level(95)})
	cover, err := order.NewCover(entry, stop)
	require.NoError(t, err)
	require.NoError(t, f.b.SubmitOrder(cover))
	assert.Equal(t, order.Created, stop.Status)

	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Submitted, stop.Status)
	assert.Equal(t, []*order.Order{stop}, f.b.OpenOrders())

	f.tick(t, aapl, 94)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, stop.Status)
	assert.Equal(t, order.Completed, cover.Status)
	assert.True(t, f.p.TotalRealisedPnL().Equal(dec(-60)))
}

func TestExitOrdersFoldIntoOCO(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	f.openLong(t, 10)

	stop := newOrder(t, order.Order{Action: order.Sell, Type: order.Stop, Stop: level(95)})
	require.NoError(t, f.b.SubmitOrder(stop))
	exit := newOrder(t, order.Order{Action: order.Sell})
	require.NoError(t, f.b.SubmitOrder(exit))
	slot, ok := f.b.ExitOrder(aapl, order.Long)
	require.True(t, ok)
	oco, ok := slot.(*order.OCO)
	require.True(t, ok)
	assert.ElementsMatch(t, []*order.Order{stop, exit}, oco.Leaves())

	target := newOrder(t, order.Order{Action: order.Sell, Type: order.Target, Target: level(200)})
	require.NoError(t, f.b.SubmitOrder(target))
	assert.Len(t, oco.Leaves(), 3, "a third exit joins the existing group")

	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, exit.Status)
	assert.Equal(t, order.Cancelled, stop.Status)
	assert.Equal(t, order.Cancelled, target.Status)
	assert.Empty(t, f.b.OpenOrders())
	_, ok = f.b.ExitOrder(aapl, order.Long)
	assert.False(t, ok)
	assert.False(t, f.p.HasPosition(aapl, order.Long))
}

func TestMultipleQueuesEveryLeaf(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	f.tick(t, msft, 50)
	a := newOrder(t, order.Order{Action: order.Buy})
	m := newOrder(t, order.Order{Asset: msft, Action: order.Buy})
	multi, err := order.NewMultiple(a, m)
	require.NoError(t, err)
	require.NoError(t, f.b.SubmitOrder(multi))
	assert.Len(t, f.b.OpenOrders(), 2)
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, multi.Status)
	assert.True(t, f.p.Cash().Equal(dec(8500)))

	assert.ErrorIs(t, f.b.SubmitOrder(nil), common.ErrNilArguments)
	assert.ErrorIs(t, f.b.SubmitOrder(a), order.ErrInvalidTransition)
}

func TestSubmitUnknownItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10)
	err := f.b.SubmitOrder(unknownItem{newOrder(t, order.Order{Action: order.Buy})})
	assert.ErrorIs(t, err, order.ErrInvalidComposite)
}

type unknownItem struct {
	*order.Order
}

func TestCloseAllOpenPositions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	f.tick(t, msft, 50)
	f.openLong(t, 10)
	stop := newOrder(t, order.Order{Action: order.Sell, Type: order.Stop, Stop: level(90)})
	require.NoError(t, f.b.SubmitOrder(stop))
	pending := newOrder(t, order.Order{Action: order.Buy, Type: order.Limit, Limit: level(80)})
	require.NoError(t, f.b.SubmitOrder(pending))
	other := newOrder(t, order.Order{Asset: msft, Action: order.Buy, Type: order.Limit, Limit: level(10)})
	require.NoError(t, f.b.SubmitOrder(other))

	require.NoError(t, f.b.CloseAllOpenPositions(context.Background(), aapl, true), "end of day close is disabled")
	assert.True(t, f.p.HasPosition(aapl, order.Long))
	assert.Len(t, f.b.OpenOrders(), 3)

	f.tick(t, aapl, 102)
	require.NoError(t, f.b.CloseAllOpenPositions(context.Background(), aapl, false))
	assert.False(t, f.p.HasPosition(aapl, order.Long))
	assert.Equal(t, order.Cancelled, stop.Status)
	assert.Equal(t, order.Cancelled, pending.Status)
	assert.Equal(t, []*order.Order{other}, f.b.OpenOrders())
	_, ok := f.b.ExitOrder(aapl, order.Long)
	assert.False(t, ok)
	assert.True(t, f.p.TotalRealisedPnL().Equal(dec(20)))
}

func TestCloseOnEndOfDay(t *testing.T) {
	t.Parallel()
	c := clock.NewSimulated()
	c.Update(aapl, epoch)
	p, err := portfolio.New("USD")
	require.NoError(t, err)
	b, err := New(c, p, &fee.Fixed{}, &Settings{BaseCurrency: "USD", InitialCash: dec(1000), CloseOnEndOfDay: true})
	require.NoError(t, err)
	require.NoError(t, b.SubscribeFundsToPortfolio(dec(1000)))
	require.NoError(t, b.UpdatePrice(&market.Candle{Asset: aapl, Open: dec(10), High: dec(10), Low: dec(10), Close: dec(10), Timestamp: epoch}))
	require.NoError(t, b.SubmitOrder(newOrder(t, order.Order{Action: order.Buy, Size: dec(5)})))
	require.NoError(t, b.ExecuteOpenOrders(context.Background()))
	require.True(t, p.HasPosition(aapl, order.Long))

	require.NoError(t, b.CloseAllOpenPositions(context.Background(), aapl, true))
	assert.False(t, p.HasPosition(aapl, order.Long))
	assert.True(t, p.Cash().Equal(dec(1000)))
}

func TestShortRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 10000)
	f.tick(t, aapl, 100)
	require.NoError(t, f.b.SubmitOrder(newOrder(t, order.Order{Action: order.Sell, Direction: order.Short})))
	require.NoError(t, f.b.ExecuteOpenOrders(context.Background()))
	assert.True(t, f.p.HasPosition(aapl, order.Short))
	assert.True(t, f.p.Cash().Equal(dec(11000)))

	f.tick(t, aapl, 90)
	require.NoError(t, f.b.CloseAllOpenPositions(context.Background(), aapl, false))
	assert.False(t, f.p.HasPosition(aapl, order.Short))
	assert.True(t, f.p.Cash().Equal(dec(10100)))
	assert.True(t, f.p.TotalRealisedPnL().Equal(dec(100)))
}

func TestCommissionIsCharged(t *testing.T) {
	t.Parallel()
	c := clock.NewSimulated()
	c.Update(aapl, epoch)
	p, err := portfolio.New("USD")
	require.NoError(t, err)
	b, err := New(c, p, &fee.Fixed{Commission: dec(1)}, &Settings{BaseCurrency: "USD", InitialCash: dec(1001)})
	require.NoError(t, err)
	require.NoError(t, b.SubscribeFundsToPortfolio(dec(1001)))
	require.NoError(t, b.UpdatePrice(&market.Candle{Asset: aapl, Open: dec(100), High: dec(100), Low: dec(100), Close: dec(100), Timestamp: epoch}))
	o := newOrder(t, order.Order{Action: order.Buy})
	require.NoError(t, b.SubmitOrder(o))
	require.NoError(t, b.ExecuteOpenOrders(context.Background()))
	assert.Equal(t, order.Completed, o.Status)
	assert.True(t, p.Cash().IsZero())
}
