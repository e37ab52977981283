package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/encoding/json"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	aapl  = market.NewAsset("AAPL", "IEX")
	msft  = market.NewAsset("MSFT", "IEX")
	epoch = time.Date(2020, 6, 18, 13, 30, 0, 0, time.UTC)
)

func newTestOrder(t *testing.T, o Order) *Order {
	t.Helper()
	if o.Asset.IsEmpty() {
		o.Asset = aapl
	}
	if o.Type == "" {
		o.Type = Market
	}
	if o.Direction == "" {
		o.Direction = Long
	}
	if o.Action == "" {
		o.Action = Buy
	}
	if o.Size.IsZero() {
		o.Size = decimal.NewFromInt(10)
	}
	resp, err := New(o)
	require.NoError(t, err)
	return resp
}

func TestIsClosing(t *testing.T) {
	t.Parallel()
	assert.True(t, IsClosing(Sell, Long))
	assert.True(t, IsClosing(Buy, Short))
	assert.False(t, IsClosing(Buy, Long))
	assert.False(t, IsClosing(Sell, Short))
}

func TestEnumHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, "buy", Buy.Lower())
	assert.Equal(t, "short", Short.Lower())
	assert.Equal(t, Buy, Long.OpeningAction())
	assert.Equal(t, Sell, Short.OpeningAction())
	assert.ErrorIs(t, Action("HOLD").Validate(), errInvalidAction)
	assert.ErrorIs(t, Direction("FLAT").Validate(), errInvalidDirection)
	assert.ErrorIs(t, Type("ICEBERG").Validate(), errInvalidType)
	assert.True(t, Expired.IsTerminal())
	assert.False(t, Submitted.IsTerminal())
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	_, err := New(Order{Asset: aapl, Action: Buy, Direction: Long, Type: Limit})
	assert.ErrorIs(t, err, errMissingLevel)
	_, err = New(Order{Asset: aapl, Action: Buy, Direction: Long, Type: Stop})
	assert.ErrorIs(t, err, errMissingLevel)
	_, err = New(Order{Asset: aapl, Action: Buy, Direction: Long, Type: Target})
	assert.ErrorIs(t, err, errMissingLevel)
	_, err = New(Order{Asset: aapl, Action: Sell, Direction: Long, Type: TrailingStop, StopPct: decimal.NewNullDecimal(decimal.Zero)})
	assert.ErrorIs(t, err, errMissingLevel)
	_, err = New(Order{Asset: aapl, Action: Buy, Direction: Long, Type: Market, Size: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, errNegativeSize)
	_, err = New(Order{Asset: market.Asset{}, Action: Buy, Direction: Long, Type: Market})
	assert.ErrorIs(t, err, market.ErrInvalidAsset)

	o := newTestOrder(t, Order{})
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, Created, o.Status)
	assert.True(t, o.IsEntry())
	assert.Len(t, o.Leaves(), 1)
}

func TestLifecycle(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{})
	assert.ErrorIs(t, o.Complete(epoch), ErrInvalidTransition)

	require.NoError(t, o.Submit(epoch))
	assert.Equal(t, Submitted, o.Status)
	assert.Equal(t, epoch, o.SubmissionTime)
	assert.ErrorIs(t, o.Submit(epoch), ErrInvalidTransition)

	require.NoError(t, o.Complete(epoch.Add(time.Minute)))
	assert.Equal(t, Completed, o.Status)

	o.Cancel()
	o.Expire()
	o.Reject("late")
	assert.Equal(t, Completed, o.Status, "terminal orders never transition")
	assert.Empty(t, o.RejectReason)
	assert.ErrorIs(t, o.Submit(epoch), ErrInvalidTransition)
}

func TestCreatedCanBeCancelled(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{})
	o.Cancel()
	assert.Equal(t, Cancelled, o.Status)
	o.Expire()
	assert.Equal(t, Cancelled, o.Status)
}

func TestReject(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{})
	require.NoError(t, o.Submit(epoch))
	o.Reject("insufficient margin")
	assert.Equal(t, Cancelled, o.Status)
	assert.Equal(t, "insufficient margin", o.RejectReason)
}

type staticTime time.Time

func (s staticTime) CurrentTime(market.Asset) time.Time { return time.Time(s) }

func TestSubmitAt(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{})
	require.NoError(t, o.SubmitAt(staticTime(epoch)))
	assert.Equal(t, epoch, o.SubmissionTime)
}

func TestInForce(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{TimeInForce: 5 * time.Minute})
	require.NoError(t, o.Submit(epoch))
	assert.True(t, o.InForce(epoch.Add(4*time.Minute)))
	assert.Equal(t, Submitted, o.Status)
	assert.False(t, o.InForce(epoch.Add(5*time.Minute)))
	assert.Equal(t, Expired, o.Status)
	assert.False(t, o.InForce(epoch.Add(6*time.Minute)))
	assert.Equal(t, Expired, o.Status)

	gtc := newTestOrder(t, Order{})
	require.NoError(t, gtc.Submit(epoch))
	assert.True(t, gtc.InForce(epoch.Add(24*365*time.Hour)))
}

type recorder struct {
	calls []int
}

func (r *recorder) OnChildComplete(index int, _ time.Time) {
	r.calls = append(r.calls, index)
}

func TestCompleteNotifiesInRegistrationOrder(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{})
	r := &recorder{}
	o.AddListener(r, 3)
	o.AddListener(r, 1)
	require.NoError(t, o.Submit(epoch))
	require.NoError(t, o.Complete(epoch))
	assert.Equal(t, []int{3, 1}, r.calls)
}

func TestLevel(t *testing.T) {
	t.Parallel()
	ten := decimal.NewNullDecimal(decimal.NewFromInt(10))
	assert.Equal(t, ten, (&Order{Type: Limit, Limit: ten}).Level())
	assert.Equal(t, ten, (&Order{Type: Stop, Stop: ten}).Level())
	assert.Equal(t, ten, (&Order{Type: TrailingStop, Stop: ten}).Level())
	assert.Equal(t, ten, (&Order{Type: Target, Target: ten}).Level())
	assert.False(t, (&Order{Type: Market}).Level().Valid)
}

func TestOrderJSONRoundTrip(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{
		Action:         Sell,
		Type:           TrailingStop,
		Stop:           decimal.NewNullDecimal(decimal.RequireFromString("104.5")),
		StopPct:        decimal.NewNullDecimal(decimal.RequireFromString("0.05")),
		SignalID:       "IEX:AAPL|sma|2020-06-18 13:30:00+00:00",
		GenerationTime: epoch,
		TimeInForce:    time.Hour,
	})
	require.NoError(t, o.Submit(epoch.Add(time.Minute)))

	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"limit":null`)

	var resp Order
	require.NoError(t, json.Unmarshal(b, &resp))
	assert.Equal(t, o.ID, resp.ID)
	assert.Equal(t, o.Asset, resp.Asset)
	assert.Equal(t, o.Action, resp.Action)
	assert.Equal(t, o.Direction, resp.Direction)
	assert.True(t, o.Size.Equal(resp.Size))
	assert.Equal(t, o.Type, resp.Type)
	assert.False(t, resp.Limit.Valid)
	assert.False(t, resp.Target.Valid)
	assert.True(t, o.Stop.Decimal.Equal(resp.Stop.Decimal))
	assert.True(t, o.StopPct.Decimal.Equal(resp.StopPct.Decimal))
	assert.Equal(t, o.SignalID, resp.SignalID)
	assert.Equal(t, o.Status, resp.Status)
	assert.True(t, o.GenerationTime.Equal(resp.GenerationTime))
	assert.True(t, o.SubmissionTime.Equal(resp.SubmissionTime))
	assert.True(t, resp.CompletionTime.IsZero())
	assert.Equal(t, o.TimeInForce, resp.TimeInForce)
}

func TestTriggered(t *testing.T) {
	t.Parallel()
	level := decimal.NewFromInt(100)
	tests := []struct {
		typ    Type
		action Action
		price  int64
		want   bool
	}{
		{Market, Buy, 1, true},
		{Limit, Buy, 100, true},
		{Limit, Buy, 101, false},
		{Limit, Sell, 101, true},
		{Limit, Sell, 99, false},
		{Target, Buy, 99, true},
		{Target, Sell, 100, true},
		{Target, Sell, 99, false},
		{Stop, Buy, 100, true},
		{Stop, Buy, 99, false},
		{Stop, Sell, 99, true},
		{Stop, Sell, 101, false},
		{TrailingStop, Sell, 100, true},
		{Type("ICEBERG"), Buy, 100, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Triggered(tc.typ, tc.action, decimal.NewFromInt(tc.price), level), "%v %v @%v", tc.typ, tc.action, tc.price)
	}
}

func TestTrailingStopSellNeverLoosens(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{Action: Sell, Type: TrailingStop, StopPct: decimal.NewNullDecimal(decimal.RequireFromString("0.05"))})
	steps := []struct {
		price, stop string
	}{
		{"100", "95"},
		{"110", "104.5"},
		{"120", "114"},
		{"113", "114"},
	}
	for _, s := range steps {
		o.Trail(decimal.RequireFromString(s.price))
		assert.True(t, o.Stop.Decimal.Equal(decimal.RequireFromString(s.stop)), "price %s stop %v", s.price, o.Stop.Decimal)
	}
	assert.True(t, Triggered(o.Type, o.Action, decimal.NewFromInt(113), o.Stop.Decimal))
}

func TestTrailingStopBuyNeverLoosens(t *testing.T) {
	t.Parallel()
	o := newTestOrder(t, Order{Action: Buy, Direction: Short, Type: TrailingStop, StopPct: decimal.NewNullDecimal(decimal.RequireFromString("0.1"))})
	o.Trail(decimal.NewFromInt(100))
	assert.True(t, o.Stop.Decimal.Equal(decimal.NewFromInt(110)))
	o.Trail(decimal.NewFromInt(90))
	assert.True(t, o.Stop.Decimal.Equal(decimal.NewFromInt(99)))
	o.Trail(decimal.NewFromInt(95))
	assert.True(t, o.Stop.Decimal.Equal(decimal.NewFromInt(99)))

	plain := newTestOrder(t, Order{})
	plain.Trail(decimal.NewFromInt(1))
	assert.False(t, plain.Stop.Valid)
}
