package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/eventhandlers/eventholder"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/eventtypes/kline"
	"github.com/thrasher-corp/tradecore/market"
)

var aapl = market.NewAsset("AAPL", "IEX")

// fakeReader hands out queued messages then blocks until cancelled or fails
// with err
type fakeReader struct {
	messages chan kafka.Message
	err      error
	closed   bool
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m, ok := <-f.messages:
		if !ok {
			return kafka.Message{}, f.err
		}
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestNew(t *testing.T) {
	t.Parallel()
	holder := &eventholder.Holder{}
	_, err := New(holder, []market.Asset{aapl}, nil)
	assert.ErrorIs(t, err, errNoBrokers)
	_, err = New(holder, []market.Asset{aapl}, &Config{Brokers: []string{"localhost:9092"}})
	assert.ErrorIs(t, err, errNoTopic)
	_, err = New(holder, nil, &Config{Brokers: []string{"localhost:9092"}, Topic: "candles"})
	assert.ErrorIs(t, err, data.ErrNoAssets)
	f, err := New(holder, []market.Asset{aapl}, &Config{Brokers: []string{"localhost:9092"}, Topic: "candles"})
	require.NoError(t, err)
	assert.NoError(t, f.reader.Close())
}

func TestConsume(t *testing.T) {
	t.Parallel()
	holder := &eventholder.Holder{}
	r := &fakeReader{messages: make(chan kafka.Message, 4)}
	f, err := newFeed(holder, []market.Asset{aapl}, r)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Stop(), data.ErrNotStarted)

	r.messages <- kafka.Message{Offset: 1, Value: []byte(`not json`)}
	r.messages <- kafka.Message{Offset: 2, Value: []byte(`{"asset":{"symbol":"MSFT","exchange":"IEX"},"open":"1","high":"1","low":"1","close":"1","volume":1,"timestamp":"2020-06-18 13:30:00+00:00"}`)}
	r.messages <- kafka.Message{Offset: 3, Value: []byte(`{"asset":{"symbol":"AAPL","exchange":"IEX"},"open":"100","high":"101","low":"99","close":"100.5","volume":1200,"timestamp":"2020-06-18 13:30:00+00:00"}`)}

	ctx := context.Background()
	require.NoError(t, f.Start(ctx))
	assert.ErrorIs(t, f.Start(ctx), data.ErrAlreadyStarted)
	require.Eventually(t, func() bool { return holder.Len() == 1 }, time.Second, time.Millisecond)
	k, ok := holder.NextEvent().(*kline.Kline)
	require.True(t, ok)
	assert.Equal(t, aapl, k.Candle.Asset)
	assert.Equal(t, "100.5", k.Candle.Close.String())

	require.NoError(t, f.Stop())
	assert.True(t, r.closed)
	assert.True(t, f.Ended())
	require.Equal(t, 1, holder.Len())
	assert.Equal(t, event.MarketDataEnd, holder.NextEvent().Kind())
	assert.NoError(t, f.UpdateLatestData(ctx))
}

func TestConsumeFailure(t *testing.T) {
	t.Parallel()
	holder := &eventholder.Holder{}
	errBroker := errors.New("leader not available")
	r := &fakeReader{messages: make(chan kafka.Message), err: errBroker}
	f, err := newFeed(holder, []market.Asset{aapl}, r)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))
	close(r.messages)
	require.Eventually(t, f.Ended, time.Second, time.Millisecond)
	assert.ErrorIs(t, f.UpdateLatestData(context.Background()), errBroker)
	require.NoError(t, f.Stop())
}
