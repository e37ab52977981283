package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	aapl = market.NewAsset("AAPL", "IEX")
	msft = market.NewAsset("MSFT", "IEX")
	day  = time.Date(2020, 6, 18, 0, 0, 0, 0, time.UTC)
)

func TestSimulated(t *testing.T) {
	t.Parallel()
	c := NewSimulated()
	assert.WithinDuration(t, time.Now().UTC(), c.CurrentTime(aapl), time.Minute)
	assert.Zero(t, c.Bars(aapl))
	_, err := c.BarCount(aapl)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	c.Update(aapl, day.Add(time.Hour))
	c.Update(aapl, day.Add(2*time.Hour))
	assert.Equal(t, day.Add(2*time.Hour), c.CurrentTime(aapl))
	assert.Equal(t, int64(2), c.Bars(aapl))
	b, err := c.BarCount(aapl)
	require.NoError(t, err)
	assert.Equal(t, int64(2), b)
	assert.Zero(t, c.Bars(msft))
}

func TestSimulatedConcurrentUpdates(t *testing.T) {
	t.Parallel()
	c := NewSimulated()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Update(aapl, day.Add(time.Duration(i)*time.Minute))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Bars(aapl))
}

func TestSimulatedEndOfDay(t *testing.T) {
	t.Parallel()
	c := NewSimulated()
	c.Update(aapl, day.Add(20*time.Hour))
	assert.False(t, c.EndOfDay(aapl), "no session close configured")

	require.ErrorIs(t, c.SetSessionClose(25*time.Hour), errInvalidSessionClose)
	require.NoError(t, c.SetSessionClose(20*time.Hour))
	assert.False(t, c.EndOfDay(msft), "unknown asset")

	c.Update(aapl, day.Add(19*time.Hour+59*time.Minute))
	assert.False(t, c.EndOfDay(aapl))
	c.Update(aapl, day.Add(20*time.Hour))
	assert.True(t, c.EndOfDay(aapl))
	c.Update(aapl, day.Add(20*time.Hour+time.Minute))
	assert.False(t, c.EndOfDay(aapl), "reported once per day")

	c.Update(aapl, day.Add(44*time.Hour))
	assert.True(t, c.EndOfDay(aapl))

	require.NoError(t, c.SetSessionClose(-1))
	c.Update(aapl, day.Add(68*time.Hour))
	assert.False(t, c.EndOfDay(aapl))
}

func TestLive(t *testing.T) {
	t.Parallel()
	fixed := day.Add(21 * time.Hour)
	l := NewLive()
	l.now = func() time.Time { return fixed }
	l.Update(aapl, day)
	assert.Equal(t, fixed, l.CurrentTime(aapl))
	assert.Zero(t, l.Bars(aapl))
	assert.False(t, l.EndOfDay(aapl))

	require.NoError(t, l.SetSessionClose(20*time.Hour))
	assert.True(t, l.EndOfDay(aapl))
	assert.False(t, l.EndOfDay(aapl))

	var c Clock = l
	assert.NotNil(t, c)
	c = NewSimulated()
	assert.NotNil(t, c)
}
