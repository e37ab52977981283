package indicators

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

type capacityNode interface {
	EnsureCapacity(int)
}

// NewManager returns an empty manager. defaultInterval is the base bar
// interval for assets without an explicit one
func NewManager(defaultInterval market.Interval) *Manager {
	if defaultInterval <= 0 {
		defaultInterval = market.OneMin
	}
	return &Manager{
		defaultInterval: defaultInterval,
		intervals:       make(map[market.Asset]market.Interval),
		candles:         make(map[market.Asset]*RollingWindow[market.Candle]),
		nodes:           make(map[nodeKey]any),
		names:           make(map[any]string),
	}
}

func (k nodeKey) String() string {
	return k.kind + "(" + k.asset.String() + "," + k.params + ")"
}

func (s Series) params(m *Manager) string {
	return m.timeframe(s.Asset, s.Timeframe).Short() + "," + strconv.Itoa(int(s.Field))
}

func memoize[T capacityNode](m *Manager, k nodeKey, capacity int, build func() (T, error)) (T, error) {
	if existing, ok := m.nodes[k]; ok {
		n, ok := existing.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("%w %v", errKindMismatch, k)
		}
		n.EnsureCapacity(capacity)
		return n, nil
	}
	n, err := build()
	if err != nil {
		return n, err
	}
	m.nodes[k] = n
	m.names[n] = k.String()
	return n, nil
}

// SetInterval sets the base bar interval of an asset
func (m *Manager) SetInterval(a market.Asset, i market.Interval) {
	if i > 0 {
		m.intervals[a] = i
	}
}

// Interval returns the base bar interval of an asset
func (m *Manager) Interval(a market.Asset) market.Interval {
	if i, ok := m.intervals[a]; ok {
		return i
	}
	return m.defaultInterval
}

func (m *Manager) timeframe(a market.Asset, tf market.Interval) market.Interval {
	if tf <= 0 {
		return m.Interval(a)
	}
	return tf
}

func (m *Manager) root(a market.Asset) *RollingWindow[market.Candle] {
	w, ok := m.candles[a]
	if !ok {
		w = NewRollingWindow[market.Candle](1)
		m.candles[a] = w
		m.names[w] = nodeKey{kind: "candles", asset: a, params: m.Interval(a).Short()}.String()
	}
	return w
}

// CandleWindow returns the candle series of an asset at a timeframe,
// aggregating from the base interval when they differ
func (m *Manager) CandleWindow(a market.Asset, timeframe market.Interval, capacity int) (Source[market.Candle], error) {
	base := m.Interval(a)
	tf := m.timeframe(a, timeframe)
	if tf == base {
		w := m.root(a)
		w.EnsureCapacity(capacity)
		return w, nil
	}
	return memoize(m, nodeKey{kind: "timeframed", asset: a, params: tf.Short()}, capacity,
		func() (*TimeFramedCandleRollingWindow, error) {
			return NewTimeFramedCandleRollingWindow(m.root(a), base, tf, capacity)
		})
}

// Price returns a memoized price window for the series
func (m *Manager) Price(s Series, capacity int) (*PriceRollingWindow, error) {
	return memoize(m, nodeKey{kind: "price", asset: s.Asset, params: s.params(m)}, capacity,
		func() (*PriceRollingWindow, error) {
			src, err := m.CandleWindow(s.Asset, s.Timeframe, 1)
			if err != nil {
				return nil, err
			}
			return NewPriceRollingWindow(src, s.Field, capacity)
		})
}

// Sma returns a memoized simple moving average of the series
func (m *Manager) Sma(s Series, period, capacity int) (*Sma, error) {
	return memoize(m, nodeKey{kind: "sma", asset: s.Asset, params: s.params(m) + "," + strconv.Itoa(period)}, capacity,
		func() (*Sma, error) {
			src, err := m.Price(s, 1)
			if err != nil {
				return nil, err
			}
			return NewSma(src, period, capacity)
		})
}

// Ema returns a memoized exponential moving average of the series
func (m *Manager) Ema(s Series, period, capacity int) (*Ema, error) {
	return memoize(m, nodeKey{kind: "ema", asset: s.Asset, params: s.params(m) + "," + strconv.Itoa(period)}, capacity,
		func() (*Ema, error) {
			src, err := m.Price(s, 1)
			if err != nil {
				return nil, err
			}
			return NewEma(src, period, capacity)
		})
}

// Rsi returns a memoized relative strength index of the series
func (m *Manager) Rsi(s Series, period, capacity int) (*Rsi, error) {
	return memoize(m, nodeKey{kind: "rsi", asset: s.Asset, params: s.params(m) + "," + strconv.Itoa(period)}, capacity,
		func() (*Rsi, error) {
			src, err := m.Price(s, 1)
			if err != nil {
				return nil, err
			}
			return NewRsi(src, period, capacity)
		})
}

// Crossover returns a memoized crossover of two nodes owned by the manager
func (m *Manager) Crossover(a, b Source[Point], capacity int) (*Crossover, error) {
	if a == nil || b == nil {
		return nil, errNilSource
	}
	nameA, okA := m.names[a]
	nameB, okB := m.names[b]
	if !okA || !okB {
		return nil, errUnmanagedSource
	}
	return memoize(m, nodeKey{kind: "crossover", params: nameA + "," + nameB}, capacity,
		func() (*Crossover, error) {
			return NewCrossover(a, b, capacity)
		})
}

// Len returns the number of memoized nodes, excluding base candle windows
func (m *Manager) Len() int {
	return len(m.nodes)
}

// PushCandle validates c and pushes it through the asset's graph
func (m *Manager) PushCandle(c *market.Candle) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.root(c.Asset).Push(*c)
	return nil
}

// Warmup pushes historical candles through the graph in timestamp order.
// Invalid candles are skipped and reported
func (m *Manager) Warmup(candles []market.Candle) error {
	sorted := make([]market.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	var errs error
	var pushed int
	for i := range sorted {
		if err := m.PushCandle(&sorted[i]); err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		pushed++
	}
	log.Infof(log.Indicators, "warmup pushed %d of %d candles", pushed, len(candles))
	return errs
}
