package indicators

import (
	"fmt"

	"github.com/thrasher-corp/tradecore/market"
)

// NewTimeFramedCandleRollingWindow subscribes to a base interval candle source
// and emits aggregated timeframe candles
func NewTimeFramedCandleRollingWindow(source Source[market.Candle], base, timeframe market.Interval, capacity int) (*TimeFramedCandleRollingWindow, error) {
	if source == nil {
		return nil, errNilSource
	}
	if base <= 0 || timeframe < base || timeframe%base != 0 {
		return nil, fmt.Errorf("%w: base %v timeframe %v", errInvalidTimeframe, base, timeframe)
	}
	w := &TimeFramedCandleRollingWindow{
		RollingWindow: NewRollingWindow[market.Candle](capacity),
		base:          base,
		timeframe:     timeframe,
	}
	source.Subscribe(w)
	return w, nil
}

// Push merges a base candle into the current timeframe bar. A candle from a
// later bucket flushes any unfinished bar first
func (w *TimeFramedCandleRollingWindow) Push(c market.Candle) {
	bucket := w.timeframe.Truncate(c.Timestamp)
	if w.partial != nil && !w.partial.Timestamp.Equal(bucket) {
		if bucket.Before(w.partial.Timestamp) {
			return
		}
		w.flush()
	}
	if w.partial == nil {
		p := c
		p.Timestamp = bucket
		w.partial = &p
	} else {
		if c.High.GreaterThan(w.partial.High) {
			w.partial.High = c.High
		}
		if c.Low.LessThan(w.partial.Low) {
			w.partial.Low = c.Low
		}
		w.partial.Close = c.Close
		w.partial.Volume = w.partial.Volume.Add(c.Volume)
	}
	if !c.Timestamp.Add(w.base.Duration()).Before(bucket.Add(w.timeframe.Duration())) {
		w.flush()
	}
}

func (w *TimeFramedCandleRollingWindow) flush() {
	done := *w.partial
	w.partial = nil
	w.RollingWindow.Push(done)
}

// Timeframe returns the aggregated interval
func (w *TimeFramedCandleRollingWindow) Timeframe() market.Interval {
	return w.timeframe
}

// NewPriceRollingWindow subscribes to a candle source and keeps one price
// field of each candle
func NewPriceRollingWindow(source Source[market.Candle], field market.PriceField, capacity int) (*PriceRollingWindow, error) {
	if source == nil {
		return nil, errNilSource
	}
	w := &PriceRollingWindow{
		RollingWindow: NewRollingWindow[Point](capacity),
		field:         field,
	}
	source.Subscribe(w)
	return w, nil
}

// Push extracts the configured price from c
func (w *PriceRollingWindow) Push(c market.Candle) {
	w.RollingWindow.Push(Point{Time: c.Timestamp, Value: c.Price(w.field)})
}
