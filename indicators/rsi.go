package indicators

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	gctta "github.com/thrasher-corp/gct-ta/indicators"
)

const rsiHistoryMultiplier = 10

// NewRsi subscribes a relative strength index to source. The index is
// recomputed over the last period*10 inputs on every push
func NewRsi(source Source[Point], period, capacity int) (*Rsi, error) {
	if source == nil {
		return nil, errNilSource
	}
	if period <= 0 {
		return nil, fmt.Errorf("rsi %w: %d", errInvalidPeriod, period)
	}
	r := &Rsi{
		RollingWindow: NewRollingWindow[Point](capacity),
		period:        period,
		maxLen:        period * rsiHistoryMultiplier,
	}
	source.Subscribe(r)
	return r, nil
}

// Push emits once more than period inputs have been observed
func (r *Rsi) Push(p Point) {
	f, _ := p.Value.Float64()
	r.history = append(r.history, f)
	if len(r.history) > r.maxLen {
		r.history = r.history[len(r.history)-r.maxLen:]
	}
	if len(r.history) <= r.period {
		return
	}
	values := gctta.RSI(r.history, r.period)
	if len(values) == 0 {
		return
	}
	last := values[len(values)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return
	}
	r.RollingWindow.Push(Point{Time: p.Time, Value: decimal.NewFromFloat(last)})
}

// Period returns the lookback period
func (r *Rsi) Period() int {
	return r.period
}
