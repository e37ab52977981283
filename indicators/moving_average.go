package indicators

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NewSma subscribes a simple moving average to source
func NewSma(source Source[Point], period, capacity int) (*Sma, error) {
	if source == nil {
		return nil, errNilSource
	}
	if period <= 0 {
		return nil, fmt.Errorf("sma %w: %d", errInvalidPeriod, period)
	}
	s := &Sma{
		RollingWindow: NewRollingWindow[Point](capacity),
		period:        period,
		inputs:        make([]decimal.Decimal, period),
	}
	source.Subscribe(s)
	return s, nil
}

// Push updates the running sum and emits once period inputs have been seen
func (s *Sma) Push(p Point) {
	s.sum = s.sum.Sub(s.inputs[s.next]).Add(p.Value)
	s.inputs[s.next] = p.Value
	s.next = (s.next + 1) % s.period
	if s.seen < s.period {
		s.seen++
		if s.seen < s.period {
			return
		}
	}
	s.RollingWindow.Push(Point{Time: p.Time, Value: s.sum.Div(decimal.NewFromInt(int64(s.period)))})
}

// Period returns the averaging period
func (s *Sma) Period() int {
	return s.period
}

// NewEma subscribes an exponential moving average to source
func NewEma(source Source[Point], period, capacity int) (*Ema, error) {
	if source == nil {
		return nil, errNilSource
	}
	if period <= 0 {
		return nil, fmt.Errorf("ema %w: %d", errInvalidPeriod, period)
	}
	e := &Ema{
		RollingWindow: NewRollingWindow[Point](capacity),
		period:        period,
		factor:        decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period) + 1)),
		warmup:        make([]decimal.Decimal, 0, period),
	}
	source.Subscribe(e)
	return e, nil
}

// Push emits the seed average on the period-th input and the smoothed value
// afterwards
func (e *Ema) Push(p Point) {
	if !e.warm {
		e.warmup = append(e.warmup, p.Value)
		if len(e.warmup) < e.period {
			return
		}
		e.ema = decimal.Sum(e.warmup[0], e.warmup[1:]...).Div(decimal.NewFromInt(int64(e.period)))
		e.warm = true
		e.warmup = nil
	} else {
		e.ema = p.Value.Mul(e.factor).Add(e.ema.Mul(decimal.NewFromInt(1).Sub(e.factor)))
	}
	e.RollingWindow.Push(Point{Time: p.Time, Value: e.ema})
}

// Period returns the smoothing period
func (e *Ema) Period() int {
	return e.period
}
