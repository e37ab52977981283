package indicators

import (
	"github.com/shopspring/decimal"
)

// NewCrossover subscribes to a and b. The initial state is Equal so the first
// aligned bar where a is above b reports a crossing
func NewCrossover(a, b Source[Point], capacity int) (*Crossover, error) {
	if a == nil || b == nil {
		return nil, errNilSource
	}
	c := &Crossover{RollingWindow: NewRollingWindow[Point](capacity)}
	a.Subscribe(crossoverLeg{c: c, side: 0})
	b.Subscribe(crossoverLeg{c: c, side: 1})
	return c, nil
}

// Push forwards a leg's value to its crossover
func (l crossoverLeg) Push(p Point) {
	l.c.update(l.side, p)
}

func (c *Crossover) update(side int, p Point) {
	c.latest[side] = p
	c.has[side] = true
	if !c.has[0] || !c.has[1] || !c.latest[0].Time.Equal(c.latest[1].Time) {
		return
	}
	if !c.computed.IsZero() && c.computed.Equal(p.Time) {
		return
	}
	c.computed = p.Time

	next := CrossState(c.latest[0].Value.Sub(c.latest[1].Value).Sign())
	out := int64(0)
	if next != c.state {
		switch next {
		case Above:
			out = 1
		case Below:
			out = -1
		}
	}
	c.state = next
	c.RollingWindow.Push(Point{Time: p.Time, Value: decimal.NewFromInt(out)})
}

// State returns the last observed sign of a-b
func (c *Crossover) State() CrossState {
	return c.state
}
