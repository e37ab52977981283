package event

import (
	"strings"
	"time"

	"github.com/thrasher-corp/tradecore/market"
)

// GetAsset returns the asset the event refers to
func (b *Base) GetAsset() market.Asset {
	return b.Asset
}

// GetTime returns the event time
func (b *Base) GetTime() time.Time {
	return b.Time
}

// GetBarsDelay returns how many bars of the event's asset must pass before
// the event is dispatched
func (b *Base) GetBarsDelay() int64 {
	return b.BarsDelay
}

// SetBarsDelay sets the delay, negative values are treated as zero
func (b *Base) SetBarsDelay(d int64) {
	if d < 0 {
		d = 0
	}
	b.BarsDelay = d
}

// DecrementBarsDelay reduces the delay by one bar without going below zero
func (b *Base) DecrementBarsDelay() {
	if b.BarsDelay > 0 {
		b.BarsDelay--
	}
}

// GetReason returns the accumulated reasons
func (b *Base) GetReason() string {
	return b.Reason
}

// AppendReason adds a reason to the event, separated by a full stop
func (b *Base) AppendReason(y string) {
	y = strings.TrimSpace(y)
	if y == "" {
		return
	}
	if b.Reason == "" {
		b.Reason = y
		return
	}
	b.Reason += ". " + y
}
