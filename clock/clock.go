package clock

import (
	"fmt"
	"time"

	"github.com/thrasher-corp/tradecore/market"
)

// SetSessionClose sets the UTC time of day at which EndOfDay fires. A
// negative duration disables end of day reporting
func (s *session) SetSessionClose(d time.Duration) error {
	if d >= 24*time.Hour {
		return fmt.Errorf("%w: %v", errInvalidSessionClose, d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasClose = d >= 0
	s.close = d
	return nil
}

// endOfDay reports true the first time now reaches the session close on a
// given UTC day
func (s *session) endOfDay(a market.Asset, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasClose || now.IsZero() {
		return false
	}
	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	if now.Sub(day) < s.close {
		return false
	}
	if s.reported == nil {
		s.reported = make(map[market.Asset]time.Time)
	}
	if last, ok := s.reported[a]; ok && last.Equal(day) {
		return false
	}
	s.reported[a] = day
	return true
}

// NewLive returns a wall clock
func NewLive() *Live {
	return &Live{now: time.Now}
}

// CurrentTime returns wall time in UTC
func (l *Live) CurrentTime(market.Asset) time.Time {
	return l.now().UTC()
}

// Update is a no-op for the live clock
func (l *Live) Update(market.Asset, time.Time) {}

// Bars always returns zero for the live clock
func (l *Live) Bars(market.Asset) int64 {
	return 0
}

// EndOfDay reports whether the session close has passed today
func (l *Live) EndOfDay(a market.Asset) bool {
	return l.endOfDay(a, l.CurrentTime(a))
}

// NewSimulated returns a clock driven by bar timestamps
func NewSimulated() *Simulated {
	return &Simulated{
		times: make(map[market.Asset]time.Time),
		bars:  make(map[market.Asset]int64),
	}
}

// Update sets the asset's time and increments its bar count
func (s *Simulated) Update(a market.Asset, ts time.Time) {
	s.m.Lock()
	s.times[a] = ts.UTC()
	s.bars[a]++
	s.m.Unlock()
}

// CurrentTime returns the asset's simulated time, or wall time if the asset
// has not been updated yet
func (s *Simulated) CurrentTime(a market.Asset) time.Time {
	s.m.RLock()
	defer s.m.RUnlock()
	if t, ok := s.times[a]; ok {
		return t
	}
	return time.Now().UTC()
}

// Bars returns the number of updates seen for the asset
func (s *Simulated) Bars(a market.Asset) int64 {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.bars[a]
}

// BarCount returns the number of updates seen for the asset and fails for an
// asset that has never been updated
func (s *Simulated) BarCount(a market.Asset) (int64, error) {
	s.m.RLock()
	defer s.m.RUnlock()
	b, ok := s.bars[a]
	if !ok {
		return 0, fmt.Errorf("%w %v", ErrUnknownAsset, a)
	}
	return b, nil
}

// EndOfDay reports whether the asset's simulated time has reached the
// session close for its current day
func (s *Simulated) EndOfDay(a market.Asset) bool {
	s.m.RLock()
	t, ok := s.times[a]
	s.m.RUnlock()
	if !ok {
		return false
	}
	return s.endOfDay(a, t)
}
