package base

import (
	"fmt"
	"strconv"
	"time"

	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// IsNew records t as the latest indicator point for a and reports whether it
// is newer than the previous one
func (s *Strategy) IsNew(a market.Asset, t time.Time) bool {
	if s.lastPoint == nil {
		s.lastPoint = make(map[market.Asset]time.Time)
	}
	if last, ok := s.lastPoint[a]; ok && !t.After(last) {
		return false
	}
	s.lastPoint[a] = t
	return true
}

// NewSignal builds a signal for the bar at root and remembers it as the
// asset's last signal
func (s *Strategy) NewSignal(strategyID string, a market.Asset, action order.Action, direction order.Direction, root, now time.Time) (*signal.Signal, error) {
	sig, err := signal.New(a, action, direction, strategyID, root, now, s.TimeInForce)
	if err != nil {
		return nil, err
	}
	if s.lastSignal == nil {
		s.lastSignal = make(map[market.Asset]*signal.Signal)
	}
	s.lastSignal[a] = sig
	log.Infof(log.Strategy, "%s signalled %s %s for %v at %v", strategyID, action, direction, a, root)
	return sig, nil
}

// LastSignal returns the most recent signal emitted for an asset
func (s *Strategy) LastSignal(a market.Asset) (*signal.Signal, bool) {
	sig, ok := s.lastSignal[a]
	return sig, ok
}

// Float parses a numeric custom setting. Configuration decoders produce
// float64, int or string values depending on the source format
func Float(key string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %s value %v is not a number", ErrInvalidCustomSettings, key, v)
}

// PositiveInt parses a whole positive custom setting
func PositiveInt(key string, v any) (int, error) {
	f, err := Float(key, v)
	if err != nil {
		return 0, err
	}
	if f <= 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: %s must be a positive whole number, received %v", ErrInvalidCustomSettings, key, v)
	}
	return int(f), nil
}

// Interval parses a timeframe custom setting such as "5m"
func Interval(key string, v any) (market.Interval, error) {
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s value %v is not a timeframe", ErrInvalidCustomSettings, key, v)
	}
	i, err := market.ParseInterval(str)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidCustomSettings, key, err)
	}
	return i, nil
}

// Duration parses a duration custom setting such as "90m"
func Duration(key string, v any) (time.Duration, error) {
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s value %v is not a duration", ErrInvalidCustomSettings, key, v)
	}
	d, err := time.ParseDuration(str)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s value %q is not a valid duration", ErrInvalidCustomSettings, key, str)
	}
	return d, nil
}
