package market

import (
	"fmt"
	"strings"
	"time"
)

// ParseInterval parses a Go duration string such as 1m or 4h
func ParseInterval(s string) (Interval, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrInvalidInterval, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w %q", ErrInvalidInterval, s)
	}
	return Interval(d), nil
}

// Duration returns interval casted as time.Duration for compatibility
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

// String returns numeric string
func (i Interval) String() string {
	return i.Duration().String()
}

// Short returns short string version of interval
func (i Interval) Short() string {
	s := i.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// Truncate aligns t to the start of the interval bucket containing it
func (i Interval) Truncate(t time.Time) time.Time {
	if i <= 0 {
		return t
	}
	return t.Truncate(i.Duration())
}

// TotalCandlesPerInterval turns total candles per period for interval
func TotalCandlesPerInterval(start, end time.Time, interval Interval) int64 {
	if interval <= 0 {
		return 0
	}
	return int64(end.Sub(start)) / int64(interval)
}
