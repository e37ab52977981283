package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/encoding/json"
)

// Validate enforces low <= open,close <= high and volume >= 0
func (c *Candle) Validate() error {
	if err := c.Asset.Validate(); err != nil {
		return err
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("%w %v: %w", ErrInvalidCandle, c.Asset, errInvalidTimestamp)
	}
	if c.Low.GreaterThan(c.Open) || c.Low.GreaterThan(c.Close) ||
		c.High.LessThan(c.Open) || c.High.LessThan(c.Close) {
		return fmt.Errorf("%w %v %v: low %v open %v close %v high %v",
			ErrInvalidCandle, c.Asset, c.Timestamp, c.Low, c.Open, c.Close, c.High)
	}
	if c.Volume.IsNegative() {
		return fmt.Errorf("%w %v %v: negative volume %v", ErrInvalidCandle, c.Asset, c.Timestamp, c.Volume)
	}
	return nil
}

// Price returns the requested field
func (c *Candle) Price(f PriceField) decimal.Decimal {
	switch f {
	case OpenPrice:
		return c.Open
	case HighPrice:
		return c.High
	case LowPrice:
		return c.Low
	default:
		return c.Close
	}
}

// Equal compares numerically rather than by decimal representation
func (c *Candle) Equal(o *Candle) bool {
	return c.Asset == o.Asset &&
		c.Open.Equal(o.Open) &&
		c.High.Equal(o.High) &&
		c.Low.Equal(o.Low) &&
		c.Close.Equal(o.Close) &&
		c.Volume.Equal(o.Volume) &&
		c.Timestamp.Equal(o.Timestamp)
}

// ParseTimestamp accepts the wire layout as well as RFC 3339 and always
// returns UTC
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		var rfcErr error
		t, rfcErr = time.Parse(time.RFC3339Nano, s)
		if rfcErr != nil {
			return time.Time{}, fmt.Errorf("%w %q: %v", errInvalidTimestamp, s, err)
		}
	}
	return t.UTC(), nil
}

// FormatTimestamp renders t in the wire layout in UTC
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON implements json.Marshaler
func (c Candle) MarshalJSON() ([]byte, error) {
	return json.Marshal(candleJSON{
		Asset:     c.Asset,
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    numeric(c.Volume),
		Timestamp: FormatTimestamp(c.Timestamp),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Candle) UnmarshalJSON(data []byte) error {
	var resp candleJSON
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	ts, err := ParseTimestamp(resp.Timestamp)
	if err != nil {
		return err
	}
	*c = Candle{
		Asset:     resp.Asset,
		Open:      resp.Open,
		High:      resp.High,
		Low:       resp.Low,
		Close:     resp.Close,
		Volume:    decimal.Decimal(resp.Volume),
		Timestamp: ts,
	}
	return nil
}

// MarshalJSON writes the value as an unquoted JSON number
func (n numeric) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted string
func (n *numeric) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = numeric(d)
	return nil
}
