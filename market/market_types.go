package market

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire layout for candle timestamps
const TimestampLayout = "2006-01-02 15:04:05.999999999-07:00"

// Consts here define basic time intervals
const (
	OneMin     = Interval(time.Minute)
	FiveMin    = 5 * OneMin
	FifteenMin = 15 * OneMin
	ThirtyMin  = 30 * OneMin
	OneHour    = Interval(time.Hour)
	FourHour   = 4 * OneHour
	OneDay     = 24 * OneHour
)

var (
	// ErrInvalidCandle is returned when OHLCV values break bar invariants
	ErrInvalidCandle = errors.New("invalid candle")
	// ErrInvalidAsset is returned when an asset has no symbol or exchange
	ErrInvalidAsset = errors.New("invalid asset")
	// ErrInvalidInterval is returned when an interval is zero or negative
	ErrInvalidInterval = errors.New("invalid interval")

	errInvalidTimestamp = errors.New("invalid timestamp")
)

// Asset identifies an instrument on an exchange. It is comparable and can be
// used directly as a map key
type Asset struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

// Candle is an immutable OHLCV bar. Timestamp marks the bar open in UTC
type Candle struct {
	Asset     Asset
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Timestamp time.Time
}

// Interval is the bar timeframe
type Interval time.Duration

// PriceField selects a single price from a candle
type PriceField uint8

// Candle price fields
const (
	OpenPrice PriceField = iota
	HighPrice
	LowPrice
	ClosePrice
)

// candleJSON is the wire representation; prices are quoted strings while
// volume is written as a bare number
type candleJSON struct {
	Asset     Asset           `json:"asset"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    numeric         `json:"volume"`
	Timestamp string          `json:"timestamp"`
}

type numeric decimal.Decimal
