package kline

import (
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/market"
)

// Kline wraps a candle as a MarketData event
type Kline struct {
	event.Base
	Candle market.Candle
}

// New returns a MarketData event for c
func New(c *market.Candle) *Kline {
	return &Kline{
		Base: event.Base{
			Asset: c.Asset,
			Time:  c.Timestamp,
		},
		Candle: *c,
	}
}

// Kind implements event.Handler
func (k *Kline) Kind() event.Kind {
	return event.MarketData
}

// GetClosePrice returns the closing price of a kline
func (k *Kline) GetClosePrice() decimal.Decimal {
	return k.Candle.Close
}

// GetHighPrice returns the high price of a kline
func (k *Kline) GetHighPrice() decimal.Decimal {
	return k.Candle.High
}

// GetLowPrice returns the low price of a kline
func (k *Kline) GetLowPrice() decimal.Decimal {
	return k.Candle.Low
}

// GetOpenPrice returns the open price of a kline
func (k *Kline) GetOpenPrice() decimal.Decimal {
	return k.Candle.Open
}

// GetVolume returns the volume of a kline
func (k *Kline) GetVolume() decimal.Decimal {
	return k.Candle.Volume
}
