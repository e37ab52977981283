// Package database replays candles stored by the candle repository
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	errNilSource    = errors.New("nil candle source")
	errInvalidRange = errors.New("end must be after start")
)

// CandleSource loads stored candles for one asset
type CandleSource interface {
	GetCandlesInRange(ctx context.Context, a market.Asset, interval market.Interval, start, end time.Time) ([]market.Candle, error)
}

// Feed replays candles of every asset between start and end
type Feed struct {
	*data.Historical
	source   CandleSource
	interval market.Interval
	start    time.Time
	end      time.Time
	started  bool
}

// New returns a database feed
func New(sink data.Sink, source CandleSource, assets []market.Asset, interval market.Interval, start, end time.Time) (*Feed, error) {
	if source == nil {
		return nil, errNilSource
	}
	if start.IsZero() || end.IsZero() {
		return nil, common.ErrDateUnset
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: %v %v", errInvalidRange, start, end)
	}
	h, err := data.NewHistorical(sink, assets)
	if err != nil {
		return nil, err
	}
	return &Feed{
		Historical: h,
		source:     source,
		interval:   interval,
		start:      start,
		end:        end,
	}, nil
}

// Start queries the candles of every asset
func (f *Feed) Start(ctx context.Context) error {
	if f.started {
		return data.ErrAlreadyStarted
	}
	f.started = true
	var errs error
	for _, a := range f.Assets() {
		candles, err := f.source.GetCandlesInRange(ctx, a, f.interval, f.start, f.end)
		if err != nil {
			errs = common.AppendError(errs, fmt.Errorf("%v: %w", a, err))
			continue
		}
		if err := f.Load(candles); err != nil {
			errs = common.AppendError(errs, err)
		}
		log.Infof(log.Data, "loaded %d %v candles for %v between %v and %v", len(candles), f.interval, a, f.start, f.end)
	}
	return errs
}
