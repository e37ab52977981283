package data

import (
	"context"
	"fmt"
	"sort"

	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventtypes/control"
	"github.com/thrasher-corp/tradecore/eventtypes/kline"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

// NewHistorical returns an empty replay for assets. Same timestamp candles
// are emitted in the order assets are listed
func NewHistorical(sink Sink, assets []market.Asset) (*Historical, error) {
	if sink == nil {
		return nil, errNilSink
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	h := &Historical{
		sink:   sink,
		assets: make([]market.Asset, 0, len(assets)),
		order:  make(map[market.Asset]int, len(assets)),
	}
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, ok := h.order[a]; ok {
			continue
		}
		h.order[a] = len(h.assets)
		h.assets = append(h.assets, a)
	}
	return h, nil
}

// Load adds candles to the replay. Invalid candles and candles of assets the
// replay was not created for are skipped and reported
func (h *Historical) Load(candles []market.Candle) error {
	var errs error
	for i := range candles {
		if _, ok := h.order[candles[i].Asset]; !ok {
			errs = common.AppendError(errs, fmt.Errorf("%w %v", errUnexpectedAsset, candles[i].Asset))
			continue
		}
		if err := candles[i].Validate(); err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		h.candles = append(h.candles, candles[i])
	}
	remaining := h.candles[h.offset:]
	sort.SliceStable(remaining, func(i, j int) bool {
		if !remaining[i].Timestamp.Equal(remaining[j].Timestamp) {
			return remaining[i].Timestamp.Before(remaining[j].Timestamp)
		}
		return h.order[remaining[i].Asset] < h.order[remaining[j].Asset]
	})
	return errs
}

// UpdateLatestData emits every candle sharing the next timestamp. Once the
// candles are exhausted it emits one MarketDataEnd per asset, then nothing
func (h *Historical) UpdateLatestData(context.Context) error {
	if h.finished {
		return nil
	}
	if h.offset >= len(h.candles) {
		h.finish()
		return nil
	}
	ts := h.candles[h.offset].Timestamp
	for h.offset < len(h.candles) && h.candles[h.offset].Timestamp.Equal(ts) {
		h.sink.AppendEvent(kline.New(&h.candles[h.offset]))
		h.offset++
	}
	return nil
}

func (h *Historical) finish() {
	h.finished = true
	var last market.Candle
	if len(h.candles) > 0 {
		last = h.candles[len(h.candles)-1]
	}
	for _, a := range h.assets {
		h.sink.AppendEvent(control.NewDataEnd(a, last.Timestamp))
	}
	log.Infof(log.Data, "historical replay finished after %d candles", h.offset)
}

// Stop skips the remaining candles so the next update finishes the replay
func (h *Historical) Stop() error {
	h.offset = len(h.candles)
	return nil
}

// Assets returns the replayed assets in emission order
func (h *Historical) Assets() []market.Asset {
	resp := make([]market.Asset, len(h.assets))
	copy(resp, h.assets)
	return resp
}

// Len returns the number of loaded candles
func (h *Historical) Len() int {
	return len(h.candles)
}

// Finished reports whether the end markers have been emitted
func (h *Historical) Finished() bool {
	return h.finished
}
