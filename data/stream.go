package data

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thrasher-corp/tradecore/eventtypes/control"
	"github.com/thrasher-corp/tradecore/eventtypes/kline"
	"github.com/thrasher-corp/tradecore/market"
)

// Stream is the shared part of push based feeds. A background consumer
// publishes candles as they arrive; the loop only sees the holder
type Stream struct {
	sink   Sink
	assets []market.Asset
	known  map[market.Asset]struct{}

	m     sync.Mutex
	err   error
	last  time.Time
	ended bool
}

// NewStream returns a stream publishing candles of assets to sink
func NewStream(sink Sink, assets []market.Asset) (*Stream, error) {
	if sink == nil {
		return nil, errNilSink
	}
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	s := &Stream{
		sink:  sink,
		known: make(map[market.Asset]struct{}, len(assets)),
	}
	for _, a := range assets {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.known[a]; ok {
			continue
		}
		s.known[a] = struct{}{}
		s.assets = append(s.assets, a)
	}
	return s, nil
}

// Publish validates c and appends it as a MarketData event
func (s *Stream) Publish(c *market.Candle) error {
	if _, ok := s.known[c.Asset]; !ok {
		return fmt.Errorf("%w %v", errUnexpectedAsset, c.Asset)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.m.Lock()
	defer s.m.Unlock()
	if s.ended {
		return nil
	}
	if c.Timestamp.After(s.last) {
		s.last = c.Timestamp
	}
	s.sink.AppendEvent(kline.New(c))
	return nil
}

// Fail records a terminal consumer error and ends the stream
func (s *Stream) Fail(err error) {
	s.m.Lock()
	s.err = err
	s.m.Unlock()
	s.End()
}

// End emits one MarketDataEnd per asset. Later calls do nothing
func (s *Stream) End() {
	s.m.Lock()
	defer s.m.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	for _, a := range s.assets {
		s.sink.AppendEvent(control.NewDataEnd(a, s.last))
	}
}

// UpdateLatestData returns the consumer's terminal error once
func (s *Stream) UpdateLatestData(context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()
	err := s.err
	s.err = nil
	return err
}

// Assets returns the streamed assets
func (s *Stream) Assets() []market.Asset {
	resp := make([]market.Asset, len(s.assets))
	copy(resp, s.assets)
	return resp
}

// Ended reports whether the end markers have been emitted
func (s *Stream) Ended() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.ended
}
