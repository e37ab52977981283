// Package websocket streams candles from a websocket endpoint
package websocket

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	gws "github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

// DefaultPaths reads a flat payload using the candle JSON field names
func DefaultPaths() Paths {
	return Paths{
		Symbol:    "asset.symbol",
		Exchange:  "asset.exchange",
		Open:      "open",
		High:      "high",
		Low:       "low",
		Close:     "close",
		Volume:    "volume",
		Timestamp: "timestamp",
	}
}

// New returns a websocket feed for assets
func New(sink data.Sink, assets []market.Asset, cfg *Config) (*Feed, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errNoURL
	}
	s, err := data.NewStream(sink, assets)
	if err != nil {
		return nil, err
	}
	c := *cfg
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxReconnectDelay < c.ReconnectDelay {
		c.MaxReconnectDelay = DefaultMaxReconnectDelay
		if c.MaxReconnectDelay < c.ReconnectDelay {
			c.MaxReconnectDelay = c.ReconnectDelay
		}
	}
	def := DefaultPaths()
	p := c.Paths
	return &Feed{
		Stream: s,
		cfg:    c,
		dialer: &gws.Dialer{HandshakeTimeout: 10 * time.Second},
		paths: paths{
			symbol:    split(p.Symbol, def.Symbol),
			exchange:  split(p.Exchange, def.Exchange),
			open:      split(p.Open, def.Open),
			high:      split(p.High, def.High),
			low:       split(p.Low, def.Low),
			close:     split(p.Close, def.Close),
			volume:    split(p.Volume, def.Volume),
			timestamp: split(p.Timestamp, def.Timestamp),
			closed:    split(p.Closed, ""),
		},
	}, nil
}

func split(path, fallback string) []string {
	if path == "" {
		path = fallback
	}
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Start launches the connection loop
func (f *Feed) Start(ctx context.Context) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.started {
		return data.ErrAlreadyStarted
	}
	f.started = true
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.wg.Add(1)
	go f.run(ctx)
	return nil
}

// Stop closes the connection and waits for the consumer to exit
func (f *Feed) Stop() error {
	f.m.Lock()
	defer f.m.Unlock()
	if !f.started {
		return data.ErrNotStarted
	}
	f.cancel()
	f.wg.Wait()
	return nil
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()
	delay := f.cfg.ReconnectDelay
	failures := 0
	for {
		connected, err := f.connect(ctx)
		if ctx.Err() != nil {
			f.End()
			return
		}
		if connected {
			failures = 0
			delay = f.cfg.ReconnectDelay
		} else {
			failures++
		}
		if f.cfg.MaxReconnects > 0 && failures > f.cfg.MaxReconnects {
			f.Fail(fmt.Errorf("%w after %d attempts: %v", errTooManyReconnect, failures, err))
			return
		}
		log.Warnf(log.Data, "websocket %s disconnected: %v, reconnecting in %v", f.cfg.URL, err, delay)
		select {
		case <-ctx.Done():
			f.End()
			return
		case <-time.After(delay):
		}
		if !connected {
			delay *= 2
			if delay > f.cfg.MaxReconnectDelay {
				delay = f.cfg.MaxReconnectDelay
			}
		}
	}
}

// connect reads from one connection until it fails. It reports whether the
// dial and subscription succeeded
func (f *Feed) connect(ctx context.Context) (bool, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()
	if f.cfg.Subscribe != "" {
		if err := conn.WriteMessage(gws.TextMessage, []byte(f.cfg.Subscribe)); err != nil {
			return false, err
		}
	}
	log.Infof(log.Data, "websocket connected to %s", f.cfg.URL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		c, closed, err := f.parse(msg)
		if err != nil {
			log.Debugf(log.Data, "websocket payload skipped: %v", err)
			continue
		}
		if !closed {
			continue
		}
		if err := f.Publish(c); err != nil {
			log.Warnf(log.Data, "websocket candle: %v", err)
		}
	}
}

// parse extracts a candle from msg and reports whether the bar is closed
func (f *Feed) parse(msg []byte) (*market.Candle, bool, error) {
	closed := true
	if len(f.paths.closed) > 0 {
		var err error
		if closed, err = jsonparser.GetBoolean(msg, f.paths.closed...); err != nil {
			return nil, false, fmt.Errorf("%w %v: %v", errMissingField, f.paths.closed, err)
		}
	}
	symbol, err := jsonparser.GetString(msg, f.paths.symbol...)
	if err != nil {
		return nil, false, fmt.Errorf("%w %v: %v", errMissingField, f.paths.symbol, err)
	}
	exchange, err := jsonparser.GetString(msg, f.paths.exchange...)
	if err != nil || exchange == "" {
		exchange = f.cfg.Exchange
	}
	c := &market.Candle{Asset: market.NewAsset(symbol, exchange)}
	fields := []struct {
		dst  *decimal.Decimal
		path []string
	}{
		{&c.Open, f.paths.open},
		{&c.High, f.paths.high},
		{&c.Low, f.paths.low},
		{&c.Close, f.paths.close},
		{&c.Volume, f.paths.volume},
	}
	for i := range fields {
		v, _, _, err := jsonparser.Get(msg, fields[i].path...)
		if err != nil {
			return nil, false, fmt.Errorf("%w %v: %v", errMissingField, fields[i].path, err)
		}
		if *fields[i].dst, err = decimal.NewFromString(string(v)); err != nil {
			return nil, false, fmt.Errorf("%v: %w", fields[i].path, err)
		}
	}
	if c.Timestamp, err = parseTimestamp(msg, f.paths.timestamp); err != nil {
		return nil, false, err
	}
	return c, closed, nil
}

// parseTimestamp accepts unix seconds or milliseconds as a number and the
// candle layouts as a string
func parseTimestamp(msg []byte, path []string) (time.Time, error) {
	v, typ, _, err := jsonparser.Get(msg, path...)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %v: %v", errMissingField, path, err)
	}
	if typ != jsonparser.Number {
		return market.ParseTimestamp(string(v))
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%v: %w", path, err)
	}
	if n > 1e12 {
		return time.UnixMilli(n).UTC(), nil
	}
	return time.Unix(n, 0).UTC(), nil
}
