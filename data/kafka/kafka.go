// Package kafka streams candles published to a Kafka topic
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/thrasher-corp/tradecore/data"
	"github.com/thrasher-corp/tradecore/encoding/json"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

var (
	errNoBrokers = errors.New("no kafka brokers configured")
	errNoTopic   = errors.New("no kafka topic configured")
)

// Config locates the candle topic
type Config struct {
	Brokers []string      `json:"brokers" mapstructure:"brokers"`
	Topic   string        `json:"topic" mapstructure:"topic"`
	GroupID string        `json:"groupID" mapstructure:"groupID"`
	MaxWait time.Duration `json:"maxWait" mapstructure:"maxWait"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Feed consumes Candle JSON messages in the background
type Feed struct {
	*data.Stream
	reader messageReader

	m       sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New returns a feed reading cfg.Topic
func New(sink data.Sink, assets []market.Asset, cfg *Config) (*Feed, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	if cfg.Topic == "" {
		return nil, errNoTopic
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = 500 * time.Millisecond
	}
	return newFeed(sink, assets, kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1e3,
		MaxBytes: 1e6,
		MaxWait:  maxWait,
	}))
}

func newFeed(sink data.Sink, assets []market.Asset, r messageReader) (*Feed, error) {
	s, err := data.NewStream(sink, assets)
	if err != nil {
		return nil, err
	}
	return &Feed{Stream: s, reader: r}, nil
}

// Start launches the consumer
func (f *Feed) Start(ctx context.Context) error {
	f.m.Lock()
	defer f.m.Unlock()
	if f.started {
		return data.ErrAlreadyStarted
	}
	f.started = true
	ctx, f.cancel = context.WithCancel(ctx)
	f.wg.Add(1)
	go f.consume(ctx)
	return nil
}

func (f *Feed) consume(ctx context.Context) {
	defer f.wg.Done()
	for {
		m, err := f.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				f.End()
				return
			}
			log.Errorf(log.Data, "kafka consumer stopped: %v", err)
			f.Fail(fmt.Errorf("kafka read: %w", err))
			return
		}
		var c market.Candle
		if err := json.Unmarshal(m.Value, &c); err != nil {
			log.Warnf(log.Data, "kafka message at offset %d: %v", m.Offset, err)
			continue
		}
		if err := f.Publish(&c); err != nil {
			log.Warnf(log.Data, "kafka message at offset %d: %v", m.Offset, err)
		}
	}
}

// Stop cancels the consumer, waits for it and closes the reader
func (f *Feed) Stop() error {
	f.m.Lock()
	defer f.m.Unlock()
	if !f.started {
		return data.ErrNotStarted
	}
	f.cancel()
	f.wg.Wait()
	return f.reader.Close()
}
