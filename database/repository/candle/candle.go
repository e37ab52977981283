package candle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/database/repository"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

const candleColumns = "symbol, exchange, interval, timestamp, open, high, low, close, volume"

// New returns a candle repository with an existence cache of cacheSize
// entries
func New(db *sql.DB, cacheSize int64) (*Repository, error) {
	if db == nil {
		return nil, repository.ErrNilDB
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheSize * 10,
		MaxCost:     cacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, exists: c}, nil
}

func cacheKey(a market.Asset, interval market.Interval, ts time.Time) string {
	return fmt.Sprintf("%s|%d|%d", a, int64(interval.Duration().Seconds()), ts.Unix())
}

func validate(a market.Asset, interval market.Interval) error {
	if a.Symbol == "" || a.Exchange == "" || interval.Duration() < time.Second {
		return fmt.Errorf("%w: %v %v", errInvalidInput, a, interval)
	}
	return nil
}

// AddCandle inserts c as a bar of interval
func (r *Repository) AddCandle(ctx context.Context, c *market.Candle, interval market.Interval) error {
	if err := validate(c.Asset, interval); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO candle (id, "+candleColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		id.String(),
		c.Asset.Symbol,
		strings.ToUpper(c.Asset.Exchange),
		int64(interval.Duration().Seconds()),
		c.Timestamp.Unix(),
		c.Open.String(),
		c.High.String(),
		c.Low.String(),
		c.Close.String(),
		c.Volume.String())
	if err != nil {
		return fmt.Errorf("insert candle %v %v: %w", c.Asset, c.Timestamp, err)
	}
	r.exists.Set(cacheKey(c.Asset, interval, c.Timestamp), true, 1)
	return nil
}

// CandleWithIdentifierExists reports whether a bar for asset, interval and
// timestamp is stored
func (r *Repository) CandleWithIdentifierExists(ctx context.Context, a market.Asset, interval market.Interval, ts time.Time) (bool, error) {
	if err := validate(a, interval); err != nil {
		return false, err
	}
	key := cacheKey(a, interval, ts)
	if _, ok := r.exists.Get(key); ok {
		return true, nil
	}
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM candle WHERE symbol = $1 AND exchange = $2 AND interval = $3 AND timestamp = $4",
		a.Symbol,
		strings.ToUpper(a.Exchange),
		int64(interval.Duration().Seconds()),
		ts.Unix()).Scan(&count)
	if err != nil {
		return false, err
	}
	if count > 0 {
		r.exists.Set(key, true, 1)
	}
	return count > 0, nil
}

// GetCandlesInRange returns the stored bars of asset with start <= timestamp
// <= end, oldest first
func (r *Repository) GetCandlesInRange(ctx context.Context, a market.Asset, interval market.Interval, start, end time.Time) (resp []market.Candle, err error) {
	if err = validate(a, interval); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v %v", errInvalidRange, start, end)
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+candleColumns+" FROM candle WHERE symbol = $1 AND exchange = $2 AND interval = $3 AND timestamp BETWEEN $4 AND $5 ORDER BY timestamp",
		a.Symbol,
		strings.ToUpper(a.Exchange),
		int64(interval.Duration().Seconds()),
		start.Unix(),
		end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Errorln(log.Database, closeErr)
		}
	}()
	for rows.Next() {
		var (
			symbol, exchange                 string
			seconds, unix                    int64
			open, high, low, closing, volume string
		)
		if err = rows.Scan(&symbol, &exchange, &seconds, &unix, &open, &high, &low, &closing, &volume); err != nil {
			return nil, err
		}
		c := market.Candle{
			Asset:     market.Asset{Symbol: symbol, Exchange: a.Exchange},
			Timestamp: time.Unix(unix, 0).UTC(),
		}
		values := []struct {
			dst *decimal.Decimal
			src string
		}{{&c.Open, open}, {&c.High, high}, {&c.Low, low}, {&c.Close, closing}, {&c.Volume, volume}}
		for i := range values {
			if *values[i].dst, err = decimal.NewFromString(values[i].src); err != nil {
				return nil, fmt.Errorf("candle %v %v: %w", a, c.Timestamp, err)
			}
		}
		resp = append(resp, c)
	}
	return resp, rows.Err()
}
