package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/database/repository"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	tradeorder "github.com/thrasher-corp/tradecore/order"
	"github.com/volatiletech/null"
)

const orderColumns = "id, symbol, exchange, action, direction, size, order_type, limit_price, stop_price, target_price, stop_pct, signal_id, status, generation_time, submission_time, completion_time, time_in_force, venue_order_id, reject_reason"

// New returns an order repository
func New(db *sql.DB) (*Repository, error) {
	if db == nil {
		return nil, repository.ErrNilDB
	}
	return &Repository{db: db}, nil
}

// AddOrder inserts o or, when it is already stored, updates its mutable
// fields
func (r *Repository) AddOrder(ctx context.Context, o *tradeorder.Order) error {
	if o == nil {
		return fmt.Errorf("%w: order", common.ErrNilArguments)
	}
	rec := toRecord(o)
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO orders ("+orderColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19) "+
			"ON CONFLICT (id) DO UPDATE SET size = excluded.size, stop_price = excluded.stop_price, status = excluded.status, "+
			"submission_time = excluded.submission_time, completion_time = excluded.completion_time, "+
			"venue_order_id = excluded.venue_order_id, reject_reason = excluded.reject_reason",
		rec.ID,
		rec.Symbol,
		rec.Exchange,
		rec.Action,
		rec.Direction,
		rec.Size,
		rec.Type,
		rec.Limit,
		rec.Stop,
		rec.Target,
		rec.StopPct,
		rec.SignalID,
		rec.Status,
		rec.GenerationTime,
		rec.SubmissionTime,
		rec.CompletionTime,
		rec.TimeInForce,
		rec.VenueOrderID,
		rec.RejectReason)
	if err != nil {
		return fmt.Errorf("upsert order %s: %w", o.ID, err)
	}
	log.Debugf(log.Database, "stored order %s", o)
	return nil
}

// GetOrder returns the stored order with id
func (r *Repository) GetOrder(ctx context.Context, id string) (*tradeorder.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	var rec record
	err := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.Exchange,
		&rec.Action,
		&rec.Direction,
		&rec.Size,
		&rec.Type,
		&rec.Limit,
		&rec.Stop,
		&rec.Target,
		&rec.StopPct,
		&rec.SignalID,
		&rec.Status,
		&rec.GenerationTime,
		&rec.SubmissionTime,
		&rec.CompletionTime,
		&rec.TimeInForce,
		&rec.VenueOrderID,
		&rec.RejectReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", errOrderNotFound, id)
		}
		return nil, err
	}
	return rec.toOrder()
}

func toRecord(o *tradeorder.Order) record {
	return record{
		ID:             o.ID,
		Symbol:         o.Asset.Symbol,
		Exchange:       o.Asset.Exchange,
		Action:         o.Action.String(),
		Direction:      o.Direction.String(),
		Size:           o.Size.String(),
		Type:           o.Type.String(),
		Limit:          nullDecimal(o.Limit),
		Stop:           nullDecimal(o.Stop),
		Target:         nullDecimal(o.Target),
		StopPct:        nullDecimal(o.StopPct),
		SignalID:       null.NewString(o.SignalID, o.SignalID != ""),
		Status:         o.Status.String(),
		GenerationTime: nullTime(o.GenerationTime),
		SubmissionTime: nullTime(o.SubmissionTime),
		CompletionTime: nullTime(o.CompletionTime),
		TimeInForce:    int64(o.TimeInForce),
		VenueOrderID:   null.NewString(o.VenueOrderID, o.VenueOrderID != ""),
		RejectReason:   null.NewString(o.RejectReason, o.RejectReason != ""),
	}
}

func (rec *record) toOrder() (*tradeorder.Order, error) {
	o := &tradeorder.Order{
		ID:           rec.ID,
		Asset:        market.Asset{Symbol: rec.Symbol, Exchange: rec.Exchange},
		Action:       tradeorder.Action(rec.Action),
		Direction:    tradeorder.Direction(rec.Direction),
		Type:         tradeorder.Type(rec.Type),
		SignalID:     rec.SignalID.String,
		Status:       tradeorder.Status(rec.Status),
		TimeInForce:  time.Duration(rec.TimeInForce),
		VenueOrderID: rec.VenueOrderID.String,
		RejectReason: rec.RejectReason.String,
	}
	var err error
	if o.Size, err = decimal.NewFromString(rec.Size); err != nil {
		return nil, fmt.Errorf("order %s size: %w", rec.ID, err)
	}
	levels := []struct {
		dst *decimal.NullDecimal
		src null.String
	}{{&o.Limit, rec.Limit}, {&o.Stop, rec.Stop}, {&o.Target, rec.Target}, {&o.StopPct, rec.StopPct}}
	for i := range levels {
		if *levels[i].dst, err = parseNullDecimal(levels[i].src); err != nil {
			return nil, fmt.Errorf("order %s: %w", rec.ID, err)
		}
	}
	times := []struct {
		dst *time.Time
		src null.String
	}{{&o.GenerationTime, rec.GenerationTime}, {&o.SubmissionTime, rec.SubmissionTime}, {&o.CompletionTime, rec.CompletionTime}}
	for i := range times {
		if *times[i].dst, err = parseNullTime(times[i].src); err != nil {
			return nil, fmt.Errorf("order %s: %w", rec.ID, err)
		}
	}
	return o, nil
}

func nullDecimal(d decimal.NullDecimal) null.String {
	if !d.Valid {
		return null.String{}
	}
	return null.StringFrom(d.Decimal.String())
}

func parseNullDecimal(s null.String) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func nullTime(t time.Time) null.String {
	if t.IsZero() {
		return null.String{}
	}
	return null.StringFrom(t.UTC().Format(repository.TimeLayout))
}

func parseNullTime(s null.String) (time.Time, error) {
	if !s.Valid {
		return time.Time{}, nil
	}
	return time.Parse(repository.TimeLayout, s.String)
}
