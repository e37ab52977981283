package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/tradecore/database/repository"
	"github.com/thrasher-corp/tradecore/market"
	tradeorder "github.com/thrasher-corp/tradecore/order"
)

var (
	aapl  = market.NewAsset("AAPL", "IEX")
	epoch = time.Date(2020, 6, 18, 13, 30, 0, 0, time.UTC)
)

var columns = []string{"id", "symbol", "exchange", "action", "direction", "size", "order_type", "limit_price", "stop_price", "target_price", "stop_pct", "signal_id", "status", "generation_time", "submission_time", "completion_time", "time_in_force", "venue_order_id", "reject_reason"}

func TestNew(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	assert.ErrorIs(t, err, repository.ErrNilDB)
}

func TestAddOrder(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r, err := New(db)
	require.NoError(t, err)

	o, err := tradeorder.New(tradeorder.Order{
		Asset:     aapl,
		Action:    tradeorder.Sell,
		Direction: tradeorder.Long,
		Size:      decimal.NewFromInt(10),
		Type:      tradeorder.Stop,
		Stop:      decimal.NewNullDecimal(decimal.NewFromInt(95)),
	})
	require.NoError(t, err)
	require.NoError(t, o.Submit(epoch))

	mock.ExpectExec("INSERT INTO orders .+ ON CONFLICT \\(id\\) DO UPDATE").
		WithArgs(o.ID, "AAPL", "IEX", "SELL", "LONG", "10", "STOP",
			nil, "95", nil, nil, nil, "SUBMITTED",
			nil, epoch.Format(repository.TimeLayout), nil, 0, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, r.AddOrder(context.Background(), o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r, err := New(db)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE id = ").
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"abc", "AAPL", "IEX", "SELL", "LONG", "10", "TRAILING_STOP",
			nil, "104.5", nil, "0.05", "IEX:AAPL|sma|2020-06-18 13:30:00+00:00", "COMPLETED",
			epoch.Format(repository.TimeLayout), epoch.Format(repository.TimeLayout), epoch.Add(time.Minute).Format(repository.TimeLayout),
			int64(time.Hour), "venue-1", nil))
	o, err := r.GetOrder(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, aapl, o.Asset)
	assert.Equal(t, tradeorder.Sell, o.Action)
	assert.Equal(t, tradeorder.TrailingStop, o.Type)
	assert.False(t, o.Limit.Valid)
	assert.True(t, o.Stop.Decimal.Equal(decimal.RequireFromString("104.5")))
	assert.True(t, o.StopPct.Decimal.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, tradeorder.Completed, o.Status)
	assert.Equal(t, epoch.Add(time.Minute), o.CompletionTime)
	assert.Equal(t, time.Hour, o.TimeInForce)
	assert.Equal(t, "venue-1", o.VenueOrderID)
	assert.Empty(t, o.RejectReason)

	mock.ExpectQuery("SELECT").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = r.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, errOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
