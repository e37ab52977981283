package venue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
	"golang.org/x/time/rate"
)

// NewRateLimit converts a number of actions per interval into a limiter with
// a burst of one. A non positive interval or action count is unrestricted
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewRateLimited wraps v. A zero timeout disables the per call deadline
func NewRateLimited(v Venue, limiter *rate.Limiter, timeout time.Duration) (*RateLimited, error) {
	if v == nil {
		return nil, errNilVenue
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &RateLimited{venue: v, limiter: limiter, timeout: timeout}, nil
}

func call[T any](ctx context.Context, r *RateLimited, name string, fn func(context.Context) (T, error)) (T, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	var zero T
	if err := r.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%w: %s %s rate limit: %v", ErrAdapterUnavailable, r.venue.Name(), name, err)
	}
	resp, err := fn(ctx)
	if err != nil && !errors.Is(err, ErrAdapterUnavailable) && !errors.Is(err, ErrOrderRejected) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return zero, fmt.Errorf("%w: %s %s timed out: %w", ErrAdapterUnavailable, r.venue.Name(), name, err)
	}
	return resp, err
}

// Name returns the wrapped venue's name
func (r *RateLimited) Name() string {
	return r.venue.Name()
}

// UpdateCashBalances calls the wrapped venue within the rate limit
func (r *RateLimited) UpdateCashBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	return call(ctx, r, "update cash balances", r.venue.UpdateCashBalances)
}

// UpdatePositions calls the wrapped venue within the rate limit
func (r *RateLimited) UpdatePositions(ctx context.Context) ([]Position, error) {
	return call(ctx, r, "update positions", r.venue.UpdatePositions)
}

// UpdateTransactions calls the wrapped venue within the rate limit
func (r *RateLimited) UpdateTransactions(ctx context.Context, since time.Time) ([]Fill, error) {
	return call(ctx, r, "update transactions", func(ctx context.Context) ([]Fill, error) {
		return r.venue.UpdateTransactions(ctx, since)
	})
}

// UpdatePrice calls the wrapped venue within the rate limit
func (r *RateLimited) UpdatePrice(ctx context.Context, a market.Asset) (decimal.Decimal, error) {
	return call(ctx, r, "update price", func(ctx context.Context) (decimal.Decimal, error) {
		return r.venue.UpdatePrice(ctx, a)
	})
}

// UpdateProducts calls the wrapped venue within the rate limit
func (r *RateLimited) UpdateProducts(ctx context.Context) ([]Product, error) {
	return call(ctx, r, "update products", r.venue.UpdateProducts)
}

func (r *RateLimited) execute(ctx context.Context, name string, fn func(context.Context, *Request) (string, error), req *Request) (string, error) {
	return call(ctx, r, name, func(ctx context.Context) (string, error) {
		return fn(ctx, req)
	})
}

// ExecuteMarketOrder calls the wrapped venue within the rate limit
func (r *RateLimited) ExecuteMarketOrder(ctx context.Context, req *Request) (string, error) {
	return r.execute(ctx, "market order", r.venue.ExecuteMarketOrder, req)
}

// ExecuteLimitOrder calls the wrapped venue within the rate limit
func (r *RateLimited) ExecuteLimitOrder(ctx context.Context, req *Request) (string, error) {
	return r.execute(ctx, "limit order", r.venue.ExecuteLimitOrder, req)
}

// ExecuteStopOrder calls the wrapped venue within the rate limit
func (r *RateLimited) ExecuteStopOrder(ctx context.Context, req *Request) (string, error) {
	return r.execute(ctx, "stop order", r.venue.ExecuteStopOrder, req)
}

// ExecuteTargetOrder calls the wrapped venue within the rate limit
func (r *RateLimited) ExecuteTargetOrder(ctx context.Context, req *Request) (string, error) {
	return r.execute(ctx, "target order", r.venue.ExecuteTargetOrder, req)
}

// ExecuteTrailingStopOrder calls the wrapped venue within the rate limit
func (r *RateLimited) ExecuteTrailingStopOrder(ctx context.Context, req *Request) (string, error) {
	return r.execute(ctx, "trailing stop order", r.venue.ExecuteTrailingStopOrder, req)
}

// HasOpenedPosition calls the wrapped venue within the rate limit
func (r *RateLimited) HasOpenedPosition(ctx context.Context, a market.Asset, d order.Direction) (bool, error) {
	return call(ctx, r, "has opened position", func(ctx context.Context) (bool, error) {
		return r.venue.HasOpenedPosition(ctx, a, d)
	})
}
