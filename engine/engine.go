package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/common/cache"
	"github.com/thrasher-corp/tradecore/config"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/eventtypes/control"
	"github.com/thrasher-corp/tradecore/eventtypes/event"
	"github.com/thrasher-corp/tradecore/eventtypes/kline"
	"github.com/thrasher-corp/tradecore/eventtypes/signal"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/metrics"
	"github.com/thrasher-corp/tradecore/order"
)

// fatal errors are programmer invariant violations that abort a run
var fatal = []error{
	order.ErrInvalidComposite,
	order.ErrHeterogeneousComposite,
	position.ErrMismatchedPosition,
	position.ErrBackwardsTime,
}

// IsFatal reports whether err must abort the event loop
func IsFatal(err error) bool {
	for i := range fatal {
		if errors.Is(err, fatal[i]) {
			return true
		}
	}
	return false
}

// Run builds an engine from cfg and runs it to completion
func Run(ctx context.Context, cfg *config.Config) error {
	e, err := New(cfg)
	if err != nil {
		return err
	}
	return e.Run(ctx)
}

// Run starts the feed and drives the event loop until every feed asset has
// finished. Cancelling ctx requests a graceful stop. Results are calculated
// once the loop exits
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.TryLock() {
		return ErrAlreadyRunning
	}
	defer e.running.Unlock()
	if e.db != nil {
		defer func() {
			if err := e.db.CloseConnection(); err != nil {
				log.Errorf(log.Database, "closing database: %v", err)
			}
		}()
	}
	if err := e.warmup(ctx); err != nil {
		log.Warnf(log.Indicators, "warmup incomplete: %v", err)
	}
	if err := e.feed.Start(ctx); err != nil {
		return fmt.Errorf("starting feed: %w", err)
	}
	defer func() {
		if err := e.feed.Stop(); err != nil {
			log.Errorf(log.EventLoop, "stopping feed: %v", err)
		}
	}()
	if e.server != nil {
		e.startServer()
		defer e.stopServer()
	}

	log.Infof(log.EventLoop, "event loop started for %v", e.feed.Assets())
	for !e.done() {
		if ctx.Err() != nil && !e.stopping {
			e.stopping = true
			e.Stop()
		}
		if err := e.iterate(ctx); err != nil {
			e.publishStatus()
			return err
		}
		e.publishStatus()
		if !e.live || e.done() {
			continue
		}
		timer := time.NewTimer(e.loopInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	log.Infoln(log.EventLoop, "event loop finished")
	return e.finish()
}

// Stop requests shutdown by ending the data of every feed asset. It is safe
// to call from any goroutine
func (e *Engine) Stop() {
	now := e.now()
	for _, a := range e.feed.Assets() {
		e.holder.AppendEvent(control.NewDataEnd(a, now))
	}
	log.Infoln(log.EventLoop, "shutdown requested")
}

// done reports whether every asset of the feed has finished
func (e *Engine) done() bool {
	for _, a := range e.feed.Assets() {
		if !e.finished[a] {
			return false
		}
	}
	return true
}

// iterate runs one pass of the loop: venue synchronisation when live, a feed
// update and a full drain of the event queue
func (e *Engine) iterate(ctx context.Context) error {
	if e.live {
		if err := e.synchronize(ctx); err != nil {
			return err
		}
	}
	if err := e.feed.UpdateLatestData(ctx); err != nil {
		log.Errorf(log.Data, "updating data: %v", err)
	}
	return e.drain(ctx)
}

// synchronize refreshes the venue every iteration and processes open orders
// and pending signals no more often than the orders interval
func (e *Engine) synchronize(ctx context.Context) error {
	if err := e.broker.Synchronize(ctx); err != nil {
		if IsFatal(err) {
			return err
		}
		log.Warnf(log.EventLoop, "venue synchronisation: %v", err)
	}
	now := e.now()
	if !e.lastOrdersUpdate.IsZero() && now.Sub(e.lastOrdersUpdate) < e.ordersInterval {
		return nil
	}
	e.lastOrdersUpdate = now
	var errs error
	errs = common.AppendError(errs, e.broker.ExecuteOpenOrders(ctx))
	submitted, err := e.orders.ProcessSignals(ctx)
	errs = common.AppendError(errs, err)
	e.enqueueOpenOrders(submitted)
	if IsFatal(errs) {
		return errs
	}
	if errs != nil {
		log.Errorf(log.EventLoop, "processing orders: %v", errs)
	}
	return nil
}

// drain dispatches queued events until the queue is empty or every asset has
// finished. Delayed events are parked per asset
func (e *Engine) drain(ctx context.Context) error {
	for !e.done() {
		ev := e.holder.NextEvent()
		if ev == nil {
			return nil
		}
		if ev.GetBarsDelay() > 0 {
			a := ev.GetAsset()
			e.delayed[a] = append(e.delayed[a], ev)
			continue
		}
		kind := string(ev.Kind())
		start := time.Now()
		err := e.handleEvent(ctx, ev)
		metrics.EventsProcessed.WithLabelValues(kind).Inc()
		metrics.EventLatency.WithLabelValues(kind).Observe(float64(time.Since(start).Microseconds()) / 1000)
		if err == nil {
			continue
		}
		if IsFatal(err) {
			return fmt.Errorf("%s event for %v: %w", kind, ev.GetAsset(), err)
		}
		log.Errorf(log.EventLoop, "%s event for %v: %v", kind, ev.GetAsset(), err)
	}
	return nil
}

func (e *Engine) handleEvent(ctx context.Context, ev event.Handler) error {
	switch ev := ev.(type) {
	case *kline.Kline:
		return e.processCandle(ctx, &ev.Candle)
	case *signal.Signal:
		submitted, err := e.orders.CheckSignal(ctx, ev)
		e.enqueueOpenOrders(submitted)
		return err
	case *control.PendingSignal:
		submitted, err := e.orders.ProcessSignals(ctx)
		e.enqueueOpenOrders(submitted)
		return err
	case *control.OpenOrders:
		return e.broker.ExecuteOpenOrders(ctx)
	case *control.EndOfDay:
		return e.broker.CloseAllOpenPositions(ctx, ev.GetAsset(), true)
	case *control.DataEnd:
		err := e.broker.CloseAllOpenPositions(ctx, ev.GetAsset(), false)
		e.finished[ev.GetAsset()] = true
		log.Infof(log.EventLoop, "data ended for %v", ev.GetAsset())
		return err
	default:
		return fmt.Errorf("%w %T", errUnhandledEvent, ev)
	}
}

// processCandle advances every component by one bar of the candle's asset.
// A candle already seen for its asset is discarded without side effects
func (e *Engine) processCandle(ctx context.Context, c *market.Candle) error {
	seen, ok := e.seen[c.Asset]
	if !ok {
		seen = cache.NewLRUCache[int64, struct{}](SeenCandlesCapacity)
		e.seen[c.Asset] = seen
	}
	if seen.ContainsOrAdd(c.Timestamp.UnixNano(), struct{}{}) {
		metrics.CandlesDeduplicated.Inc()
		log.Debugf(log.EventLoop, "discarded duplicate candle %v %v", c.Asset, c.Timestamp)
		return nil
	}
	if err := e.indicators.PushCandle(c); err != nil {
		return err
	}
	e.clock.Update(c.Asset, c.Timestamp.Add(e.interval.Duration()))
	if e.paper != nil {
		e.paper.SetPrice(c.Asset, c.Close, c.Timestamp)
	}
	var errs error
	if err := e.broker.UpdatePrice(c); err != nil {
		errs = common.AppendError(errs, err)
	}
	e.persistCandle(ctx, c)
	if err := e.statistic.AddCandle(c, e.portfolio.TotalEquity()); err != nil {
		errs = common.AppendError(errs, err)
	}

	now := e.clock.CurrentTime(c.Asset)
	for _, s := range e.strategies {
		signals, err := s.ProcessCandle(c, now)
		if err != nil {
			errs = common.AppendError(errs, fmt.Errorf("strategy %s: %w", s.Name(), err))
			continue
		}
		for _, sig := range signals {
			log.Debugf(log.Strategy, "%s signalled %v", s.Name(), sig)
			e.holder.AppendEvent(sig)
		}
	}
	if err := e.broker.ExecuteOpenOrders(ctx); err != nil {
		errs = common.AppendError(errs, err)
	}
	e.promoteDelayed(c.Asset)
	if e.orders.PendingCount(c.Asset) > 0 {
		e.holder.AppendEvent(control.NewPendingSignal(c.Asset, now))
	}
	if e.clock.EndOfDay(c.Asset) {
		var delay int64 = 1
		if e.live {
			delay = 0
		}
		e.holder.AppendEvent(control.NewEndOfDay(c.Asset, now, delay))
	}
	metrics.SetPortfolio(e.portfolio.Cash(), e.portfolio.TotalEquity())
	return errs
}

// promoteDelayed ticks the parked events of an asset by one bar and queues
// those whose delay has run out
func (e *Engine) promoteDelayed(a market.Asset) {
	parked := e.delayed[a]
	if len(parked) == 0 {
		return
	}
	remaining := parked[:0]
	for _, ev := range parked {
		ev.DecrementBarsDelay()
		if ev.GetBarsDelay() > 0 {
			remaining = append(remaining, ev)
			continue
		}
		e.holder.AppendEvent(ev)
	}
	if len(remaining) == 0 {
		delete(e.delayed, a)
		return
	}
	e.delayed[a] = remaining
}

// enqueueOpenOrders asks the broker to evaluate newly submitted orders
// against the current bar, once per asset
func (e *Engine) enqueueOpenOrders(items []order.Item) {
	queued := make(map[market.Asset]struct{}, len(items))
	for _, item := range items {
		a := item.GetAsset()
		if _, ok := queued[a]; ok {
			continue
		}
		queued[a] = struct{}{}
		e.holder.AppendEvent(control.NewOpenOrders(a, e.clock.CurrentTime(a)))
	}
}

func (e *Engine) persistCandle(ctx context.Context, c *market.Candle) {
	if e.candles == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	exists, err := e.candles.CandleWithIdentifierExists(ctx, c.Asset, e.interval, c.Timestamp)
	if err != nil {
		log.Errorf(log.Database, "checking candle %v %v: %v", c.Asset, c.Timestamp, err)
		return
	}
	if exists {
		return
	}
	if err := e.candles.AddCandle(ctx, c, e.interval); err != nil {
		log.Errorf(log.Database, "storing candle %v %v: %v", c.Asset, c.Timestamp, err)
	}
}

// finish calculates the run results and reports them as configured
func (e *Engine) finish() error {
	snap := e.portfolio.Snapshot()
	if err := e.statistic.CalculateResults(&snap); err != nil {
		log.Warnf(log.Statistics, "no results calculated: %v", err)
		return nil
	}
	if e.cfg.Statistics.Print {
		e.statistic.PrintResults()
	}
	if e.cfg.Statistics.ReportDir != "" {
		if _, err := e.statistic.WriteReport(e.cfg.Statistics.ReportDir); err != nil {
			return err
		}
	}
	return nil
}
