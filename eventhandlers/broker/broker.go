package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/clock"
	"github.com/thrasher-corp/tradecore/common"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// New returns a broker that executes orders against its own price view
func New(c clock.Clock, p *portfolio.Portfolio, fees fee.Model, s *Settings) (*Broker, error) {
	return newBroker(c, p, fees, s, simulated{})
}

func newBroker(c clock.Clock, p *portfolio.Portfolio, fees fee.Model, s *Settings, exec executor) (*Broker, error) {
	if c == nil {
		return nil, errNilClock
	}
	if p == nil {
		return nil, errNilPortfolio
	}
	if s == nil {
		return nil, common.ErrNilArguments
	}
	if s.BaseCurrency == "" {
		return nil, errEmptyCurrency
	}
	if s.InitialCash.IsNegative() {
		return nil, fmt.Errorf("%w: initial cash %v", portfolio.ErrBadAmount, s.InitialCash)
	}
	base := strings.ToUpper(s.BaseCurrency)
	if p.Currency() != base {
		return nil, fmt.Errorf("%w: %s and %s", errCurrencyMismatch, p.Currency(), base)
	}
	if fees == nil {
		fees = &fee.Fixed{}
	}
	b := &Broker{
		clock:           c,
		portfolio:       p,
		fees:            fees,
		baseCurrency:    base,
		supported:       map[string]struct{}{base: {}},
		cashBalances:    map[string]decimal.Decimal{base: s.InitialCash},
		exitOrders:      make(map[market.Asset]map[order.Direction]order.Item),
		lastPrices:      make(map[market.Asset]decimal.Decimal),
		closeOnEndOfDay: s.CloseOnEndOfDay,
		exec:            exec,
	}
	for _, cur := range s.SupportedCurrencies {
		cur = strings.ToUpper(cur)
		b.supported[cur] = struct{}{}
		if _, ok := b.cashBalances[cur]; !ok {
			b.cashBalances[cur] = decimal.Zero
		}
	}
	return b, nil
}

// SetObserver registers the lifecycle observer
func (b *Broker) SetObserver(o Observer) {
	b.observer = o
}

// Portfolio returns the managed portfolio
func (b *Broker) Portfolio() *portfolio.Portfolio {
	return b.portfolio
}

// BaseCurrency returns the broker's base currency
func (b *Broker) BaseCurrency() string {
	return b.baseCurrency
}

// IsLive returns whether orders are routed to a venue
func (b *Broker) IsLive() bool {
	_, ok := b.exec.(*live)
	return ok
}

// CashBalance returns the broker's master balance of currency
func (b *Broker) CashBalance(currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(currency)
	if _, ok := b.supported[currency]; !ok {
		return decimal.Zero, fmt.Errorf("%w %q", ErrUnknownCurrency, currency)
	}
	return b.cashBalances[currency], nil
}

// SetCashBalance overwrites the broker's master balance of currency
func (b *Broker) SetCashBalance(currency string, amount decimal.Decimal) error {
	currency = strings.ToUpper(currency)
	if _, ok := b.supported[currency]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownCurrency, currency)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %v %s", portfolio.ErrBadAmount, amount, currency)
	}
	b.cashBalances[currency] = amount
	return nil
}

// SubscribeFundsToPortfolio moves amount of base currency from the broker's
// master balance into the portfolio
func (b *Broker) SubscribeFundsToPortfolio(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: subscription of %v", portfolio.ErrBadAmount, amount)
	}
	available := b.cashBalances[b.baseCurrency]
	if amount.GreaterThan(available) {
		return fmt.Errorf("%w: subscription of %v %s, broker holds %v",
			portfolio.ErrInsufficientCash, amount, b.baseCurrency, available)
	}
	if err := b.portfolio.SubscribeFunds(amount, b.clock.CurrentTime(market.Asset{})); err != nil {
		return err
	}
	b.cashBalances[b.baseCurrency] = available.Sub(amount)
	log.Infof(log.Broker, "subscribed %v %s to portfolio", amount, b.baseCurrency)
	return nil
}

// CurrentPrice returns the last known price of an asset
func (b *Broker) CurrentPrice(a market.Asset) (decimal.Decimal, bool) {
	p, ok := b.lastPrices[a]
	return p, ok
}

// UpdatePrice records a candle's close and marks the portfolio to it
func (b *Broker) UpdatePrice(c *market.Candle) error {
	if c == nil {
		return common.ErrNilArguments
	}
	b.lastPrices[c.Asset] = c.Close
	return b.portfolio.UpdateMarketValue(c.Asset, c.Close, b.clock.CurrentTime(c.Asset))
}

// MaxEntryOrderSize returns the largest size affordable with cash at the
// current price. An invalid cash uses the portfolio's cash
func (b *Broker) MaxEntryOrderSize(a market.Asset, _ order.Direction, cash decimal.NullDecimal) (decimal.Decimal, error) {
	price, ok := b.lastPrices[a]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w %v", errNoPrice, a)
	}
	available := b.portfolio.Cash()
	if cash.Valid {
		available = cash.Decimal
	}
	return b.fees.CalcMaxSizeForCash(available, price), nil
}

// HasOpenedPosition reports whether a position is open for asset and
// direction
func (b *Broker) HasOpenedPosition(ctx context.Context, a market.Asset, d order.Direction) bool {
	return b.exec.hasOpenedPosition(ctx, b, a, d)
}

// OpenOrders returns a copy of the order queue
func (b *Broker) OpenOrders() []*order.Order {
	resp := make([]*order.Order, len(b.openOrders))
	copy(resp, b.openOrders)
	return resp
}

// ExitOrder returns the exit order slot of a position
func (b *Broker) ExitOrder(a market.Asset, d order.Direction) (order.Item, bool) {
	item, ok := b.exitOrders[a][d]
	return item, ok
}

// Synchronize refreshes venue state. It is a no-op when simulating
func (b *Broker) Synchronize(ctx context.Context) error {
	return b.exec.synchronize(ctx, b)
}

// SubmitOrder queues an order or composite. Sequential composites queue only
// their head and route each later child back through the broker; other
// composites queue every leaf. Exit orders are folded into the position's
// exit slot
func (b *Broker) SubmitOrder(item order.Item) error {
	if item == nil {
		return common.ErrNilArguments
	}
	now := b.clock.CurrentTime(item.GetAsset())
	switch v := item.(type) {
	case *order.Order:
		return b.submitLeaf(v, true)
	case order.Sequencer:
		if err := v.MarkSubmitted(now); err != nil {
			return err
		}
		v.SetSubmitter(b)
		return b.SubmitOrder(v.Head())
	case order.Group:
		if err := v.MarkSubmitted(now); err != nil {
			return err
		}
		children := v.Children()
		whole := isExitGroup(children)
		if whole {
			b.handleExitOrder(v)
		}
		var errs error
		for i := range children {
			if leaf, ok := children[i].(*order.Order); ok {
				errs = common.AppendError(errs, b.submitLeaf(leaf, !whole))
				continue
			}
			errs = common.AppendError(errs, b.SubmitOrder(children[i]))
		}
		return errs
	}
	return fmt.Errorf("%w: unsupported order item %T", order.ErrInvalidComposite, item)
}

func (b *Broker) submitLeaf(o *order.Order, handleExit bool) error {
	switch o.Status {
	case order.Created:
		if err := o.SubmitAt(b.clock); err != nil {
			return err
		}
	case order.Submitted:
	default:
		return fmt.Errorf("%w: cannot queue %v order %s", order.ErrInvalidTransition, o.Status, o.ID)
	}
	if handleExit && o.IsExit() {
		b.handleExitOrder(o)
	}
	b.openOrders = append(b.openOrders, o)
	if b.observer != nil {
		b.observer.OnOrderSubmitted(o)
	}
	log.Debugf(log.Broker, "queued %v", o)
	return nil
}

// isExitGroup reports whether every child is a leaf exit of one position
func isExitGroup(children []order.Item) bool {
	if len(children) == 0 {
		return false
	}
	first, ok := children[0].(*order.Order)
	if !ok {
		return false
	}
	for i := range children {
		leaf, ok := children[i].(*order.Order)
		if !ok || !leaf.IsExit() || leaf.Asset != first.Asset || leaf.Direction != first.Direction {
			return false
		}
	}
	return true
}

// handleExitOrder places item in its position's exit slot. An occupied slot
// is folded with item into one OCO so either filling cancels the other
func (b *Broker) handleExitOrder(item order.Item) {
	leaves := item.Leaves()
	if len(leaves) == 0 {
		return
	}
	a, d := leaves[0].Asset, leaves[0].Direction
	byDirection, ok := b.exitOrders[a]
	if !ok {
		byDirection = make(map[order.Direction]order.Item)
		b.exitOrders[a] = byDirection
	}
	existing, ok := byDirection[d]
	if !ok || existing.IsTerminal() {
		byDirection[d] = item
		return
	}
	if oco, ok := existing.(*order.OCO); ok {
		if err := oco.Add(item); err == nil {
			return
		}
	}
	oco, err := order.NewOCO(existing, item)
	if err != nil {
		log.Errorf(log.Broker, "could not fold exit order %s into %s: %v", item.GetID(), existing.GetID(), err)
		byDirection[d] = item
		return
	}
	if err := oco.MarkSubmitted(b.clock.CurrentTime(a)); err != nil {
		log.Errorf(log.Broker, "could not mark exit group %s submitted: %v", oco.ID, err)
	}
	byDirection[d] = oco
}

// sweepExitOrders clears every slot whose order can no longer fill
func (b *Broker) sweepExitOrders() {
	for a, byDirection := range b.exitOrders {
		for d, item := range byDirection {
			if item.IsTerminal() {
				delete(byDirection, d)
			}
		}
		if len(byDirection) == 0 {
			delete(b.exitOrders, a)
		}
	}
}

func (b *Broker) dropped(o *order.Order, why string) {
	log.Infof(log.Broker, "dropping %v: %s", o, why)
	if b.observer != nil {
		b.observer.OnOrderDropped(o)
	}
}

// ExecuteOpenOrders attempts every queued order once. Afterwards each order
// taken from the queue is either terminal or queued again. Orders queued
// while executing wait for the next call
func (b *Broker) ExecuteOpenOrders(ctx context.Context) error {
	queue := b.openOrders
	b.openOrders = nil
	var requeued []*order.Order
	var errs error
	for _, o := range queue {
		if o.Status == order.Completed {
			continue
		}
		if o.Status != order.Submitted {
			b.dropped(o, "no longer submitted")
			continue
		}
		if !o.InForce(b.clock.CurrentTime(o.Asset)) {
			b.dropped(o, "time in force elapsed")
			continue
		}
		requeue, err := b.exec.execute(ctx, b, o)
		if err != nil {
			errs = common.AppendError(errs, err)
		}
		if requeue && o.Status == order.Submitted {
			requeued = append(requeued, o)
		}
	}
	// a later fill in the same pass may have cancelled an earlier requeue
	pending := requeued[:0]
	for _, o := range requeued {
		if o.Status != order.Submitted {
			b.dropped(o, "no longer submitted")
			continue
		}
		pending = append(pending, o)
	}
	b.openOrders = append(pending, b.openOrders...)
	b.sweepExitOrders()
	return errs
}

// applyFill books a fill of o into the portfolio and completes o. It
// reports whether o should be retried because cash was insufficient
func (b *Broker) applyFill(o *order.Order, t *position.Transaction) (retry bool, err error) {
	if cost := t.CostWithCommission(); cost.GreaterThan(b.portfolio.Cash()) {
		log.Warnf(log.Broker, "%v cost %v exceeds cash %v, retrying next iteration", o, cost, b.portfolio.Cash())
		return true, nil
	}
	effective, err := b.portfolio.Transact(t)
	if err != nil {
		if isInsufficientCash(err) {
			return true, nil
		}
		return false, err
	}
	if err := o.Complete(t.Timestamp); err != nil {
		log.Warnf(log.Broker, "filled %v but could not complete it: %v", o, err)
	}
	b.sweepExitOrders()
	if b.observer != nil {
		b.observer.OnOrderCompleted(o, effective)
	}
	log.Infof(log.Broker, "filled %v at %v", o, t.Price)
	return false, nil
}

// CloseAllOpenPositions cancels every pending order of an asset and closes its
// positions at market. At end of day this only happens when configured
func (b *Broker) CloseAllOpenPositions(ctx context.Context, a market.Asset, endOfDay bool) error {
	if endOfDay && !b.closeOnEndOfDay {
		return nil
	}
	if byDirection, ok := b.exitOrders[a]; ok {
		for _, item := range byDirection {
			item.Cancel()
		}
		delete(b.exitOrders, a)
	}
	remaining := b.openOrders[:0]
	for _, o := range b.openOrders {
		if o.Asset != a {
			remaining = append(remaining, o)
			continue
		}
		o.Cancel()
		b.dropped(o, "closing all positions")
	}
	b.openOrders = remaining

	var errs error
	for _, d := range []order.Direction{order.Long, order.Short} {
		net := b.portfolio.NetSize(a, d)
		if net.IsZero() {
			continue
		}
		o, err := order.New(order.Order{
			Asset:          a,
			Action:         d.OpeningAction().Opposite(),
			Direction:      d,
			Size:           net.Abs(),
			Type:           order.Market,
			GenerationTime: b.clock.CurrentTime(a),
		})
		if err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		if err := o.SubmitAt(b.clock); err != nil {
			errs = common.AppendError(errs, err)
			continue
		}
		if b.observer != nil {
			b.observer.OnOrderSubmitted(o)
		}
		requeue, err := b.exec.execute(ctx, b, o)
		if err != nil {
			errs = common.AppendError(errs, err)
		}
		if requeue && o.Status == order.Submitted {
			b.openOrders = append(b.openOrders, o)
		}
		log.Infof(log.Broker, "closing %v %v position of %v (end of day %v)", a, d, net.Abs(), endOfDay)
	}
	return errs
}
