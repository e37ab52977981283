package venue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker/fee"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
	"github.com/thrasher-corp/tradecore/order"
)

// NewPaper returns a paper venue holding cash in currency
func NewPaper(name, currency string, cash decimal.Decimal, fees fee.Model) *Paper {
	if fees == nil {
		fees = &fee.Fixed{}
	}
	currency = strings.ToUpper(currency)
	return &Paper{
		name:       name,
		currency:   currency,
		fees:       fees,
		balances:   map[string]decimal.Decimal{currency: cash},
		prices:     make(map[market.Asset]decimal.Decimal),
		priceTimes: make(map[market.Asset]time.Time),
		products:   make(map[market.Asset]Product),
		positions:  make(map[market.Asset]map[order.Direction]*Position),
	}
}

// Name returns the venue name
func (p *Paper) Name() string {
	return p.name
}

// SetUnavailable makes every subsequent call fail with ErrAdapterUnavailable
func (p *Paper) SetUnavailable(unavailable bool) {
	p.m.Lock()
	p.unavailable = unavailable
	p.m.Unlock()
}

// AddProduct registers product metadata. Once any product is registered,
// orders for unregistered symbols are rejected
func (p *Paper) AddProduct(pr Product) {
	p.m.Lock()
	p.products[pr.Asset] = pr
	p.m.Unlock()
}

// SetPrice records the latest price and fills any resting order it
// triggers
func (p *Paper) SetPrice(a market.Asset, price decimal.Decimal, ts time.Time) {
	p.m.Lock()
	defer p.m.Unlock()
	p.prices[a] = price
	p.priceTimes[a] = ts
	remaining := p.resting[:0]
	for _, r := range p.resting {
		if r.req.Asset != a {
			remaining = append(remaining, r)
			continue
		}
		level := r.req.Limit
		switch r.req.Type {
		case order.Stop:
			level = r.req.Stop
		case order.Target:
			level = r.req.Target
		case order.TrailingStop:
			r.req.Stop = decimal.NewNullDecimal(order.TrailStop(r.req.Action, price, r.req.StopPct.Decimal, r.req.Stop))
			level = r.req.Stop
		}
		if !order.Triggered(r.req.Type, r.req.Action, price, level.Decimal) {
			remaining = append(remaining, r)
			continue
		}
		if err := p.fill(r.id, &r.req, price); err != nil {
			log.Warnf(log.Venue, "%s dropping resting order %s: %v", p.name, r.id, err)
		}
	}
	p.resting = remaining
}

// Fills returns every execution so far
func (p *Paper) Fills() []Fill {
	p.m.Lock()
	defer p.m.Unlock()
	resp := make([]Fill, len(p.fills))
	copy(resp, p.fills)
	return resp
}

// Resting returns the number of conditional orders waiting for a trigger
func (p *Paper) Resting() int {
	p.m.Lock()
	defer p.m.Unlock()
	return len(p.resting)
}

func (p *Paper) available() error {
	if p.unavailable {
		return fmt.Errorf("%w: %s", ErrAdapterUnavailable, p.name)
	}
	return nil
}

// UpdateCashBalances returns a copy of every balance
func (p *Paper) UpdateCashBalances(context.Context) (map[string]decimal.Decimal, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return nil, err
	}
	resp := make(map[string]decimal.Decimal, len(p.balances))
	for k, v := range p.balances {
		resp[k] = v
	}
	return resp, nil
}

// UpdatePositions returns every open position
func (p *Paper) UpdatePositions(context.Context) ([]Position, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return nil, err
	}
	var resp []Position
	for _, byDirection := range p.positions {
		for _, pos := range byDirection {
			resp = append(resp, *pos)
		}
	}
	return resp, nil
}

// UpdateTransactions returns fills executed at or after since
func (p *Paper) UpdateTransactions(_ context.Context, since time.Time) ([]Fill, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return nil, err
	}
	var resp []Fill
	for i := range p.fills {
		if !p.fills[i].Timestamp.Before(since) {
			resp = append(resp, p.fills[i])
		}
	}
	return resp, nil
}

// UpdatePrice returns the last set price
func (p *Paper) UpdatePrice(_ context.Context, a market.Asset) (decimal.Decimal, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return decimal.Zero, err
	}
	price, ok := p.prices[a]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s has no price for %v", ErrAdapterUnavailable, p.name, a)
	}
	return price, nil
}

// UpdateProducts returns the registered product metadata
func (p *Paper) UpdateProducts(context.Context) ([]Product, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return nil, err
	}
	resp := make([]Product, 0, len(p.products))
	for _, pr := range p.products {
		resp = append(resp, pr)
	}
	return resp, nil
}

// HasOpenedPosition reports whether the venue holds a position
func (p *Paper) HasOpenedPosition(_ context.Context, a market.Asset, d order.Direction) (bool, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return false, err
	}
	_, ok := p.positions[a][d]
	return ok, nil
}

func (p *Paper) validate(r *Request) error {
	if r == nil {
		return fmt.Errorf("%w: nil request", ErrOrderRejected)
	}
	if !r.Size.IsPositive() {
		return fmt.Errorf("%w: %s size %v", ErrOrderRejected, r.ClientOrderID, r.Size)
	}
	if len(p.products) == 0 {
		return nil
	}
	pr, ok := p.products[r.Asset]
	if !ok || (r.Symbol != "" && pr.Symbol != r.Symbol) {
		return fmt.Errorf("%w: %s unknown symbol %q", ErrOrderRejected, r.ClientOrderID, r.Symbol)
	}
	if pr.MinSize.IsPositive() && r.Size.LessThan(pr.MinSize) {
		return fmt.Errorf("%w: %s size %v below minimum %v", ErrOrderRejected, r.ClientOrderID, r.Size, pr.MinSize)
	}
	return nil
}

func newVenueID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ExecuteMarketOrder fills immediately at the last price
func (p *Paper) ExecuteMarketOrder(_ context.Context, r *Request) (string, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return "", err
	}
	if err := p.validate(r); err != nil {
		return "", err
	}
	price, ok := p.prices[r.Asset]
	if !ok {
		return "", fmt.Errorf("%w: %s no price for %v", ErrOrderRejected, r.ClientOrderID, r.Asset)
	}
	id, err := newVenueID()
	if err != nil {
		return "", err
	}
	return id, p.fill(id, r, price)
}

func (p *Paper) rest(r *Request, level decimal.NullDecimal) (string, error) {
	p.m.Lock()
	defer p.m.Unlock()
	if err := p.available(); err != nil {
		return "", err
	}
	if err := p.validate(r); err != nil {
		return "", err
	}
	if r.Type != order.TrailingStop && !level.Valid {
		return "", fmt.Errorf("%w: %s %v without a price level", ErrOrderRejected, r.ClientOrderID, r.Type)
	}
	if r.Type == order.TrailingStop && (!r.StopPct.Valid || !r.StopPct.Decimal.IsPositive()) {
		return "", fmt.Errorf("%w: %s trailing stop without a percentage", ErrOrderRejected, r.ClientOrderID)
	}
	id, err := newVenueID()
	if err != nil {
		return "", err
	}
	p.resting = append(p.resting, &restingOrder{id: id, req: *r})
	return id, nil
}

// ExecuteLimitOrder rests a limit order
func (p *Paper) ExecuteLimitOrder(_ context.Context, r *Request) (string, error) {
	if r != nil {
		r.Type = order.Limit
		return p.rest(r, r.Limit)
	}
	return p.rest(r, decimal.NullDecimal{})
}

// ExecuteStopOrder rests a stop order
func (p *Paper) ExecuteStopOrder(_ context.Context, r *Request) (string, error) {
	if r != nil {
		r.Type = order.Stop
		return p.rest(r, r.Stop)
	}
	return p.rest(r, decimal.NullDecimal{})
}

// ExecuteTargetOrder rests a target order
func (p *Paper) ExecuteTargetOrder(_ context.Context, r *Request) (string, error) {
	if r != nil {
		r.Type = order.Target
		return p.rest(r, r.Target)
	}
	return p.rest(r, decimal.NullDecimal{})
}

// ExecuteTrailingStopOrder rests a trailing stop order
func (p *Paper) ExecuteTrailingStopOrder(_ context.Context, r *Request) (string, error) {
	if r != nil {
		r.Type = order.TrailingStop
		return p.rest(r, r.Stop)
	}
	return p.rest(r, decimal.NullDecimal{})
}

// fill books an execution. The caller holds the lock
func (p *Paper) fill(venueID string, r *Request, price decimal.Decimal) error {
	consideration := r.Size.Mul(price)
	commission := p.fees.CalcTotalCost(r.Asset, r.Size, consideration)
	cash := p.balances[p.currency]
	if r.Action == order.Buy {
		cost := consideration.Add(commission)
		if cost.GreaterThan(cash) {
			return fmt.Errorf("%w: %s cost %v exceeds balance %v", ErrOrderRejected, r.ClientOrderID, cost, cash)
		}
		p.balances[p.currency] = cash.Sub(cost)
	} else {
		p.balances[p.currency] = cash.Add(consideration).Sub(commission)
	}
	p.applyPosition(r, price)
	id, err := newVenueID()
	if err != nil {
		return err
	}
	p.fills = append(p.fills, Fill{
		ID:           id,
		VenueOrderID: venueID,
		Asset:        r.Asset,
		Action:       r.Action,
		Direction:    r.Direction,
		Size:         r.Size,
		Price:        price,
		Commission:   commission,
		Timestamp:    p.priceTimes[r.Asset],
	})
	return nil
}

func (p *Paper) applyPosition(r *Request, price decimal.Decimal) {
	byDirection, ok := p.positions[r.Asset]
	if !ok {
		byDirection = make(map[order.Direction]*Position)
		p.positions[r.Asset] = byDirection
	}
	pos, ok := byDirection[r.Direction]
	if order.IsClosing(r.Action, r.Direction) {
		if !ok {
			return
		}
		pos.Size = decimal.Max(pos.Size.Sub(r.Size), decimal.Zero)
		if pos.Size.IsZero() {
			delete(byDirection, r.Direction)
		}
	} else {
		if !ok {
			pos = &Position{Asset: r.Asset, Direction: r.Direction}
			byDirection[r.Direction] = pos
		}
		total := pos.Size.Add(r.Size)
		pos.AvgPrice = pos.AvgPrice.Mul(pos.Size).Add(price.Mul(r.Size)).Div(total)
		pos.Size = total
	}
	if len(byDirection) == 0 {
		delete(p.positions, r.Asset)
	}
}
