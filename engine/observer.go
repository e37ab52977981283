package engine

import (
	"context"
	"time"

	orderrepo "github.com/thrasher-corp/tradecore/database/repository/order"
	"github.com/thrasher-corp/tradecore/eventhandlers/broker"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/order"
)

// observers fans broker lifecycle notifications out in registration order
type observers []broker.Observer

// OnOrderSubmitted implements broker.Observer
func (o observers) OnOrderSubmitted(ord *order.Order) {
	for i := range o {
		o[i].OnOrderSubmitted(ord)
	}
}

// OnOrderCompleted implements broker.Observer
func (o observers) OnOrderCompleted(ord *order.Order, t *position.Transaction) {
	for i := range o {
		o[i].OnOrderCompleted(ord, t)
	}
}

// OnOrderDropped implements broker.Observer
func (o observers) OnOrderDropped(ord *order.Order) {
	for i := range o {
		o[i].OnOrderDropped(ord)
	}
}

// orderPersister upserts every order state change into storage
type orderPersister struct {
	repo    *orderrepo.Repository
	timeout time.Duration
}

func (p *orderPersister) save(o *order.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.repo.AddOrder(ctx, o); err != nil {
		log.Errorf(log.Database, "storing order %s: %v", o.ID, err)
	}
}

// OnOrderSubmitted implements broker.Observer
func (p *orderPersister) OnOrderSubmitted(o *order.Order) {
	p.save(o)
}

// OnOrderCompleted implements broker.Observer
func (p *orderPersister) OnOrderCompleted(o *order.Order, _ *position.Transaction) {
	p.save(o)
}

// OnOrderDropped implements broker.Observer
func (p *orderPersister) OnOrderDropped(o *order.Order) {
	p.save(o)
}
