// Package metrics exposes the trading core's Prometheus collectors
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/eventhandlers/portfolio/position"
	"github.com/thrasher-corp/tradecore/order"
)

const namespace = "tradecore"

// Order outcome labels
const (
	OrderSubmitted = "submitted"
	OrderCompleted = "completed"
	OrderDropped   = "dropped"
)

// EventsProcessed counts events handled by the loop per kind
var EventsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventloop",
		Name:      "events_processed_total",
		Help:      "Total number of events processed by the event loop",
	},
	[]string{"kind"},
)

// CandlesDeduplicated counts market data events discarded as duplicates
var CandlesDeduplicated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "eventloop",
		Name:      "candles_deduplicated_total",
		Help:      "Total number of duplicate candles discarded",
	},
)

// EventLatency observes how long the loop spends on one event
var EventLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "eventloop",
		Name:      "event_latency_ms",
		Help:      "Time spent processing a single event in milliseconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 50},
	},
	[]string{"kind"},
)

// Orders counts leaf orders per outcome
var Orders = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "broker",
		Name:      "orders_total",
		Help:      "Total number of orders per outcome",
	},
	[]string{"outcome", "type"},
)

// VenueSyncFailures counts failed venue synchronisations per resource
var VenueSyncFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "broker",
		Name:      "venue_sync_failures_total",
		Help:      "Total number of failed venue synchronisations",
	},
	[]string{"venue", "resource"},
)

// Equity is the latest portfolio equity
var Equity = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "portfolio",
		Name:      "equity",
		Help:      "Portfolio cash plus market value",
	},
)

// Cash is the latest portfolio cash
var Cash = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "portfolio",
		Name:      "cash",
		Help:      "Portfolio cash",
	},
)

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetPortfolio publishes portfolio valuations
func SetPortfolio(cash, equity decimal.Decimal) {
	Cash.Set(cash.InexactFloat64())
	Equity.Set(equity.InexactFloat64())
}

// OrderObserver counts broker order outcomes
type OrderObserver struct{}

// OnOrderSubmitted implements the broker observer
func (OrderObserver) OnOrderSubmitted(o *order.Order) {
	Orders.WithLabelValues(OrderSubmitted, o.Type.String()).Inc()
}

// OnOrderCompleted implements the broker observer
func (OrderObserver) OnOrderCompleted(o *order.Order, _ *position.Transaction) {
	Orders.WithLabelValues(OrderCompleted, o.Type.String()).Inc()
}

// OnOrderDropped implements the broker observer
func (OrderObserver) OnOrderDropped(o *order.Order) {
	Orders.WithLabelValues(OrderDropped, o.Type.String()).Inc()
}
