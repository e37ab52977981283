package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

// Action is the side of a trade
type Action string

// Direction is the side of a position
type Direction string

// Type is the execution rule of a leaf order
type Type string

// Status is the lifecycle state of an order
type Status string

// Actions
const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Directions
const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Order types
const (
	Market       Type = "MARKET"
	Limit        Type = "LIMIT"
	Stop         Type = "STOP"
	Target       Type = "TARGET"
	TrailingStop Type = "TRAILING_STOP"
)

// Order statuses
const (
	Created   Status = "CREATED"
	Submitted Status = "SUBMITTED"
	Completed Status = "COMPLETED"
	Cancelled Status = "CANCELLED"
	Expired   Status = "EXPIRED"
)

var (
	// ErrInvalidComposite is returned when a composite order breaks its
	// structural rules
	ErrInvalidComposite = errors.New("invalid composite order")
	// ErrHeterogeneousComposite is returned when a homogeneous composite
	// receives children for more than one asset
	ErrHeterogeneousComposite = errors.New("heterogeneous composite order")
	// ErrInvalidTransition is returned on a status change the lifecycle forbids
	ErrInvalidTransition = errors.New("invalid order status transition")

	errInvalidAction    = errors.New("invalid action")
	errInvalidDirection = errors.New("invalid direction")
	errInvalidType      = errors.New("invalid order type")
	errNegativeSize     = errors.New("order size cannot be negative")
	errMissingLevel     = errors.New("order type requires a price level")
	errNoChildren       = errors.New("composite requires children")
	errNilChild         = errors.New("composite received nil child")
)

// Order is a single executable instruction. Optional price levels use
// NullDecimal; TimeInForce of zero means good till cancelled
type Order struct {
	ID             string              `json:"id"`
	Asset          market.Asset        `json:"asset"`
	Action         Action              `json:"action"`
	Direction      Direction           `json:"direction"`
	Size           decimal.Decimal     `json:"size"`
	Type           Type                `json:"type"`
	Limit          decimal.NullDecimal `json:"limit"`
	Stop           decimal.NullDecimal `json:"stop"`
	Target         decimal.NullDecimal `json:"target"`
	StopPct        decimal.NullDecimal `json:"stopPct"`
	SignalID       string              `json:"signalId"`
	Status         Status              `json:"status"`
	GenerationTime time.Time           `json:"generationTime"`
	SubmissionTime time.Time           `json:"submissionTime"`
	CompletionTime time.Time           `json:"completionTime"`
	TimeInForce    time.Duration       `json:"timeInForce"`
	RejectReason   string              `json:"rejectReason,omitempty"`
	VenueOrderID   string              `json:"venueOrderId,omitempty"`

	listeners []registration
}

// Item is implemented by leaf orders and every composite
type Item interface {
	GetID() string
	GetAsset() market.Asset
	GetStatus() Status
	IsTerminal() bool
	Leaves() []*Order
	Submit(ts time.Time) error
	Cancel()
	AddListener(l Listener, index int)
}

// Listener is notified when the child at index completes
type Listener interface {
	OnChildComplete(index int, ts time.Time)
}

// Submitter routes the next child of a sequential composite back through
// whoever owns order execution
type Submitter interface {
	SubmitOrder(Item) error
}

// TimeSource supplies the current time for an asset
type TimeSource interface {
	CurrentTime(market.Asset) time.Time
}

type registration struct {
	listener Listener
	index    int
}

// composite carries the state shared by every composite order
type composite struct {
	ID             string
	Status         Status
	SubmissionTime time.Time
	children       []Item
	listeners      []registration
}

// Multiple submits every child together and completes once all children
// have completed
type Multiple struct {
	composite
}

// Sequential submits child i+1 when child i completes and completes with
// its last child
type Sequential struct {
	composite
	submitter Submitter
}

// OCO submits every child; the first child to complete cancels the rest
type OCO struct {
	composite
}

// HomogeneousSequential is a Sequential whose leaves share one asset
type HomogeneousSequential struct {
	Sequential
}

// Cover is [initiation, protective stop]
type Cover struct {
	HomogeneousSequential
}

// Bracket is [initiation, OCO(target, protective stop)]
type Bracket struct {
	HomogeneousSequential
}
