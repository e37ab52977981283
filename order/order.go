package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/tradecore/market"
)

// IsClosing returns true when the action reduces a position in direction
func IsClosing(a Action, d Direction) bool {
	return (a == Sell && d == Long) || (a == Buy && d == Short)
}

// String implements fmt.Stringer
func (a Action) String() string {
	return string(a)
}

// Lower returns the lower case string
func (a Action) Lower() string {
	return strings.ToLower(string(a))
}

// Opposite returns the other side
func (a Action) Opposite() Action {
	if a == Buy {
		return Sell
	}
	return Buy
}

// Validate checks the action is known
func (a Action) Validate() error {
	switch a {
	case Buy, Sell:
		return nil
	}
	return fmt.Errorf("%w %q", errInvalidAction, a)
}

// String implements fmt.Stringer
func (d Direction) String() string {
	return string(d)
}

// Lower returns the lower case string
func (d Direction) Lower() string {
	return strings.ToLower(string(d))
}

// Validate checks the direction is known
func (d Direction) Validate() error {
	switch d {
	case Long, Short:
		return nil
	}
	return fmt.Errorf("%w %q", errInvalidDirection, d)
}

// OpeningAction returns the action that increases a position in d
func (d Direction) OpeningAction() Action {
	if d == Short {
		return Sell
	}
	return Buy
}

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// Validate checks the order type is known
func (t Type) Validate() error {
	switch t {
	case Market, Limit, Stop, Target, TrailingStop:
		return nil
	}
	return fmt.Errorf("%w %q", errInvalidType, t)
}

// String implements fmt.Stringer
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled || s == Expired
}

// New validates o and returns a copy in the Created state with an ID
func New(o Order) (*Order, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	resp := o
	resp.listeners = nil
	resp.Status = Created
	resp.SubmissionTime = time.Time{}
	resp.CompletionTime = time.Time{}
	if resp.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		resp.ID = id.String()
	}
	return &resp, nil
}

// Validate checks fields required for the order type
func (o *Order) Validate() error {
	if err := o.Asset.Validate(); err != nil {
		return err
	}
	if err := o.Action.Validate(); err != nil {
		return err
	}
	if err := o.Direction.Validate(); err != nil {
		return err
	}
	if err := o.Type.Validate(); err != nil {
		return err
	}
	if o.Size.IsNegative() {
		return fmt.Errorf("%w %v", errNegativeSize, o.Size)
	}
	switch o.Type {
	case Limit:
		if !o.Limit.Valid {
			return fmt.Errorf("%v %w: limit", o.Type, errMissingLevel)
		}
	case Stop:
		if !o.Stop.Valid {
			return fmt.Errorf("%v %w: stop", o.Type, errMissingLevel)
		}
	case Target:
		if !o.Target.Valid {
			return fmt.Errorf("%v %w: target", o.Type, errMissingLevel)
		}
	case TrailingStop:
		if !o.StopPct.Valid || !o.StopPct.Decimal.IsPositive() {
			return fmt.Errorf("%v %w: stop percentage", o.Type, errMissingLevel)
		}
	}
	return nil
}

// IsExit returns whether the order closes a position
func (o *Order) IsExit() bool {
	return IsClosing(o.Action, o.Direction)
}

// IsEntry returns whether the order opens a position
func (o *Order) IsEntry() bool {
	return !o.IsExit()
}

// GetID returns the order ID
func (o *Order) GetID() string {
	return o.ID
}

// GetAsset returns the order asset
func (o *Order) GetAsset() market.Asset {
	return o.Asset
}

// GetStatus returns the current status
func (o *Order) GetStatus() Status {
	return o.Status
}

// IsTerminal returns whether the order can no longer change
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Leaves returns the order itself
func (o *Order) Leaves() []*Order {
	return []*Order{o}
}

// AddListener registers a completion listener
func (o *Order) AddListener(l Listener, index int) {
	o.listeners = append(o.listeners, registration{listener: l, index: index})
}

// Submit moves a Created order to Submitted
func (o *Order) Submit(ts time.Time) error {
	if o.Status != Created {
		return fmt.Errorf("%w %s %v -> %v", ErrInvalidTransition, o.ID, o.Status, Submitted)
	}
	o.Status = Submitted
	o.SubmissionTime = ts
	return nil
}

// SubmitAt submits using the time source's current time for the order asset
func (o *Order) SubmitAt(ts TimeSource) error {
	return o.Submit(ts.CurrentTime(o.Asset))
}

// Complete moves a Submitted order to Completed and notifies listeners in
// registration order
func (o *Order) Complete(ts time.Time) error {
	if o.Status != Submitted {
		return fmt.Errorf("%w %s %v -> %v", ErrInvalidTransition, o.ID, o.Status, Completed)
	}
	o.Status = Completed
	o.CompletionTime = ts
	for i := range o.listeners {
		o.listeners[i].listener.OnChildComplete(o.listeners[i].index, ts)
	}
	return nil
}

// Cancel cancels a live order. Terminal orders are left untouched
func (o *Order) Cancel() {
	if o.Status.IsTerminal() {
		return
	}
	o.Status = Cancelled
}

// Reject cancels the order and records why the venue refused it
func (o *Order) Reject(reason string) {
	if o.Status.IsTerminal() {
		return
	}
	o.RejectReason = reason
	o.Status = Cancelled
}

// Expire moves a Submitted order to Expired
func (o *Order) Expire() {
	if o.Status == Submitted {
		o.Status = Expired
	}
}

// InForce reports whether the order is still valid at ts. A Submitted order
// whose time in force has lapsed is expired as a side effect
func (o *Order) InForce(ts time.Time) bool {
	if o.TimeInForce <= 0 {
		return true
	}
	start := o.SubmissionTime
	if start.IsZero() {
		start = o.GenerationTime
	}
	if start.Add(o.TimeInForce).After(ts) {
		return true
	}
	o.Expire()
	return false
}

// Level returns the price level relevant to the order type
func (o *Order) Level() decimal.NullDecimal {
	switch o.Type {
	case Limit:
		return o.Limit
	case Stop, TrailingStop:
		return o.Stop
	case Target:
		return o.Target
	}
	return decimal.NullDecimal{}
}

// String implements fmt.Stringer
func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %s %v %s [%s]", o.ID, o.Asset, o.Action, o.Direction, o.Size, o.Type, o.Status)
}

// Triggered reports whether a conditional order of type t on side a fires at
// price. Market orders always fire
func Triggered(t Type, a Action, price, level decimal.Decimal) bool {
	switch t {
	case Market:
		return true
	case Limit, Target:
		if a == Buy {
			return price.LessThanOrEqual(level)
		}
		return price.GreaterThanOrEqual(level)
	case Stop, TrailingStop:
		if a == Buy {
			return price.GreaterThanOrEqual(level)
		}
		return price.LessThanOrEqual(level)
	}
	return false
}

// TrailStop returns the trailing stop level for price. Sell stops trail below
// the market and only rise, buy stops trail above and only fall
func TrailStop(a Action, price, pct decimal.Decimal, current decimal.NullDecimal) decimal.Decimal {
	offset := price.Mul(pct)
	if a == Buy {
		candidate := price.Add(offset)
		if current.Valid {
			return decimal.Min(current.Decimal, candidate)
		}
		return candidate
	}
	candidate := price.Sub(offset)
	if current.Valid {
		return decimal.Max(current.Decimal, candidate)
	}
	return candidate
}

// Trail tightens a trailing stop order's level toward price
func (o *Order) Trail(price decimal.Decimal) {
	if o.Type != TrailingStop || !o.StopPct.Valid {
		return
	}
	o.Stop = decimal.NewNullDecimal(TrailStop(o.Action, price, o.StopPct.Decimal, o.Stop))
}
