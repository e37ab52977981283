package order

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/thrasher-corp/tradecore/log"
	"github.com/thrasher-corp/tradecore/market"
)

// Sequencer is implemented by every sequential composite
type Sequencer interface {
	Item
	SetSubmitter(Submitter)
	Head() Item
	MarkSubmitted(time.Time) error
}

// Group is implemented by composites whose children are all live at once
type Group interface {
	Item
	Children() []Item
	MarkSubmitted(time.Time) error
}

func newComposite(children []Item) (composite, error) {
	if len(children) == 0 {
		return composite{}, errNoChildren
	}
	for i := range children {
		if children[i] == nil {
			return composite{}, fmt.Errorf("%w at index %d", errNilChild, i)
		}
	}
	id, err := uuid.NewV4()
	if err != nil {
		return composite{}, err
	}
	return composite{
		ID:       id.String(),
		Status:   Created,
		children: children,
	}, nil
}

// GetID returns the composite ID
func (c *composite) GetID() string {
	return c.ID
}

// GetAsset returns the asset of the first child
func (c *composite) GetAsset() market.Asset {
	return c.children[0].GetAsset()
}

// GetStatus returns the composite status
func (c *composite) GetStatus() Status {
	return c.Status
}

// IsTerminal returns whether the composite can no longer change
func (c *composite) IsTerminal() bool {
	return c.Status.IsTerminal()
}

// Children returns the direct children
func (c *composite) Children() []Item {
	resp := make([]Item, len(c.children))
	copy(resp, c.children)
	return resp
}

// Leaves returns every leaf order depth first
func (c *composite) Leaves() []*Order {
	var resp []*Order
	for i := range c.children {
		resp = append(resp, c.children[i].Leaves()...)
	}
	return resp
}

// AddListener registers a completion listener
func (c *composite) AddListener(l Listener, index int) {
	c.listeners = append(c.listeners, registration{listener: l, index: index})
}

// MarkSubmitted records that the owner has submitted the composite's live
// children itself
func (c *composite) MarkSubmitted(ts time.Time) error {
	if c.Status != Created {
		return fmt.Errorf("%w %s %v -> %v", ErrInvalidTransition, c.ID, c.Status, Submitted)
	}
	c.Status = Submitted
	c.SubmissionTime = ts
	return nil
}

// Cancel cancels every live child and the composite itself
func (c *composite) Cancel() {
	if c.Status.IsTerminal() {
		return
	}
	for i := range c.children {
		c.children[i].Cancel()
	}
	c.Status = Cancelled
}

func (c *composite) complete(ts time.Time) {
	if c.Status.IsTerminal() {
		return
	}
	c.Status = Completed
	for i := range c.listeners {
		c.listeners[i].listener.OnChildComplete(c.listeners[i].index, ts)
	}
}

func (c *composite) submitChildren(children []Item, ts time.Time) error {
	if err := c.MarkSubmitted(ts); err != nil {
		return err
	}
	for i := range children {
		if err := children[i].Submit(ts); err != nil {
			return err
		}
	}
	return nil
}

// NewMultiple returns a composite that completes once every child completes
func NewMultiple(children ...Item) (*Multiple, error) {
	c, err := newComposite(children)
	if err != nil {
		return nil, err
	}
	m := &Multiple{composite: c}
	for i := range m.children {
		m.children[i].AddListener(m, i)
	}
	return m, nil
}

// Submit submits every child
func (m *Multiple) Submit(ts time.Time) error {
	return m.submitChildren(m.children, ts)
}

// OnChildComplete completes the parent once all children are complete
func (m *Multiple) OnChildComplete(_ int, ts time.Time) {
	for i := range m.children {
		if m.children[i].GetStatus() != Completed {
			return
		}
	}
	m.complete(ts)
}

// NewSequential returns a composite that submits children one at a time
func NewSequential(children ...Item) (*Sequential, error) {
	c, err := newComposite(children)
	if err != nil {
		return nil, err
	}
	s := &Sequential{composite: c}
	s.wire()
	return s, nil
}

func (s *Sequential) wire() {
	for i := range s.children {
		s.children[i].AddListener(s, i)
	}
}

// SetSubmitter routes subsequent children through sub
func (s *Sequential) SetSubmitter(sub Submitter) {
	s.submitter = sub
}

// Head returns the first child
func (s *Sequential) Head() Item {
	return s.children[0]
}

// Submit submits the first child only
func (s *Sequential) Submit(ts time.Time) error {
	return s.submitChildren(s.children[:1], ts)
}

// OnChildComplete submits the next child, or completes after the last one
func (s *Sequential) OnChildComplete(index int, ts time.Time) {
	if s.Status.IsTerminal() {
		return
	}
	if index >= len(s.children)-1 {
		s.complete(ts)
		return
	}
	next := s.children[index+1]
	var err error
	if s.submitter != nil {
		err = s.submitter.SubmitOrder(next)
	} else {
		err = next.Submit(ts)
	}
	if err != nil {
		log.Errorf(log.OrderMgr, "sequential order %s could not submit child %d: %v", s.ID, index+1, err)
	}
}

// NewOCO returns a one-cancels-other group
func NewOCO(children ...Item) (*OCO, error) {
	c, err := newComposite(children)
	if err != nil {
		return nil, err
	}
	o := &OCO{composite: c}
	for i := range o.children {
		o.children[i].AddListener(o, i)
	}
	return o, nil
}

// Submit submits every child
func (o *OCO) Submit(ts time.Time) error {
	return o.submitChildren(o.children, ts)
}

// Add folds another child into a live group
func (o *OCO) Add(child Item) error {
	if child == nil {
		return errNilChild
	}
	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot add to %v oco %s", ErrInvalidTransition, o.Status, o.ID)
	}
	o.children = append(o.children, child)
	child.AddListener(o, len(o.children)-1)
	return nil
}

// OnChildComplete cancels every sibling then completes the group
func (o *OCO) OnChildComplete(index int, ts time.Time) {
	if o.Status.IsTerminal() {
		return
	}
	for i := range o.children {
		if i != index {
			o.children[i].Cancel()
		}
	}
	o.complete(ts)
}

func checkHomogeneous(children []Item) error {
	asset := children[0].GetAsset()
	for i := range children {
		leaves := children[i].Leaves()
		for j := range leaves {
			if leaves[j].Asset != asset {
				return fmt.Errorf("%w: %v and %v", ErrHeterogeneousComposite, asset, leaves[j].Asset)
			}
		}
	}
	return nil
}

func newHomogeneous(children []Item) (HomogeneousSequential, error) {
	c, err := newComposite(children)
	if err != nil {
		return HomogeneousSequential{}, err
	}
	if err := checkHomogeneous(children); err != nil {
		return HomogeneousSequential{}, err
	}
	return HomogeneousSequential{Sequential{composite: c}}, nil
}

// NewHomogeneousSequential returns a sequential composite whose leaves all
// reference the same asset
func NewHomogeneousSequential(children ...Item) (*HomogeneousSequential, error) {
	h, err := newHomogeneous(children)
	if err != nil {
		return nil, err
	}
	resp := &h
	resp.wire()
	return resp, nil
}

func validateInitiation(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: %w", ErrInvalidComposite, errNilChild)
	}
	if o.Type != Market && o.Type != Limit {
		return fmt.Errorf("%w: initiation must be market or limit, received %v", ErrInvalidComposite, o.Type)
	}
	if !o.IsEntry() {
		return fmt.Errorf("%w: initiation %v %v does not open a position", ErrInvalidComposite, o.Action, o.Direction)
	}
	return nil
}

func validateProtective(initiation, o *Order, allowed ...Type) error {
	if o == nil {
		return fmt.Errorf("%w: %w", ErrInvalidComposite, errNilChild)
	}
	var typeAllowed bool
	for i := range allowed {
		if o.Type == allowed[i] {
			typeAllowed = true
			break
		}
	}
	if !typeAllowed {
		return fmt.Errorf("%w: protective order type %v not in %v", ErrInvalidComposite, o.Type, allowed)
	}
	if !o.IsExit() {
		return fmt.Errorf("%w: protective order %v %v does not close a position", ErrInvalidComposite, o.Action, o.Direction)
	}
	if o.Direction != initiation.Direction || o.Action != initiation.Action.Opposite() {
		return fmt.Errorf("%w: protective order %v %v does not close initiation %v %v",
			ErrInvalidComposite, o.Action, o.Direction, initiation.Action, initiation.Direction)
	}
	return nil
}

// NewCover returns [initiation, stop] where stop protects the opened position
func NewCover(initiation, stop *Order) (*Cover, error) {
	if err := validateInitiation(initiation); err != nil {
		return nil, err
	}
	if err := validateProtective(initiation, stop, Stop, TrailingStop); err != nil {
		return nil, err
	}
	h, err := newHomogeneous([]Item{initiation, stop})
	if err != nil {
		return nil, err
	}
	c := &Cover{HomogeneousSequential: h}
	c.wire()
	return c, nil
}

// Initiation returns the opening order
func (c *Cover) Initiation() *Order {
	return c.children[0].(*Order)
}

// StopLoss returns the protective order
func (c *Cover) StopLoss() *Order {
	return c.children[1].(*Order)
}

// NewBracket returns [initiation, OCO(target, stop)]
func NewBracket(initiation, target, stop *Order) (*Bracket, error) {
	if err := validateInitiation(initiation); err != nil {
		return nil, err
	}
	if err := validateProtective(initiation, target, Target); err != nil {
		return nil, err
	}
	if err := validateProtective(initiation, stop, Stop, TrailingStop); err != nil {
		return nil, err
	}
	exits, err := NewOCO(target, stop)
	if err != nil {
		return nil, err
	}
	h, err := newHomogeneous([]Item{initiation, exits})
	if err != nil {
		return nil, err
	}
	b := &Bracket{HomogeneousSequential: h}
	b.wire()
	return b, nil
}

// Initiation returns the opening order
func (b *Bracket) Initiation() *Order {
	return b.children[0].(*Order)
}

// Exits returns the target and stop group
func (b *Bracket) Exits() *OCO {
	return b.children[1].(*OCO)
}

// Target returns the profit taking order
func (b *Bracket) Target() *Order {
	return b.Exits().children[0].(*Order)
}

// StopLoss returns the protective stop order
func (b *Bracket) StopLoss() *Order {
	return b.Exits().children[1].(*Order)
}
