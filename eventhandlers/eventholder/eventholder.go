package eventholder

import "github.com/thrasher-corp/tradecore/eventtypes/event"

// Reset removes all events
func (h *Holder) Reset() {
	h.m.Lock()
	h.queue = nil
	h.m.Unlock()
}

// AppendEvent adds events to the end of the queue in argument order
func (h *Holder) AppendEvent(e ...event.Handler) {
	h.m.Lock()
	for i := range e {
		if e[i] != nil {
			h.queue = append(h.queue, e[i])
		}
	}
	h.m.Unlock()
}

// NextEvent removes and returns the oldest event, nil when empty
func (h *Holder) NextEvent() event.Handler {
	h.m.Lock()
	defer h.m.Unlock()
	if len(h.queue) == 0 {
		return nil
	}
	e := h.queue[0]
	h.queue[0] = nil
	h.queue = h.queue[1:]
	return e
}

// Len returns the number of queued events
func (h *Holder) Len() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.queue)
}
