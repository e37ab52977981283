package eventholder

import (
	"sync"

	"github.com/thrasher-corp/tradecore/eventtypes/event"
)

// Holder is the loop's event FIFO. Any goroutine may append; only the loop
// consumes
type Holder struct {
	m     sync.Mutex
	queue []event.Handler
}

// EventHolder interface details what is expected of an event holder to perform
type EventHolder interface {
	Reset()
	AppendEvent(...event.Handler)
	NextEvent() event.Handler
	Len() int
}
