package fleet

import (
	"sync"

	"github.com/nerrad567/vesync-core/internal/device"
)

// EventType classifies fleet events.
type EventType string

const (
	EventDeviceAdded   EventType = "device_added"
	EventDeviceRemoved EventType = "device_removed"
	EventStateUpdated  EventType = "state_updated"
)

// Event is one fleet change, published to all subscribers. Snapshot is
// zero-valued for EventDeviceRemoved.
type Event struct {
	Type     EventType       `json:"type"`
	DeviceID string          `json:"device_id"`
	Snapshot device.Snapshot `json:"snapshot,omitempty"`
}

// broadcaster fans events out to subscriber channels. Slow consumers
// lose events rather than blocking fleet operations.
type broadcaster struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan Event]struct{})}
}

// subscribe registers a buffered event channel and returns it with an
// unsubscribe func. Closing happens on unsubscribe only.
func (b *broadcaster) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
}

// publish delivers the event to every subscriber, dropping it for any
// whose buffer is full.
func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
