package mqtt

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/vesync-core/internal/fleet"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
)

// Broker is the publishing surface Publisher depends on.
// Satisfied by *Client; tests substitute a fake.
type Broker interface {
	PublishRetained(topic string, payload []byte) error
}

// Publisher republishes fleet events as retained device-state messages.
//
// Each device owns one retained topic keyed by category and id. When a
// device leaves the fleet its retained state is cleared with an empty
// payload and a removal notice is published, so consumers never mirror
// a device that no longer exists.
type Publisher struct {
	broker Broker
	log    *logging.Logger

	// lastTopic remembers each device's state topic so the retained
	// message can be cleared on removal, when the event carries no
	// snapshot to rebuild the topic from.
	lastTopic map[string]string
}

// NewPublisher creates a fleet-event publisher.
func NewPublisher(broker Broker, log *logging.Logger) *Publisher {
	return &Publisher{
		broker:    broker,
		log:       log,
		lastTopic: make(map[string]string),
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
// Publish failures are logged and skipped; a flaky broker must not
// stall fleet operations.
func (p *Publisher) Run(ctx context.Context, events <-chan fleet.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.handle(ev)
		}
	}
}

func (p *Publisher) handle(ev fleet.Event) {
	switch ev.Type {
	case fleet.EventDeviceAdded, fleet.EventStateUpdated:
		p.publishState(ev)
	case fleet.EventDeviceRemoved:
		p.publishRemoval(ev.DeviceID)
	}
}

func (p *Publisher) publishState(ev fleet.Event) {
	payload, err := json.Marshal(ev.Snapshot)
	if err != nil {
		p.log.Error("serialising device state", "device_id", ev.DeviceID, "error", err)
		return
	}

	topic := Topics{}.DeviceState(string(ev.Snapshot.Category), ev.DeviceID)
	p.lastTopic[ev.DeviceID] = topic

	if err := p.broker.PublishRetained(topic, payload); err != nil {
		p.log.Warn("publishing device state", "topic", topic, "error", err)
	}
}

func (p *Publisher) publishRemoval(deviceID string) {
	// Empty retained payload clears the broker's stored state message.
	if topic, ok := p.lastTopic[deviceID]; ok {
		if err := p.broker.PublishRetained(topic, nil); err != nil {
			p.log.Warn("clearing device state", "topic", topic, "error", err)
		}
		delete(p.lastTopic, deviceID)
	}

	topic := Topics{}.DeviceRemoved(deviceID)
	if err := p.broker.PublishRetained(topic, []byte(`{"removed":true}`)); err != nil {
		p.log.Warn("publishing device removal", "topic", topic, "error", err)
	}
}
