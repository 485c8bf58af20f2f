package influxdb

import (
	"context"

	"github.com/nerrad567/vesync-core/internal/device"
	"github.com/nerrad567/vesync-core/internal/fleet"
)

// StateWriter is the writing surface Recorder depends on.
// Satisfied by *Client; tests substitute a fake.
type StateWriter interface {
	WriteDeviceState(snap device.Snapshot)
}

// Recorder consumes fleet events and records state updates as
// time-series points. Add and remove events carry no telemetry and are
// ignored.
type Recorder struct {
	writer StateWriter
}

// NewRecorder creates a fleet-event recorder.
func NewRecorder(writer StateWriter) *Recorder {
	return &Recorder{writer: writer}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, events <-chan fleet.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type == fleet.EventStateUpdated {
				r.writer.WriteDeviceState(ev.Snapshot)
			}
		}
	}
}
