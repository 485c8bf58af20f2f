package influxdb

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/vesync-core/internal/device"
	"github.com/nerrad567/vesync-core/internal/fleet"
)

func TestStateTags(t *testing.T) {
	tags := stateTags(device.Snapshot{
		ID:         "cid-1",
		DeviceType: "LAP-C401S-WUSR",
		Category:   device.CategoryFans,
		Class:      device.ClassAirPurifierBypass,
	})

	want := map[string]string{
		"device_id":   "cid-1",
		"device_type": "LAP-C401S-WUSR",
		"category":    "fans",
		"class":       "air_purifier_bypass",
	}
	for k, v := range want {
		if tags[k] != v {
			t.Errorf("tags[%q] = %q, want %q", k, tags[k], v)
		}
	}
}

func TestStateFieldsPurifier(t *testing.T) {
	fields := stateFields(device.Snapshot{
		Status: "on",
		Details: device.Details{
			Speed:      2,
			AirQuality: 1,
			FilterLife: 87,
		},
	})

	if fields["power_state"] != 1 {
		t.Errorf("power_state = %v, want 1", fields["power_state"])
	}
	if fields["speed"] != 2 {
		t.Errorf("speed = %v, want 2", fields["speed"])
	}
	if fields["air_quality"] != 1 {
		t.Errorf("air_quality = %v, want 1", fields["air_quality"])
	}
	if fields["filter_life"] != 87 {
		t.Errorf("filter_life = %v, want 87", fields["filter_life"])
	}
	if _, ok := fields["humidity"]; ok {
		t.Error("purifier snapshot should not emit a humidity field")
	}
}

func TestStateFieldsMeteringOutlet(t *testing.T) {
	fields := stateFields(device.Snapshot{
		Status: "off",
		Details: device.Details{
			Power:   12.5,
			Voltage: 238.2,
			Energy:  4.1,
		},
	})

	if fields["power_state"] != 0 {
		t.Errorf("power_state = %v, want 0", fields["power_state"])
	}
	if fields["power_watts"] != 12.5 {
		t.Errorf("power_watts = %v, want 12.5", fields["power_watts"])
	}
	if fields["voltage"] != 238.2 {
		t.Errorf("voltage = %v, want 238.2", fields["voltage"])
	}
	if fields["energy_kwh"] != 4.1 {
		t.Errorf("energy_kwh = %v, want 4.1", fields["energy_kwh"])
	}
}

func TestStateFieldsOmitsAbsentTelemetry(t *testing.T) {
	// A wall switch reports nothing beyond its power state.
	fields := stateFields(device.Snapshot{Status: "on"})

	if len(fields) != 1 {
		t.Errorf("fields = %v, want power_state only", fields)
	}
}

type fakeWriter struct {
	snapshots []device.Snapshot
}

func (f *fakeWriter) WriteDeviceState(snap device.Snapshot) {
	f.snapshots = append(f.snapshots, snap)
}

func TestRecorderWritesStateUpdatesOnly(t *testing.T) {
	w := &fakeWriter{}
	rec := NewRecorder(w)

	events := make(chan fleet.Event, 3)
	events <- fleet.Event{Type: fleet.EventDeviceAdded, DeviceID: "cid-1"}
	events <- fleet.Event{
		Type:     fleet.EventStateUpdated,
		DeviceID: "cid-1",
		Snapshot: device.Snapshot{ID: "cid-1", Status: "on"},
	}
	events <- fleet.Event{Type: fleet.EventDeviceRemoved, DeviceID: "cid-1"}
	close(events)

	done := make(chan struct{})
	go func() {
		rec.Run(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}

	if len(w.snapshots) != 1 {
		t.Fatalf("wrote %d snapshots, want 1", len(w.snapshots))
	}
	if w.snapshots[0].ID != "cid-1" {
		t.Errorf("snapshot ID = %q, want cid-1", w.snapshots[0].ID)
	}
}
