package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/vesync-core/internal/device"
)

// WriteDeviceState records one device snapshot as a point in the
// device_state measurement.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Telemetry the device does not report is omitted rather than written
// as zero, so a purifier never pollutes humidity series and a switch
// writes nothing but its power state.
func (c *Client) WriteDeviceState(snap device.Snapshot) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint("device_state", stateTags(snap), stateFields(snap), time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteDeviceState, such as
// daemon-level statistics.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// stateTags builds the low-cardinality index tags for a snapshot.
func stateTags(snap device.Snapshot) map[string]string {
	return map[string]string{
		"device_id":   snap.ID,
		"device_type": snap.DeviceType,
		"category":    string(snap.Category),
		"class":       string(snap.Class),
	}
}

// stateFields extracts the numeric telemetry a snapshot carries.
// Zero-valued readings are treated as absent; the cloud reports zero
// for capabilities the hardware lacks.
func stateFields(snap device.Snapshot) map[string]interface{} {
	fields := map[string]interface{}{
		"power_state": boolField(snap.Status == "on"),
	}

	d := snap.Details
	if d.Speed > 0 {
		fields["speed"] = d.Speed
	}
	if d.MistLevel > 0 {
		fields["mist_level"] = d.MistLevel
	}
	if d.WarmLevel > 0 {
		fields["warm_level"] = d.WarmLevel
	}
	if d.Humidity > 0 {
		fields["humidity"] = d.Humidity
	}
	if d.TargetHumidity > 0 {
		fields["target_humidity"] = d.TargetHumidity
	}
	if d.AirQuality > 0 {
		fields["air_quality"] = d.AirQuality
	}
	if d.FilterLife > 0 {
		fields["filter_life"] = d.FilterLife
	}
	if d.Brightness > 0 {
		fields["brightness"] = d.Brightness
	}
	if d.ColorTemp > 0 {
		fields["color_temp"] = d.ColorTemp
	}
	if d.Power > 0 {
		fields["power_watts"] = d.Power
	}
	if d.Voltage > 0 {
		fields["voltage"] = d.Voltage
	}
	if d.Energy > 0 {
		fields["energy_kwh"] = d.Energy
	}
	if d.WaterLacks {
		fields["water_lacks"] = 1
	}

	return fields
}

func boolField(b bool) int {
	if b {
		return 1
	}
	return 0
}
