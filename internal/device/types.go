package device

import (
	"context"
	"encoding/json"
)

// Category groups device families by hardware kind. Iteration order of
// categories is fixed wherever the registry scans them.
type Category string

const (
	CategoryFans     Category = "fans"
	CategoryOutlets  Category = "outlets"
	CategoryBulbs    Category = "bulbs"
	CategorySwitches Category = "switches"
)

// Mode is an operating mode within a variant's fixed enum.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
	ModeSleep  Mode = "sleep"
	ModePet    Mode = "pet"
)

// Feature names a capability a variant may or may not carry. Features
// gate commands and telemetry interpretation via the capability matrix.
type Feature string

const (
	FeatureFanSpeed       Feature = "fan_speed"
	FeatureAirQuality     Feature = "air_quality"
	FeatureResetFilter    Feature = "reset_filter"
	FeatureMist           Feature = "mist"
	FeatureWarmMist       Feature = "warm"
	FeatureHumidityTarget Feature = "humidity"
	FeatureNightLight     Feature = "night_light"
	FeatureLightDetection Feature = "light_detection"
	FeatureAutoPreference Feature = "auto_preference"
	FeatureDisplay        Feature = "display"
	FeatureChildLock      Feature = "child_lock"
	FeatureTimer          Feature = "timer"
	FeatureEnergyMonitor  Feature = "energy_monitor"
	FeatureDimmable       Feature = "dimmable"
	FeatureColorTemp      Feature = "color_temp"
	FeatureColor          Feature = "color"
)

// Record is one raw device entry from the cloud's device list. The
// shape is cloud-defined; fields beyond identity are advisory.
type Record struct {
	DeviceType       string `json:"deviceType"`
	DeviceName       string `json:"deviceName"`
	DeviceStatus     string `json:"deviceStatus"`
	CID              string `json:"cid"`
	MacID            string `json:"macID"`
	UUID             string `json:"uuid"`
	ConfigModule     string `json:"configModule"`
	ConnectionStatus string `json:"connectionStatus"`
	CurrentFirmware  string `json:"currentFirmVersion"`
}

// StableID returns the record's stable identifier: cid, else macID,
// else uuid. Empty means the record cannot be instantiated and must be
// dropped with a warning.
func (r *Record) StableID() string {
	switch {
	case r.CID != "":
		return r.CID
	case r.MacID != "":
		return r.MacID
	default:
		return r.UUID
	}
}

// Timer is a pending auto-off timer reported by a device.
type Timer struct {
	ID        int `json:"id"`
	Duration  int `json:"duration"`
	Remaining int `json:"remaining"`
}

// Details is the last-polled telemetry snapshot of one device. Which
// fields are meaningful depends on the variant's feature set; a field
// for an absent feature stays at its zero value. Updates replace the
// whole struct, never individual fields.
type Details struct {
	Speed          int     `json:"speed,omitempty"`
	MistLevel      int     `json:"mist_level,omitempty"`
	WarmLevel      int     `json:"warm_level,omitempty"`
	Humidity       int     `json:"humidity,omitempty"`
	TargetHumidity int     `json:"target_humidity,omitempty"`
	AirQuality     int     `json:"air_quality,omitempty"`
	FilterLife     int     `json:"filter_life,omitempty"`
	Brightness     int     `json:"brightness,omitempty"`
	ColorTemp      int     `json:"color_temp,omitempty"`
	Color          string  `json:"color,omitempty"`
	Display        bool    `json:"display"`
	ChildLock      bool    `json:"child_lock"`
	NightLight     string  `json:"night_light,omitempty"`
	LightDetection bool    `json:"light_detection,omitempty"`
	WaterLacks     bool    `json:"water_lacks,omitempty"`
	Power          float64 `json:"power,omitempty"`
	Voltage        float64 `json:"voltage,omitempty"`
	Energy         float64 `json:"energy,omitempty"`
	Timer          *Timer  `json:"timer,omitempty"`
}

// API is the cloud capability a Device depends on. The fleet manager
// provides the production implementation bound to its session; tests
// substitute a fake to observe or suppress transport calls.
type API interface {
	// BypassV2 issues a second-generation device command and returns the
	// innermost result payload.
	BypassV2(ctx context.Context, cid, configModule, method string, data map[string]any) (json.RawMessage, error)

	// DeviceCall issues a first-generation per-category request against
	// the given path.
	DeviceCall(ctx context.Context, path, method string, extra map[string]any) (json.RawMessage, error)
}
