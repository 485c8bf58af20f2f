package device

import (
	"context"
	"encoding/json"
	"fmt"
)

// airQualityIndex maps the 131-series textual air quality report onto
// the same 1-4 index the bypass purifiers use.
var airQualityIndex = map[string]int{
	"excellent": 1,
	"good":      2,
	"moderate":  3,
	"bad":       4,
}

// fetchBypassPurifier polls a Core-series purifier.
func (d *Device) fetchBypassPurifier(ctx context.Context) (string, Mode, Details, error) {
	raw, err := d.api.BypassV2(ctx, d.ID(), d.record.ConfigModule, "getPurifierStatus", map[string]any{})
	if err != nil {
		return "", "", Details{}, err
	}

	var resp struct {
		Enabled         bool   `json:"enabled"`
		Mode            string `json:"mode"`
		Level           int    `json:"level"`
		AirQuality      int    `json:"air_quality"`
		AirQualityValue int    `json:"air_quality_value"`
		FilterLife      int    `json:"filter_life"`
		Display         bool   `json:"display"`
		ChildLock       bool   `json:"child_lock"`
		NightLight      string `json:"night_light"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", Details{}, fmt.Errorf("device: decoding purifier status: %w", err)
	}

	status := "off"
	if resp.Enabled {
		status = "on"
	}
	details := Details{
		Speed:      resp.Level,
		AirQuality: resp.AirQuality,
		FilterLife: resp.FilterLife,
		Display:    resp.Display,
		ChildLock:  resp.ChildLock,
		NightLight: resp.NightLight,
	}
	return status, Mode(resp.Mode), details, nil
}

// fetchVitalPurifier polls a Vital-series purifier. The Vital firmware
// renamed every field relative to the Core series.
func (d *Device) fetchVitalPurifier(ctx context.Context) (string, Mode, Details, error) {
	raw, err := d.api.BypassV2(ctx, d.ID(), d.record.ConfigModule, "getAirPurifierStatus", map[string]any{})
	if err != nil {
		return "", "", Details{}, err
	}

	var resp struct {
		PowerSwitch          int    `json:"powerSwitch"`
		WorkMode             string `json:"workMode"`
		FanSpeedLevel        int    `json:"fanSpeedLevel"`
		AQLevel              int    `json:"AQLevel"`
		ScreenSwitch         int    `json:"screenSwitch"`
		ChildLockSwitch      int    `json:"childLockSwitch"`
		LightDetectionSwitch int    `json:"lightDetectionSwitch"`
		FilterLifePercent    int    `json:"filterLifePercent"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", Details{}, fmt.Errorf("device: decoding vital purifier status: %w", err)
	}

	status := "off"
	if resp.PowerSwitch == 1 {
		status = "on"
	}
	details := Details{
		Speed:          resp.FanSpeedLevel,
		AirQuality:     resp.AQLevel,
		FilterLife:     resp.FilterLifePercent,
		Display:        resp.ScreenSwitch == 1,
		ChildLock:      resp.ChildLockSwitch == 1,
		LightDetection: resp.LightDetectionSwitch == 1,
	}
	return status, Mode(resp.WorkMode), details, nil
}

// fetchLegacyPurifier polls a 131-series purifier over the
// first-generation path tree.
func (d *Device) fetchLegacyPurifier(ctx context.Context) (string, Mode, Details, error) {
	raw, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/deviceDetail", "deviceDetail", map[string]any{
		"uuid": d.record.UUID,
	})
	if err != nil {
		return "", "", Details{}, err
	}

	var resp struct {
		DeviceStatus string `json:"deviceStatus"`
		Mode         string `json:"mode"`
		Level        int    `json:"level"`
		AirQuality   string `json:"airQuality"`
		ScreenStatus string `json:"screenStatus"`
		FilterLife   struct {
			Percent int `json:"percent"`
		} `json:"filterLife"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", Details{}, fmt.Errorf("device: decoding 131 purifier detail: %w", err)
	}

	details := Details{
		Speed:      resp.Level,
		AirQuality: airQualityIndex[resp.AirQuality],
		FilterLife: resp.FilterLife.Percent,
		Display:    resp.ScreenStatus == "on",
	}
	return resp.DeviceStatus, Mode(resp.Mode), details, nil
}

// legacyPurifierSetMode switches the 131-series operating mode.
func (d *Device) legacyPurifierSetMode(ctx context.Context, mode Mode) error {
	_, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/updateMode", "updateMode", map[string]any{
		"uuid": d.record.UUID,
		"mode": string(mode),
	})
	return err
}

// legacyPurifierSetSpeed sets the 131-series fan level.
func (d *Device) legacyPurifierSetSpeed(ctx context.Context, level int) error {
	_, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/updateSpeed", "updateSpeed", map[string]any{
		"uuid":  d.record.UUID,
		"level": level,
	})
	return err
}

// legacyPurifierSetDisplay toggles the 131-series screen.
func (d *Device) legacyPurifierSetDisplay(ctx context.Context, on bool) error {
	status := "off"
	if on {
		status = "on"
	}
	_, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/updateScreen", "updateScreen", map[string]any{
		"uuid":   d.record.UUID,
		"status": status,
	})
	return err
}

// vitalSetMode switches a Vital-series operating mode.
func (d *Device) vitalSetMode(ctx context.Context, mode Mode) error {
	return d.bypassCommand(ctx, "setPurifierMode", map[string]any{"workMode": string(mode)})
}

// SetLightDetection toggles ambient-light sensing on Vital-series
// purifiers, which dims the unit automatically in a dark room.
func (d *Device) SetLightDetection(ctx context.Context, on bool) error {
	if err := d.gate(FeatureLightDetection); err != nil {
		return err
	}
	err := d.bypassCommand(ctx, "setLightDetection", map[string]any{
		"lightDetectionSwitch": boolToInt(on),
	})
	if err != nil {
		return normalize(err)
	}
	d.Details.LightDetection = on
	return nil
}

// autoPreferences are the Vital-series auto-mode tuning profiles.
var autoPreferences = map[string]struct{}{
	"default":   {},
	"efficient": {},
	"quiet":     {},
}

// SetAutoPreference selects the auto-mode tuning profile on
// Vital-series purifiers.
func (d *Device) SetAutoPreference(ctx context.Context, preference string) error {
	if err := d.gate(FeatureAutoPreference); err != nil {
		return err
	}
	if _, ok := autoPreferences[preference]; !ok {
		return fmt.Errorf("%w: auto preference %q", ErrInvalidArgument, preference)
	}
	err := d.bypassCommand(ctx, "setAutoPreference", map[string]any{
		"autoPreference": preference,
		"roomSize":       0,
	})
	return normalize(err)
}
