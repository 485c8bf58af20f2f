package device

import (
	"context"
	"encoding/json"
	"fmt"
)

// fetchHumidifier polls any bypassV2 humidifier family. The families
// share one status method; warm-mist and night-light fields are simply
// absent on hardware without them.
func (d *Device) fetchHumidifier(ctx context.Context) (string, Mode, Details, error) {
	raw, err := d.api.BypassV2(ctx, d.ID(), d.record.ConfigModule, "getHumidifierStatus", map[string]any{})
	if err != nil {
		return "", "", Details{}, err
	}

	var resp struct {
		Enabled          bool   `json:"enabled"`
		Mode             string `json:"mode"`
		Humidity         int    `json:"humidity"`
		MistVirtualLevel int    `json:"mist_virtual_level"`
		MistLevel        int    `json:"mist_level"`
		WarmLevel        int    `json:"warm_level"`
		WaterLacks       bool   `json:"water_lacks"`
		NightLightBright int    `json:"night_light_brightness"`
		Configuration    struct {
			AutoTargetHumidity int  `json:"auto_target_humidity"`
			Display            bool `json:"display"`
		} `json:"configuration"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", "", Details{}, fmt.Errorf("device: decoding humidifier status: %w", err)
	}

	status := "off"
	if resp.Enabled {
		status = "on"
	}

	mist := resp.MistVirtualLevel
	if mist == 0 {
		mist = resp.MistLevel
	}
	nightLight := ""
	if HasFeature(d.variant, FeatureNightLight) {
		nightLight = nightLightName(resp.NightLightBright)
	}

	details := Details{
		MistLevel:      mist,
		WarmLevel:      resp.WarmLevel,
		Humidity:       resp.Humidity,
		TargetHumidity: resp.Configuration.AutoTargetHumidity,
		Display:        resp.Configuration.Display,
		WaterLacks:     resp.WaterLacks,
		NightLight:     nightLight,
	}
	return status, Mode(resp.Mode), details, nil
}

// nightLightName folds a brightness value into the three-state name
// the app displays.
func nightLightName(brightness int) string {
	switch {
	case brightness == 0:
		return "off"
	case brightness < 100:
		return "dim"
	default:
		return "on"
	}
}

// SetMistLevel sets the mist output level. Validated against the
// variant's discrete level list before any transport call.
func (d *Device) SetMistLevel(ctx context.Context, level int) error {
	if err := d.gate(FeatureMist); err != nil {
		return err
	}
	if !containsInt(d.variant.MistLevels, level) {
		return fmt.Errorf("%w: mist level %d not in %v", ErrInvalidArgument, level, d.variant.MistLevels)
	}

	err := d.bypassCommand(ctx, "setVirtualLevel", map[string]any{
		"id":    0,
		"level": level,
		"type":  "mist",
	})
	if err != nil {
		return normalize(err)
	}

	d.Details.MistLevel = level
	return nil
}

// SetWarmLevel sets the warm-mist level on hardware with a heating
// plate. Level 0 disables warm mist.
func (d *Device) SetWarmLevel(ctx context.Context, level int) error {
	if err := d.gate(FeatureWarmMist); err != nil {
		return err
	}
	if !containsInt(d.variant.WarmLevels, level) {
		return fmt.Errorf("%w: warm level %d not in %v", ErrInvalidArgument, level, d.variant.WarmLevels)
	}

	err := d.bypassCommand(ctx, "setLevel", map[string]any{
		"id":    0,
		"level": level,
		"type":  "warm",
	})
	if err != nil {
		return normalize(err)
	}

	d.Details.WarmLevel = level
	return nil
}

// SetHumidity sets the auto-mode target humidity percentage. On the
// warm and oasis families the target is only settable in auto mode;
// the gate enforces that locally.
func (d *Device) SetHumidity(ctx context.Context, pct int) error {
	if err := d.gate(FeatureHumidityTarget); err != nil {
		return err
	}
	lo, hi := d.variant.HumidityRange[0], d.variant.HumidityRange[1]
	if pct < lo || pct > hi {
		return fmt.Errorf("%w: humidity %d%% outside %d-%d%%", ErrInvalidArgument, pct, lo, hi)
	}

	err := d.bypassCommand(ctx, "setTargetHumidity", map[string]any{
		"target_humidity": pct,
	})
	if err != nil {
		return normalize(err)
	}

	d.Details.TargetHumidity = pct
	return nil
}

// SetNightLightBrightness sets the night light, 0 (off) to 100.
func (d *Device) SetNightLightBrightness(ctx context.Context, brightness int) error {
	if err := d.gate(FeatureNightLight); err != nil {
		return err
	}
	if brightness < 0 || brightness > 100 {
		return fmt.Errorf("%w: night light brightness %d outside 0-100", ErrInvalidArgument, brightness)
	}

	var err error
	if d.variant.Protocol == ProtocolLegacy {
		// The 15A outlet's night light only knows on/off.
		mode := "off"
		if brightness > 0 {
			mode = "on"
		}
		_, err = d.api.DeviceCall(ctx, d.variant.LegacyPath+"/nightlightstatus", "nightlightstatus", map[string]any{
			"uuid": d.record.UUID,
			"mode": mode,
		})
	} else {
		err = d.bypassCommand(ctx, "setNightLightBrightness", map[string]any{
			"night_light_brightness": brightness,
		})
	}
	if err != nil {
		return normalize(err)
	}

	d.Details.NightLight = nightLightName(brightness)
	return nil
}
