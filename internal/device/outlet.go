package device

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// looseFloat tolerates the legacy outlet firmware's habit of reporting
// numeric telemetry as either a JSON number or a quoted string.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("device: parsing %q as number: %w", s, err)
	}
	*f = looseFloat(v)
	return nil
}

// fetchOutlet polls a first-generation outlet, including its energy
// monitor readings.
func (d *Device) fetchOutlet(ctx context.Context) (string, Details, error) {
	raw, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/devicedetail", "devicedetail", map[string]any{
		"uuid": d.record.UUID,
	})
	if err != nil {
		return "", Details{}, err
	}

	var resp struct {
		DeviceStatus    string     `json:"deviceStatus"`
		Power           looseFloat `json:"power"`
		Voltage         looseFloat `json:"voltage"`
		Energy          looseFloat `json:"energy"`
		NightLightState string     `json:"nightLightStatus"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Details{}, fmt.Errorf("device: decoding outlet detail: %w", err)
	}

	details := Details{
		Power:      float64(resp.Power),
		Voltage:    float64(resp.Voltage),
		Energy:     float64(resp.Energy),
		NightLight: resp.NightLightState,
	}
	return resp.DeviceStatus, details, nil
}
