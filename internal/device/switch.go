package device

import (
	"context"
	"encoding/json"
	"fmt"
)

// fetchSwitch polls a wall switch or dimmer.
func (d *Device) fetchSwitch(ctx context.Context) (string, Details, error) {
	raw, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/devicedetail", "devicedetail", map[string]any{
		"uuid": d.record.UUID,
	})
	if err != nil {
		return "", Details{}, err
	}

	var resp struct {
		DeviceStatus string `json:"deviceStatus"`
		Brightness   int    `json:"brightness"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", Details{}, fmt.Errorf("device: decoding switch detail: %w", err)
	}

	return resp.DeviceStatus, Details{Brightness: resp.Brightness}, nil
}
