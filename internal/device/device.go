package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/vesync-core/internal/cloud"
)

// Device is the stateful representation of one physical unit. Identity
// (stable id, device type, variant) is fixed at construction; status,
// mode and telemetry mirror the last successful poll or acknowledged
// command.
//
// A Device carries no lock. The fleet manager serialises all access:
// polls run sequentially against a single shared cloud rate limit, and
// command handlers go through the manager's device lookup.
type Device struct {
	record  Record
	variant *Variant
	api     API

	// Status is "on" or "off" as last reported or acknowledged.
	Status string

	// Mode is the current operating mode; empty for categories without
	// a mode concept.
	Mode Mode

	// Details is the last-polled telemetry snapshot, replaced whole.
	Details Details
}

// New constructs a Device for a resolved variant. The record must have
// a stable id; callers resolve the variant via Resolve first.
func New(record Record, variant *Variant, api API) *Device {
	return &Device{
		record:  record,
		variant: variant,
		api:     api,
		Status:  record.DeviceStatus,
	}
}

// ID returns the stable identifier (cid, else macID, else uuid).
func (d *Device) ID() string { return d.record.StableID() }

// Name returns the user-assigned device name.
func (d *Device) Name() string { return d.record.DeviceName }

// DeviceType returns the raw cloud device-type string.
func (d *Device) DeviceType() string { return d.record.DeviceType }

// Variant returns the behaviour descriptor.
func (d *Device) Variant() *Variant { return d.variant }

// Category returns the variant's category.
func (d *Device) Category() Category { return d.variant.Category }

// Snapshot is the displayable state of a device, derived entirely from
// identity plus the last poll. Deriving it twice from identical polls
// yields identical values.
type Snapshot struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	DeviceType string   `json:"device_type"`
	Class      Class    `json:"class"`
	Category   Category `json:"category"`
	Status     string   `json:"status"`
	Mode       Mode     `json:"mode,omitempty"`
	Details    Details  `json:"details"`
}

// Snapshot returns the device's displayable state.
func (d *Device) Snapshot() Snapshot {
	return Snapshot{
		ID:         d.ID(),
		Name:       d.Name(),
		DeviceType: d.DeviceType(),
		Class:      d.variant.Class,
		Category:   d.variant.Category,
		Status:     d.Status,
		Mode:       d.Mode,
		Details:    d.Details,
	}
}

// gate verifies the feature exists on the hardware and is usable in the
// current mode. Called before any transport work so a veto costs no
// rate-limited API call.
func (d *Device) gate(f Feature) error {
	if !HasFeature(d.variant, f) {
		return fmt.Errorf("%w: %s has no %s", ErrFeatureNotSupported, d.variant.Class, f)
	}
	if !SupportedInMode(d.variant, d.Mode, f) {
		return fmt.Errorf("%w: %s not usable in %s mode", ErrFeatureNotSupported, f, d.Mode)
	}
	return nil
}

// normalize folds remote rejection codes into the local taxonomy so
// callers see one failure vocabulary regardless of where the rejection
// originated.
func normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, cloud.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrFeatureNotSupported, err)
	}
	return err
}

// Update polls current telemetry and applies it atomically: parsing
// happens into a scratch snapshot, and only a fully parsed response
// replaces Status, Mode and Details. A malformed or failed poll leaves
// the previous snapshot intact.
func (d *Device) Update(ctx context.Context) error {
	var (
		status  string
		mode    Mode
		details Details
		err     error
	)

	switch d.variant.Class {
	case ClassAirPurifierLegacy:
		status, mode, details, err = d.fetchLegacyPurifier(ctx)
	case ClassAirPurifierBypass:
		status, mode, details, err = d.fetchBypassPurifier(ctx)
	case ClassAirPurifierVital:
		status, mode, details, err = d.fetchVitalPurifier(ctx)
	case ClassHumidifierClassic, ClassHumidifierTower, ClassHumidifierWarm, ClassHumidifierOasis:
		status, mode, details, err = d.fetchHumidifier(ctx)
	case ClassOutletRound7A, ClassOutletRound10A, ClassOutletRound15A, ClassOutletOutdoor:
		status, details, err = d.fetchOutlet(ctx)
	case ClassSwitchWall, ClassSwitchDimmer:
		status, details, err = d.fetchSwitch(ctx)
	case ClassBulbDimmable:
		status, details, err = d.fetchLegacyBulb(ctx)
	case ClassBulbTunable, ClassBulbMulticolor, ClassBulbValceno:
		status, details, err = d.fetchBypassBulb(ctx)
	default:
		return fmt.Errorf("%w: no poll for class %s", ErrUnrecognizedDevice, d.variant.Class)
	}
	if err != nil {
		return normalize(err)
	}

	d.Status = status
	d.Mode = mode
	d.Details = details
	return nil
}

// TurnOn powers the device on. Idempotent; success means the cloud
// accepted the command, not that a subsequent poll already reflects it.
func (d *Device) TurnOn(ctx context.Context) error {
	return d.setPower(ctx, true)
}

// TurnOff powers the device off.
func (d *Device) TurnOff(ctx context.Context) error {
	return d.setPower(ctx, false)
}

func (d *Device) setPower(ctx context.Context, on bool) error {
	var err error
	switch d.variant.Protocol {
	case ProtocolBypassV2:
		err = d.bypassSetSwitch(ctx, on)
	default:
		err = d.legacySetStatus(ctx, on)
	}
	if err != nil {
		return normalize(err)
	}

	if on {
		d.Status = "on"
	} else {
		d.Status = "off"
	}
	return nil
}

// SetMode switches the operating mode. Modes outside the variant's
// fixed enum are rejected locally with ErrInvalidArgument.
func (d *Device) SetMode(ctx context.Context, mode Mode) error {
	if !d.variant.SupportsMode(mode) {
		return fmt.Errorf("%w: mode %q not in %v", ErrInvalidArgument, mode, d.variant.Modes)
	}

	var err error
	switch d.variant.Class {
	case ClassAirPurifierLegacy:
		err = d.legacyPurifierSetMode(ctx, mode)
	case ClassAirPurifierVital:
		err = d.vitalSetMode(ctx, mode)
	case ClassAirPurifierBypass:
		err = d.bypassCommand(ctx, "setPurifierMode", map[string]any{"mode": string(mode)})
	default:
		err = d.bypassCommand(ctx, "setHumidityMode", map[string]any{"mode": string(mode)})
	}
	if err != nil {
		return normalize(err)
	}

	d.Mode = mode
	return nil
}

// ChangeFanSpeed sets the purifier fan level. Gated on FeatureFanSpeed,
// which is mode-restricted to manual on all purifier variants.
func (d *Device) ChangeFanSpeed(ctx context.Context, level int) error {
	if err := d.gate(FeatureFanSpeed); err != nil {
		return err
	}
	if !containsInt(d.variant.SpeedLevels, level) {
		return fmt.Errorf("%w: speed %d not in %v", ErrInvalidArgument, level, d.variant.SpeedLevels)
	}

	var err error
	switch d.variant.Class {
	case ClassAirPurifierLegacy:
		err = d.legacyPurifierSetSpeed(ctx, level)
	case ClassAirPurifierVital:
		err = d.bypassCommand(ctx, "setLevel", map[string]any{
			"levelIdx":         0,
			"manualSpeedLevel": level,
			"levelType":        "wind",
		})
	default:
		err = d.bypassCommand(ctx, "setLevel", map[string]any{
			"id":    0,
			"level": level,
			"type":  "wind",
		})
	}
	if err != nil {
		return normalize(err)
	}

	d.Details.Speed = level
	return nil
}

// SetDisplay toggles the on-device display.
func (d *Device) SetDisplay(ctx context.Context, on bool) error {
	if err := d.gate(FeatureDisplay); err != nil {
		return err
	}

	var err error
	switch d.variant.Class {
	case ClassAirPurifierLegacy:
		err = d.legacyPurifierSetDisplay(ctx, on)
	case ClassAirPurifierVital:
		err = d.bypassCommand(ctx, "setDisplay", map[string]any{"screenSwitch": boolToInt(on)})
	default:
		err = d.bypassCommand(ctx, "setDisplay", map[string]any{"state": on})
	}
	if err != nil {
		return normalize(err)
	}

	d.Details.Display = on
	return nil
}

// SetChildLock toggles the physical control lock.
func (d *Device) SetChildLock(ctx context.Context, on bool) error {
	if err := d.gate(FeatureChildLock); err != nil {
		return err
	}

	var err error
	if d.variant.Class == ClassAirPurifierVital {
		err = d.bypassCommand(ctx, "setChildLock", map[string]any{"childLockSwitch": boolToInt(on)})
	} else {
		err = d.bypassCommand(ctx, "setChildLock", map[string]any{"child_lock": on})
	}
	if err != nil {
		return normalize(err)
	}

	d.Details.ChildLock = on
	return nil
}

// SetTimer schedules an auto-off timer. Hours must be within the
// variant's bound.
func (d *Device) SetTimer(ctx context.Context, hours int) error {
	if err := d.gate(FeatureTimer); err != nil {
		return err
	}
	if hours < 1 || hours > d.variant.TimerMaxHours {
		return fmt.Errorf("%w: timer %dh outside 1-%dh", ErrInvalidArgument, hours, d.variant.TimerMaxHours)
	}

	seconds := hours * 3600
	err := d.bypassCommand(ctx, "addTimer", map[string]any{
		"total":  seconds,
		"action": "off",
	})
	if err != nil {
		return normalize(err)
	}

	d.Details.Timer = &Timer{Duration: seconds, Remaining: seconds}
	return nil
}

// ClearTimer cancels the pending timer, if any.
func (d *Device) ClearTimer(ctx context.Context) error {
	if err := d.gate(FeatureTimer); err != nil {
		return err
	}

	id := 1
	if d.Details.Timer != nil && d.Details.Timer.ID != 0 {
		id = d.Details.Timer.ID
	}
	if err := d.bypassCommand(ctx, "delTimer", map[string]any{"id": id}); err != nil {
		return normalize(err)
	}

	d.Details.Timer = nil
	return nil
}

// ResetFilter clears the filter-life counter after a filter change.
func (d *Device) ResetFilter(ctx context.Context) error {
	if err := d.gate(FeatureResetFilter); err != nil {
		return err
	}
	if err := d.bypassCommand(ctx, "resetFilter", map[string]any{}); err != nil {
		return normalize(err)
	}
	d.Details.FilterLife = 100
	return nil
}

// bypassCommand issues one bypassV2 call for this device.
func (d *Device) bypassCommand(ctx context.Context, method string, data map[string]any) error {
	_, err := d.api.BypassV2(ctx, d.ID(), d.record.ConfigModule, method, data)
	return err
}

// bypassSetSwitch is the shared power toggle for bypassV2 devices.
func (d *Device) bypassSetSwitch(ctx context.Context, on bool) error {
	if d.variant.Class == ClassAirPurifierVital {
		return d.bypassCommand(ctx, "setSwitch", map[string]any{
			"powerSwitch": boolToInt(on),
			"switchIdx":   0,
		})
	}
	return d.bypassCommand(ctx, "setSwitch", map[string]any{
		"enabled": on,
		"id":      0,
	})
}

// legacySetStatus is the shared power toggle for first-generation
// devices.
func (d *Device) legacySetStatus(ctx context.Context, on bool) error {
	status := "off"
	if on {
		status = "on"
	}
	_, err := d.api.DeviceCall(ctx, d.variant.LegacyPath+"/devicestatus", "devicestatus", map[string]any{
		"uuid":   d.record.UUID,
		"status": status,
	})
	return err
}

func containsInt(levels []int, level int) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
