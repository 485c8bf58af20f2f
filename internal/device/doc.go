// Package device implements the device-model resolution and
// capability-negotiation engine for the VeSync fleet.
//
// The cloud identifies hardware only by an opaque device-type string
// ("Core300S", "LUH-A601S-WUSB", "ESW15-USA"). The registry maps that
// string to a behavioural variant: first by exact match over the
// per-category tables, then by ordered prefix rules, then by the
// base-type before the first hyphen within the matched category. The
// variant is a data descriptor (category, mode enum, feature set,
// argument ranges, wire protocol), not a subclass; all gating logic is
// centralised here instead of re-implemented per model family.
//
// Every command on a Device validates its argument and consults the
// capability matrix, including the mode-aware restrictions, before any
// transport call. A locally vetoed command costs nothing against the
// cloud's rate limit and fails with ErrFeatureNotSupported or
// ErrInvalidArgument; remote rejection codes are normalised into the
// same taxonomy so callers see one failure vocabulary.
package device
