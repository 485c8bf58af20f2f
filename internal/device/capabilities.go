package device

// HasFeature reports whether the variant's hardware carries the
// feature at all, independent of operating mode.
func HasFeature(v *Variant, f Feature) bool {
	for _, have := range v.Features {
		if have == f {
			return true
		}
	}
	return false
}

// SupportedInMode reports whether the feature is usable while the
// device is in the given mode. A feature absent from the hardware is
// never supported; a feature with no mode restriction is supported in
// every mode.
func SupportedInMode(v *Variant, mode Mode, f Feature) bool {
	if !HasFeature(v, f) {
		return false
	}
	allowed, restricted := v.ModeRestricted[f]
	if !restricted {
		return true
	}
	for _, m := range allowed {
		if m == mode {
			return true
		}
	}
	return false
}
