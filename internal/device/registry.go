package device

import (
	"fmt"
	"strings"
)

// Resolve maps a raw device-type string to its behavioural variant.
//
// Resolution is a pure lookup over the static tables, deterministic by
// construction:
//
//  1. Exact match across category tables in fixed order (fans, outlets,
//     bulbs, switches). First match wins.
//  2. Otherwise the ordered prefix rules select a category.
//  3. Within that category, each entry's base type (its key up to the
//     first hyphen) is tested as a prefix of deviceType. First match
//     wins.
//
// A miss returns ErrUnrecognizedDevice. Unknown hardware in an account
// is a normal operating condition; the caller logs and skips.
func Resolve(deviceType string) (*Variant, error) {
	if deviceType == "" {
		return nil, fmt.Errorf("%w: empty device type", ErrUnrecognizedDevice)
	}

	for _, cat := range categoryOrder {
		for _, e := range cat.table {
			if e.key == deviceType {
				return e.variant, nil
			}
		}
	}

	for _, rule := range prefixRules {
		if !strings.HasPrefix(deviceType, rule.prefix) {
			continue
		}
		if v := resolveBaseType(rule.category, deviceType); v != nil {
			return v, nil
		}
		// Prefix selected a category but no base type matched.
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedDevice, deviceType)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnrecognizedDevice, deviceType)
}

// resolveBaseType scans one category table for an entry whose base type
// prefixes deviceType.
func resolveBaseType(category Category, deviceType string) *Variant {
	for _, cat := range categoryOrder {
		if cat.category != category {
			continue
		}
		for _, e := range cat.table {
			base := e.key
			if i := strings.Index(base, "-"); i > 0 {
				base = base[:i]
			}
			if strings.HasPrefix(deviceType, base) {
				return e.variant
			}
		}
	}
	return nil
}
