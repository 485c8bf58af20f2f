package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrFeatureNotSupported) {
//	    // hardware or current mode cannot perform the operation
//	}
var (
	// ErrUnrecognizedDevice is returned when a device-type string matches
	// no registry entry. An expected condition for unknown hardware; the
	// caller skips the device, it is never fatal to a fleet operation.
	ErrUnrecognizedDevice = errors.New("device: unrecognised device type")

	// ErrInvalidArgument is returned when a command argument is outside
	// the variant's fixed range or enum. Rejected before any network call.
	ErrInvalidArgument = errors.New("device: invalid argument")

	// ErrFeatureNotSupported is returned when the capability matrix vetoes
	// an operation, either because the hardware lacks the feature or the
	// current operating mode disallows it. Also used for the normalised
	// form of the cloud's unsupported-in-mode rejection code.
	ErrFeatureNotSupported = errors.New("device: feature not supported")
)
