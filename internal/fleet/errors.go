package fleet

import "errors"

// Domain errors for the fleet package.
var (
	// ErrNotLoggedIn is returned when a session-dependent operation runs
	// before Login has succeeded.
	ErrNotLoggedIn = errors.New("fleet: not logged in")

	// ErrDeviceNotFound is returned when a device id is not in the
	// current collection.
	ErrDeviceNotFound = errors.New("fleet: device not found")

	// ErrStaleData is returned by WaitForState when a device's reported
	// state never converged on the expected value within the attempt
	// budget. Distinct from a transport failure: every poll succeeded,
	// the cloud just kept reporting the pre-change state.
	ErrStaleData = errors.New("fleet: state did not converge")
)
