package cloud

import (
	"errors"
	"fmt"
)

// Domain errors for the cloud package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, cloud.ErrPendingConfirm) {
//	    // command likely applied but unconfirmed; re-poll before trusting state
//	}
var (
	// ErrTransport is returned when the HTTP layer itself fails
	// (connection refused, timeout, malformed response body).
	ErrTransport = errors.New("cloud: transport failure")

	// ErrAuthRejected is returned when the cloud rejects the supplied
	// credentials or session token.
	ErrAuthRejected = errors.New("cloud: authentication rejected")

	// ErrCrossRegion is returned when the account belongs to a different
	// region/country than the one the request was issued against.
	ErrCrossRegion = errors.New("cloud: account registered in another region")

	// ErrRateLimited is returned when the cloud throttles the account.
	ErrRateLimited = errors.New("cloud: rate limited")

	// ErrDeviceOffline is returned when the target device is not
	// reachable from the cloud.
	ErrDeviceOffline = errors.New("cloud: device offline")

	// ErrUnsupported is returned when the cloud rejects an operation as
	// unsupported for the device or its current operating mode.
	ErrUnsupported = errors.New("cloud: operation not supported")

	// ErrPendingConfirm is returned for the vendor's "general API error"
	// code 11000000, which in practice means the command was probably
	// applied but the cloud could not confirm it. Callers must re-poll
	// before trusting device state; this is never mapped to success.
	ErrPendingConfirm = errors.New("cloud: command unconfirmed by vendor API")
)

// APIError carries a vendor error code that has no dedicated sentinel.
// It wraps ErrTransport-independent semantic failures; errors.Is matches
// against the embedded sentinel via Unwrap.
type APIError struct {
	Code int64
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloud: api error %d: %s", e.Code, e.Msg)
}

// Vendor response codes observed from the VeSync API. The values are
// data, not design; unknown non-zero codes become *APIError.
const (
	codeSuccess         int64 = 0
	codePendingConfirm  int64 = 11000000
	codeCrossRegion     int64 = -11260022
	codeWrongPassword   int64 = -11201022
	codeAccountNotExist int64 = -11202022
	codeTokenExpired    int64 = -11012022
	codeRateLimited     int64 = -11003000
	codeDeviceOffline   int64 = -11300027
	codeModeUnsupported int64 = -11260007
)

// codeToError maps a vendor response code to the package error taxonomy.
// Code 0 maps to nil.
func codeToError(code int64, msg string) error {
	switch code {
	case codeSuccess:
		return nil
	case codePendingConfirm:
		return ErrPendingConfirm
	case codeCrossRegion:
		return ErrCrossRegion
	case codeWrongPassword, codeAccountNotExist, codeTokenExpired:
		return fmt.Errorf("%w: code %d: %s", ErrAuthRejected, code, msg)
	case codeRateLimited:
		return ErrRateLimited
	case codeDeviceOffline:
		return ErrDeviceOffline
	case codeModeUnsupported:
		return fmt.Errorf("%w: code %d: %s", ErrUnsupported, code, msg)
	default:
		return &APIError{Code: code, Msg: msg}
	}
}
