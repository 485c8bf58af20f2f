package auth

import "errors"

// Domain errors for the auth package.
var (
	// ErrAuthFailed is returned when every candidate login flow rejected
	// the credentials. Terminal for the session-dependent operation; the
	// caller must not retry without new credentials.
	ErrAuthFailed = errors.New("auth: authentication failed")

	// ErrMissingCredentials is returned when Login is called without a
	// username or password configured.
	ErrMissingCredentials = errors.New("auth: username and password required")
)
