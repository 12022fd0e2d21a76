package deferlink

import (
	"errors"

	"github.com/deferlink/deferlink-go/transport"
)

// Sentinel errors for the attribution lifecycle.
var (
	// ErrNotConfigured is returned by check operations before Configure
	// has succeeded.
	ErrNotConfigured = errors.New("deferlink: client not configured")

	// ErrSimulator is returned when the process runs in an emulated
	// environment and the configuration does not allow simulator checks.
	ErrSimulator = errors.New("deferlink: running in simulator")

	// ErrAlreadyChecked is returned on repeat deferred checks with no
	// cached match when RepeatCheckError is configured.
	ErrAlreadyChecked = errors.New("deferlink: deferred deep link already checked")

	// ErrNoMatch is returned by Destination when a result carries no
	// usable link.
	ErrNoMatch = errors.New("deferlink: no attribution match")

	// ErrInvalidResponse re-exports the transport sentinel for responses
	// that cannot be interpreted.
	ErrInvalidResponse = transport.ErrInvalidResponse
)

// ServerError and NetworkError are the transport failure types, re-exported
// so host applications can branch on the full taxonomy from one package.
type (
	ServerError  = transport.ServerError
	NetworkError = transport.NetworkError
)

// APIKeyError reports a client key rejected by the configured validation
// strategy. Configure fails with it and the client stays unconfigured.
type APIKeyError struct {
	Reason string
}

func (e *APIKeyError) Error() string {
	return "deferlink: invalid API key: " + e.Reason
}
