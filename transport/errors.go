package transport

import (
	"errors"
	"fmt"
)

// ErrInvalidResponse is returned when the server's reply cannot be
// interpreted: an undecodable 2xx body or a response outside the HTTP
// status classes the protocol defines. Raw parsing errors never leak.
var ErrInvalidResponse = errors.New("invalid response from attribution server")

// Fixed messages substituted for 401 and 429 regardless of what the server
// sent, so host applications get a stable contract to branch on.
const (
	msgInvalidAPIKey = "Invalid client API key"
	msgRateLimited   = "Rate limit exceeded"
)

// ServerError is an HTTP-level failure from the attribution server.
// Message may be empty when the error body was unparseable.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("attribution server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("attribution server error: status %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure: connectivity, timeout, DNS, TLS.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// isRetryable reports whether an outcome is worth retrying: server-side 5xx
// failures and transport-level failures. Everything else fails fast.
func isRetryable(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.StatusCode >= 500 && serverErr.StatusCode <= 599
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
