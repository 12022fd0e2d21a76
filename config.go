package deferlink

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/deferlink/deferlink-go/logging"
	"github.com/deferlink/deferlink-go/transport"
)

// DefaultBaseURL is the production attribution endpoint root.
const DefaultBaseURL = "https://api.deferlink.com/v1"

// RepeatCheckPolicy decides what a repeat deferred check returns when no
// cached match exists.
type RepeatCheckPolicy int

const (
	// RepeatCheckReturnNoMatch returns a synthetic matched=false result.
	RepeatCheckReturnNoMatch RepeatCheckPolicy = iota
	// RepeatCheckError surfaces ErrAlreadyChecked instead.
	RepeatCheckError
)

// KeyValidation selects how Configure validates the client key.
type KeyValidation int

const (
	// KeyValidationNonEmpty only requires a non-empty key.
	KeyValidationNonEmpty KeyValidation = iota
	// KeyValidationUUID requires syntactically valid UUID keys.
	KeyValidationUUID
)

// Config is the one-time client configuration.
type Config struct {
	// ClientKey authenticates against the attribution server. Required.
	ClientKey string

	// BaseURL overrides the attribution server root. Defaults to
	// DefaultBaseURL.
	BaseURL string

	// LogLevel controls the default logger built at Configure time. Ignored
	// when a logger was injected via WithLogger.
	LogLevel logging.Level

	// AllowSimulator permits deferred checks from emulated environments.
	AllowSimulator bool

	// MaxRetries is the transport retry budget after the initial attempt.
	// Zero means the default (3); set DisableRetries for zero retries.
	MaxRetries int

	// DisableRetries turns retries off entirely, for deterministic tests.
	DisableRetries bool

	// RetryBaseDelay seeds the exponential backoff. Defaults to 1s.
	RetryBaseDelay time.Duration

	// RepeatCheckPolicy defaults to RepeatCheckReturnNoMatch.
	RepeatCheckPolicy RepeatCheckPolicy

	// KeyValidation defaults to KeyValidationNonEmpty.
	KeyValidation KeyValidation
}

// validate checks the client key per the configured strategy and the base
// URL shape.
func (c *Config) validate() error {
	switch c.KeyValidation {
	case KeyValidationUUID:
		if _, err := uuid.Parse(c.ClientKey); err != nil {
			return &APIKeyError{Reason: "client key must be a valid UUID"}
		}
	default:
		if c.ClientKey == "" {
			return &APIKeyError{Reason: "client key must not be empty"}
		}
	}

	if c.BaseURL != "" {
		parsed, err := url.Parse(c.BaseURL)
		if err != nil || !parsed.IsAbs() {
			return fmt.Errorf("deferlink: base URL must be absolute: %q", c.BaseURL)
		}
	}
	return nil
}

// baseURL returns the effective server root.
func (c *Config) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

// maxRetries resolves the effective retry budget.
func (c *Config) maxRetries() int {
	if c.DisableRetries {
		return 0
	}
	if c.MaxRetries <= 0 {
		return transport.DefaultMaxRetries
	}
	return c.MaxRetries
}
