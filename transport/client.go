// Package transport performs the SDK's network operations against the
// attribution server and normalizes every outcome into the client error
// taxonomy, with sequential retry and exponential backoff for transient
// failures.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/deferlink/deferlink-go/fingerprint"
	"github.com/deferlink/deferlink-go/logging"
	"github.com/deferlink/deferlink-go/metrics"
	"github.com/deferlink/deferlink-go/model"
)

// Endpoints relative to the configured base URL.
const (
	EndpointMatch     = "fingerprints/match"
	EndpointAttribute = "links/attribute"
)

// Request header names.
const (
	HeaderRequestID = "X-Request-Id"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// NewHTTPClient creates an HTTP client configured for attribution requests.
// It has appropriate timeouts and does not follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Config configures a Client.
type Config struct {
	// BaseURL is the attribution server root, e.g. https://api.example.com/v1.
	BaseURL string
	// ClientKey is sent as a bearer token on every request.
	ClientKey string
	// UserAgent identifies the SDK, e.g. "DeferLink-Go/1.2.0".
	UserAgent string
	// MaxRetries is the retry budget after the initial attempt. Zero
	// disables retries.
	MaxRetries int
	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration
	// HTTPClient overrides the default tuned client.
	HTTPClient *http.Client
	// Logger and Metrics default to no-ops when nil.
	Logger  logging.Logger
	Metrics metrics.Recorder
}

// Client executes match and attribute calls against the server.
type Client struct {
	baseURL    string
	clientKey  string
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	logger     logging.Logger
	metrics    metrics.Recorder

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a transport client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientKey:  cfg.ClientKey,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		baseDelay:  baseDelay,
		httpClient: httpClient,
		logger:     logger,
		metrics:    recorder,
		sleep:      sleepContext,
	}
}

// matchRequest is the body of a fingerprint match call.
type matchRequest struct {
	Fingerprint fingerprint.DeviceFingerprint `json:"fingerprint"`
}

// attributeRequest is the body of a direct link attribution call.
type attributeRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// MatchFingerprint asks the server to correlate the fingerprint against
// recorded link clicks.
func (c *Client) MatchFingerprint(ctx context.Context, fp fingerprint.DeviceFingerprint) (*model.DeepLinkResult, error) {
	return c.post(ctx, EndpointMatch, matchRequest{Fingerprint: fp})
}

// AttributeLink resolves a directly received URL, no matching needed.
func (c *Client) AttributeLink(ctx context.Context, rawURL, platform string) (*model.DeepLinkResult, error) {
	return c.post(ctx, EndpointAttribute, attributeRequest{URL: rawURL, Platform: platform})
}

// post executes one logical call: encode, send, classify, retry transient
// failures sequentially until the budget runs out. The last observed error
// surfaces as-is.
func (c *Client) post(ctx context.Context, endpoint string, body any) (*model.DeepLinkResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.IncRetry(endpoint)
			delay := backoffDelay(c.baseDelay, attempt-1)
			c.logger.Log(logging.LevelDebug, "retrying request",
				"endpoint", endpoint, "attempt", attempt, "delay", delay.String())
			if err := c.sleep(ctx, delay); err != nil {
				return nil, &NetworkError{Err: err}
			}
		}

		c.metrics.IncRequestAttempt(endpoint)
		result, err := c.doOnce(ctx, endpoint, payload)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		c.logger.Log(logging.LevelWarning, "request failed",
			"endpoint", endpoint, "attempt", attempt, "error", err.Error())
	}
	return nil, lastErr
}

// doOnce performs a single request/response exchange and classifies the
// outcome.
func (c *Client) doOnce(ctx context.Context, endpoint string, payload []byte) (*model.DeepLinkResult, error) {
	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	requestID := ulid.Make().String()
	req.Header.Set("Authorization", "Bearer "+c.clientKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	c.metrics.ObserveRequestDuration(endpoint, time.Since(start))

	c.logger.Log(logging.LevelDebug, "response received",
		"endpoint", endpoint, "status", resp.StatusCode, "request_id", requestID)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		var result model.DeepLinkResult
		if err := json.Unmarshal(raw, &result); err != nil {
			c.logger.Log(logging.LevelDebug, "undecodable response body",
				"endpoint", endpoint, "error", err.Error())
			return nil, ErrInvalidResponse
		}
		return &result, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: msgInvalidAPIKey}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: msgRateLimited}
	case resp.StatusCode >= 400 && resp.StatusCode <= 599:
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	default:
		return nil, ErrInvalidResponse
	}
}

// errorBody is the best-effort shape of server error bodies.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// serverMessage extracts a human-readable message from an error body,
// empty if the body is unparseable.
func serverMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
