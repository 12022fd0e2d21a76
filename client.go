// Package deferlink attributes an app install or app-open event to a
// previously clicked marketing link, without any identifier shared between
// the browser and the installed app.
//
// Two flows are supported: a probabilistic deferred check that sends a
// device fingerprint for server-side correlation, and direct attribution of
// a Universal Link URL the platform handed to the app. Each installation
// performs the deferred check once; the verdict is cached in durable storage
// and later calls are answered locally.
package deferlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/deferlink/deferlink-go/fingerprint"
	"github.com/deferlink/deferlink-go/logging"
	"github.com/deferlink/deferlink-go/metrics"
	"github.com/deferlink/deferlink-go/model"
	"github.com/deferlink/deferlink-go/storage"
	"github.com/deferlink/deferlink-go/transport"
)

// Storage keys for the persisted attribution state. Both are written only
// after a completed check or an explicit Reset.
const (
	storageKeyChecked      = "hasCheckedForDeferredDeepLink"
	storageKeyCachedResult = "cachedResult"
)

// API is the attribution server surface the coordinator depends on.
// transport.Client is the production implementation; tests substitute fakes.
type API interface {
	MatchFingerprint(ctx context.Context, fp fingerprint.DeviceFingerprint) (*model.DeepLinkResult, error)
	AttributeLink(ctx context.Context, rawURL, platform string) (*model.DeepLinkResult, error)
}

// Client is the attribution coordinator. Construct it with New, inject
// collaborators via options, then call Configure exactly once before any
// check operation.
type Client struct {
	mu         sync.Mutex
	configured bool
	cfg        Config

	store    storage.Store
	logger   logging.Logger
	metrics  metrics.Recorder
	provider fingerprint.InfoProvider
	http     *http.Client
	api      API

	// apiOverride, when set, wins over the transport client built at
	// Configure time.
	apiOverride API
}

// Option customizes a Client's collaborators.
type Option func(*Client)

// WithStorage sets the durable key-value store. Defaults to an in-memory
// store; production hosts should inject a durable backend (storage.File,
// storage.Redis, or their own).
func WithStorage(store storage.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithLogger sets the log sink. When unset, Configure builds a stderr
// logger at the configured level.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the instrumentation recorder. Defaults to a no-op.
func WithMetrics(recorder metrics.Recorder) Option {
	return func(c *Client) { c.metrics = recorder }
}

// WithInfoProvider sets the platform signal source, including the
// simulator query. Defaults to fingerprint.HostProvider.
func WithInfoProvider(provider fingerprint.InfoProvider) Option {
	return func(c *Client) { c.provider = provider }
}

// WithHTTPClient overrides the HTTP client used by the transport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.http = httpClient }
}

// WithAPI substitutes the attribution server client entirely. For tests.
func WithAPI(api API) Option {
	return func(c *Client) { c.apiOverride = api }
}

// New creates an unconfigured Client.
func New(opts ...Option) *Client {
	c := &Client{
		store:    storage.NewMemory(),
		metrics:  metrics.NewNoop(),
		provider: fingerprint.HostProvider{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure validates the client key, binds the configuration and builds
// the transport. The first successful call wins; later calls are no-ops.
// Safe for concurrent callers.
func (c *Client) Configure(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.configured {
		return nil
	}

	if err := cfg.validate(); err != nil {
		return err
	}

	if c.logger == nil {
		c.logger = logging.NewSlog(cfg.LogLevel)
	}

	if c.apiOverride != nil {
		c.api = c.apiOverride
	} else {
		c.api = transport.New(transport.Config{
			BaseURL:    cfg.baseURL(),
			ClientKey:  cfg.ClientKey,
			UserAgent:  userAgent,
			MaxRetries: cfg.maxRetries(),
			BaseDelay:  cfg.RetryBaseDelay,
			HTTPClient: c.http,
			Logger:     c.logger,
			Metrics:    c.metrics,
		})
	}

	c.cfg = cfg
	c.configured = true
	c.logger.Log(logging.LevelInfo, "configured",
		"base_url", cfg.baseURL(), "allow_simulator", cfg.AllowSimulator)
	return nil
}

// snapshot returns the bound configuration and API, or ErrNotConfigured.
func (c *Client) snapshot() (Config, API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.configured {
		return Config{}, nil, ErrNotConfigured
	}
	return c.cfg, c.api, nil
}

// CheckForDeferredDeepLink performs the one-shot deferred attribution check.
//
// The first call collects a fingerprint and asks the server for a match; a
// successful response marks the installation as checked, and a matched
// verdict is cached. Later calls are answered from the cache — or, with no
// cached match, per the configured RepeatCheckPolicy — without touching the
// network. Network, server and decode failures leave the installation
// unchecked so the next launch retries.
func (c *Client) CheckForDeferredDeepLink(ctx context.Context) (*model.DeepLinkResult, error) {
	cfg, api, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	checked, err := c.store.GetBool(ctx, storageKeyChecked)
	if err != nil {
		c.logger.Log(logging.LevelWarning, "failed to read checked flag", "error", err.Error())
	}

	if checked {
		if result := c.cachedResult(ctx); result != nil {
			c.metrics.IncDeferredCheck("cache_hit")
			c.logger.Log(logging.LevelDebug, "deferred check answered from cache")
			return result, nil
		}
		if cfg.RepeatCheckPolicy == RepeatCheckError {
			return nil, ErrAlreadyChecked
		}
		c.metrics.IncDeferredCheck("repeat_no_match")
		return model.NoMatch(), nil
	}

	if c.provider.Simulator() && !cfg.AllowSimulator {
		// Mark checked so every launch does not repeat a doomed check.
		c.markChecked(ctx)
		c.metrics.IncDeferredCheck("skipped_simulator")
		c.logger.Log(logging.LevelInfo, "deferred check skipped in simulator")
		return nil, ErrSimulator
	}

	fp := fingerprint.Collector{Provider: c.provider}.Collect()
	result, err := api.MatchFingerprint(ctx, fp)
	if err != nil {
		return nil, err
	}

	c.metrics.IncDeferredCheck("network")
	c.metrics.IncMatch(result.Matched)
	c.markChecked(ctx)
	if result.Matched {
		c.cacheResult(ctx, result)
	}
	c.logger.Log(logging.LevelInfo, "deferred check completed", "matched", result.Matched)
	return result, nil
}

// HandleUniversalLink attributes a URL the platform opened the app with.
//
// The installation is marked checked before the server call and stays
// marked even if attribution fails: the link open itself is a confirmed
// direct-link event, so a later deferred check would be wrong regardless of
// attribution-service availability.
func (c *Client) HandleUniversalLink(ctx context.Context, rawURL string) (*model.DeepLinkResult, error) {
	_, api, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() {
		return nil, fmt.Errorf("deferlink: universal link must be an absolute URL: %q", rawURL)
	}

	c.markChecked(ctx)
	c.metrics.IncUniversalLink()

	result, err := api.AttributeLink(ctx, rawURL, c.provider.Platform())
	if err != nil {
		return nil, err
	}

	c.metrics.IncMatch(result.Matched)
	if result.Matched {
		c.cacheResult(ctx, result)
	}
	c.logger.Log(logging.LevelInfo, "universal link attributed", "matched", result.Matched)
	return result, nil
}

// Reset clears the persisted attribution state so the next check performs a
// fresh network call. Test and debug use only.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.store.Remove(ctx, storageKeyChecked); err != nil {
		return fmt.Errorf("clear checked flag: %w", err)
	}
	if err := c.store.Remove(ctx, storageKeyCachedResult); err != nil {
		return fmt.Errorf("clear cached result: %w", err)
	}
	return nil
}

// Version reports the SDK version.
func (c *Client) Version() string {
	return Version
}

// markChecked persists the one-way checked transition. Storage failures are
// logged, not surfaced: the caller already has its answer, and an unset flag
// only costs a duplicate idempotent request next launch.
func (c *Client) markChecked(ctx context.Context) {
	if err := c.store.SetBool(ctx, storageKeyChecked, true); err != nil {
		c.logger.Log(logging.LevelWarning, "failed to persist checked flag", "error", err.Error())
	}
}

// cacheResult persists a matched result in the wire format.
func (c *Client) cacheResult(ctx context.Context, result *model.DeepLinkResult) {
	encoded, err := json.Marshal(result)
	if err != nil {
		c.logger.Log(logging.LevelWarning, "failed to encode result for cache", "error", err.Error())
		return
	}
	if err := c.store.SetData(ctx, storageKeyCachedResult, encoded); err != nil {
		c.logger.Log(logging.LevelWarning, "failed to persist cached result", "error", err.Error())
	}
}

// cachedResult loads the cached verdict, nil when absent or unreadable.
func (c *Client) cachedResult(ctx context.Context) *model.DeepLinkResult {
	raw, err := c.store.GetData(ctx, storageKeyCachedResult)
	if err != nil {
		return nil
	}
	var result model.DeepLinkResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Log(logging.LevelWarning, "cached result unreadable, ignoring", "error", err.Error())
		return nil
	}
	return &result
}

// Destination extracts the routing URL from a result. Returns ErrNoMatch
// when the result carries no usable destination, including matched verdicts
// the server sent without link data.
func Destination(result *model.DeepLinkResult) (*url.URL, error) {
	if result == nil || !result.Matched || result.Link == nil {
		return nil, ErrNoMatch
	}
	if result.Link.URL != nil {
		return result.Link.URL, nil
	}
	if result.Link.FullURL != nil {
		return result.Link.FullURL, nil
	}
	return nil, ErrNoMatch
}
