package deferlink

import (
	"context"

	"github.com/deferlink/deferlink-go/model"
)

// Callback receives the outcome of an asynchronous operation. Exactly one
// of result and err is non-nil.
type Callback func(result *model.DeepLinkResult, err error)

// CheckForDeferredDeepLinkAsync runs CheckForDeferredDeepLink on its own
// goroutine and delivers the outcome to done. A mechanical adapter over the
// synchronous operation; the callback runs on the spawned goroutine.
func (c *Client) CheckForDeferredDeepLinkAsync(ctx context.Context, done Callback) {
	go func() {
		done(c.CheckForDeferredDeepLink(ctx))
	}()
}

// HandleUniversalLinkAsync runs HandleUniversalLink on its own goroutine
// and delivers the outcome to done.
func (c *Client) HandleUniversalLinkAsync(ctx context.Context, rawURL string, done Callback) {
	go func() {
		done(c.HandleUniversalLink(ctx, rawURL))
	}()
}
