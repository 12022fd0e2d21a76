// Package model defines the attribution result wire contract.
//
// The attribution server speaks snake_case JSON. Decoding is tolerant: every
// field except the top-level "matched" boolean is optional, and URL-valued
// fields arrive as strings that may fail to parse without failing the
// enclosing object. The same encoding is used for the local result cache, so
// decode→encode→decode must be lossless for everything that decoded.
package model

import (
	"encoding/json"
	"errors"
	"net/url"
)

// ErrMissingMatched is returned when a response body lacks the required
// top-level "matched" field.
var ErrMissingMatched = errors.New("response missing required field \"matched\"")

// Confidence is the server-assigned qualitative strength of a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DeepLinkResult is the server's attribution verdict.
// Confidence, MatchScore and Link are nil when the server sent no match.
type DeepLinkResult struct {
	Matched    bool
	Confidence *Confidence
	MatchScore *int
	Link       *LinkData
}

// NoMatch returns the synthetic result used when no attribution exists.
func NoMatch() *DeepLinkResult {
	return &DeepLinkResult{Matched: false}
}

// LinkData is the attributed destination and its metadata.
// Only ID is required; everything else is optional on the wire.
type LinkData struct {
	ID                            string
	Name                          *string
	Path                          *string
	ShortenedPath                 *string
	DeepLinkValue                 *string
	URL                           *url.URL
	FullURL                       *url.URL
	AndroidFallbackURL            *url.URL
	IOSFallbackURL                *url.URL
	SocialTitle                   *string
	SocialDescription             *string
	SocialImageURL                *url.URL
	IOSDeferredDeepLinkingEnabled *bool
	EnableForcedRedirect          *bool
	Clicks                        *int
	Referrer                      *string
	ProviderToken                 *string
	CampaignToken                 *string
}

// resultWire mirrors DeepLinkResult on the wire. Matched is a pointer so a
// missing field is distinguishable from an explicit false.
type resultWire struct {
	Matched    *bool       `json:"matched"`
	Confidence *Confidence `json:"confidence,omitempty"`
	MatchScore *int        `json:"match_score,omitempty"`
	Link       *LinkData   `json:"link,omitempty"`
}

// UnmarshalJSON decodes a server response or cached result.
// A body without "matched" fails with ErrMissingMatched.
func (r *DeepLinkResult) UnmarshalJSON(data []byte) error {
	var wire resultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Matched == nil {
		return ErrMissingMatched
	}
	r.Matched = *wire.Matched
	r.Confidence = wire.Confidence
	r.MatchScore = wire.MatchScore
	r.Link = wire.Link
	return nil
}

// MarshalJSON re-encodes the result in the wire format.
func (r *DeepLinkResult) MarshalJSON() ([]byte, error) {
	matched := r.Matched
	return json.Marshal(resultWire{
		Matched:    &matched,
		Confidence: r.Confidence,
		MatchScore: r.MatchScore,
		Link:       r.Link,
	})
}

// linkDataWire mirrors LinkData on the wire. URL fields are plain strings.
type linkDataWire struct {
	ID                            string  `json:"id"`
	Name                          *string `json:"name,omitempty"`
	Path                          *string `json:"path,omitempty"`
	ShortenedPath                 *string `json:"shortened_path,omitempty"`
	DeepLinkValue                 *string `json:"deep_link_value,omitempty"`
	URL                           *string `json:"url,omitempty"`
	FullURL                       *string `json:"full_url,omitempty"`
	AndroidFallbackURL            *string `json:"android_fallback_url,omitempty"`
	IOSFallbackURL                *string `json:"ios_fallback_url,omitempty"`
	SocialTitle                   *string `json:"social_title,omitempty"`
	SocialDescription             *string `json:"social_description,omitempty"`
	SocialImageURL                *string `json:"social_image_url,omitempty"`
	IOSDeferredDeepLinkingEnabled *bool   `json:"ios_deferred_deep_linking_enabled,omitempty"`
	EnableForcedRedirect          *bool   `json:"enable_forced_redirect,omitempty"`
	Clicks                        *int    `json:"clicks,omitempty"`
	Referrer                      *string `json:"referrer,omitempty"`
	ProviderToken                 *string `json:"provider_token,omitempty"`
	CampaignToken                 *string `json:"campaign_token,omitempty"`
}

// UnmarshalJSON decodes link metadata. URL strings that fail to parse leave
// the field nil rather than failing the object.
func (l *LinkData) UnmarshalJSON(data []byte) error {
	var wire linkDataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	l.ID = wire.ID
	l.Name = wire.Name
	l.Path = wire.Path
	l.ShortenedPath = wire.ShortenedPath
	l.DeepLinkValue = wire.DeepLinkValue
	l.URL = parseOptionalURL(wire.URL)
	l.FullURL = parseOptionalURL(wire.FullURL)
	l.AndroidFallbackURL = parseOptionalURL(wire.AndroidFallbackURL)
	l.IOSFallbackURL = parseOptionalURL(wire.IOSFallbackURL)
	l.SocialTitle = wire.SocialTitle
	l.SocialDescription = wire.SocialDescription
	l.SocialImageURL = parseOptionalURL(wire.SocialImageURL)
	l.IOSDeferredDeepLinkingEnabled = wire.IOSDeferredDeepLinkingEnabled
	l.EnableForcedRedirect = wire.EnableForcedRedirect
	l.Clicks = wire.Clicks
	l.Referrer = wire.Referrer
	l.ProviderToken = wire.ProviderToken
	l.CampaignToken = wire.CampaignToken
	return nil
}

// MarshalJSON re-encodes link metadata with URLs back in string form.
func (l *LinkData) MarshalJSON() ([]byte, error) {
	return json.Marshal(linkDataWire{
		ID:                            l.ID,
		Name:                          l.Name,
		Path:                          l.Path,
		ShortenedPath:                 l.ShortenedPath,
		DeepLinkValue:                 l.DeepLinkValue,
		URL:                           urlString(l.URL),
		FullURL:                       urlString(l.FullURL),
		AndroidFallbackURL:            urlString(l.AndroidFallbackURL),
		IOSFallbackURL:                urlString(l.IOSFallbackURL),
		SocialTitle:                   l.SocialTitle,
		SocialDescription:             l.SocialDescription,
		SocialImageURL:                urlString(l.SocialImageURL),
		IOSDeferredDeepLinkingEnabled: l.IOSDeferredDeepLinkingEnabled,
		EnableForcedRedirect:          l.EnableForcedRedirect,
		Clicks:                        l.Clicks,
		Referrer:                      l.Referrer,
		ProviderToken:                 l.ProviderToken,
		CampaignToken:                 l.CampaignToken,
	})
}

// parseOptionalURL parses an optional URL string. Missing or malformed
// strings yield nil.
func parseOptionalURL(s *string) *url.URL {
	if s == nil {
		return nil
	}
	u, err := url.Parse(*s)
	if err != nil {
		return nil
	}
	return u
}

// urlString converts a URL back to its wire string form.
func urlString(u *url.URL) *string {
	if u == nil {
		return nil
	}
	s := u.String()
	return &s
}
