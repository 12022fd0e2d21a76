package fingerprint

import (
	"os"
	"runtime"
	"strings"
	"time"
)

// InfoProvider supplies raw platform signals. Implementations wrap whatever
// the host platform exposes; tests substitute a fixture.
type InfoProvider interface {
	// ScreenSize returns the screen dimensions in points.
	ScreenSize() (width, height int)
	// PixelRatio returns the device pixel scale factor.
	PixelRatio() float64
	// OSVersion returns the raw, un-normalized OS version string.
	OSVersion() string
	// Timezone returns the IANA timezone identifier.
	Timezone() string
	// Languages returns preferred language tags in preference order.
	Languages() []string
	// CountryCode returns the locale region code, empty if unknown.
	CountryCode() string
	// DeviceModel returns the hardware model identifier.
	DeviceModel() string
	// VendorID returns the vendor-scoped install identifier, empty if
	// unavailable.
	VendorID() string
	// AppVersion and AppBuild return the host app's marketing version and
	// build number, empty if unknown.
	AppVersion() string
	AppBuild() string
	// CalendarIdentifier returns the platform calendar system identifier.
	CalendarIdentifier() string
	// Platform returns the platform identifier sent to the attribution
	// server, e.g. "ios".
	Platform() string
	// Simulator reports whether the process runs in an emulated environment.
	Simulator() bool
}

// Collector assembles a DeviceFingerprint from an InfoProvider, applying
// canonicalization and safe fallbacks so collection can never fail.
type Collector struct {
	Provider InfoProvider
}

// Fallbacks for signals the provider cannot supply.
const (
	fallbackLanguage = "en"
	fallbackTimezone = "UTC"
	fallbackModel    = "unknown"
)

// Collect produces the canonical fingerprint snapshot. Pure read, no error
// path: missing signals degrade to fixed defaults.
func (c Collector) Collect() DeviceFingerprint {
	p := c.Provider

	width, height := p.ScreenSize()

	rawVersion := strings.TrimSpace(p.OSVersion())
	if rawVersion == "" {
		rawVersion = "0"
	}

	languages := p.Languages()
	if len(languages) == 0 {
		languages = []string{fallbackLanguage}
	}

	timezone := p.Timezone()
	if timezone == "" {
		timezone = fallbackTimezone
	}

	deviceModel := p.DeviceModel()
	if deviceModel == "" {
		deviceModel = fallbackModel
	}

	return DeviceFingerprint{
		ScreenWidth:      width,
		ScreenHeight:     height,
		DevicePixelRatio: p.PixelRatio(),
		OSVersion:        NormalizeOSVersion(rawVersion),
		Timezone:         timezone,
		Language:         languages[0],
		Languages:        languages,
		CountryCode:      p.CountryCode(),
		DeviceModel:      deviceModel,
		IDFV:             p.VendorID(),
		AppVersion:       p.AppVersion(),
		AppBuild:         p.AppBuild(),
		Calendar:         CalendarToken(p.CalendarIdentifier()),
		Simulator:        p.Simulator(),
	}
}

// HostProvider reads signals from ambient process state. It is the default
// provider for processes without a richer platform bridge; bridged hosts
// should inject their own InfoProvider.
type HostProvider struct {
	// AppVersionValue and AppBuildValue are set by the embedding app.
	AppVersionValue string
	AppBuildValue   string
	// PlatformValue overrides the platform identifier. Defaults to "ios".
	PlatformValue string
}

func (h HostProvider) ScreenSize() (int, int) { return 0, 0 }

func (h HostProvider) PixelRatio() float64 { return 1.0 }

func (h HostProvider) OSVersion() string { return "0" }

func (h HostProvider) Timezone() string {
	if loc := time.Local; loc != nil && loc.String() != "Local" {
		return loc.String()
	}
	return fallbackTimezone
}

// Languages derives the language preference from the process locale
// environment, e.g. LANG=en_US.UTF-8 → ["en-US"].
func (h HostProvider) Languages() []string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		raw := os.Getenv(key)
		if raw == "" || raw == "C" || raw == "POSIX" {
			continue
		}
		if i := strings.IndexByte(raw, '.'); i >= 0 {
			raw = raw[:i]
		}
		tag := strings.ReplaceAll(raw, "_", "-")
		if tag != "" {
			return []string{tag}
		}
	}
	return []string{fallbackLanguage}
}

func (h HostProvider) CountryCode() string {
	langs := h.Languages()
	if i := strings.IndexByte(langs[0], '-'); i >= 0 {
		return langs[0][i+1:]
	}
	return ""
}

func (h HostProvider) DeviceModel() string { return runtime.GOOS + "/" + runtime.GOARCH }

func (h HostProvider) VendorID() string { return "" }

func (h HostProvider) AppVersion() string { return h.AppVersionValue }

func (h HostProvider) AppBuild() string { return h.AppBuildValue }

func (h HostProvider) CalendarIdentifier() string { return "gregorian" }

func (h HostProvider) Platform() string {
	if h.PlatformValue != "" {
		return h.PlatformValue
	}
	return "ios"
}

func (h HostProvider) Simulator() bool { return false }
