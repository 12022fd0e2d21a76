// Package fingerprint builds the canonical device-signal snapshot sent for
// probabilistic match requests. A fingerprint is constructed fresh per check
// and never persisted beyond the single outgoing request.
package fingerprint

import "strings"

// DeviceFingerprint is the snapshot of platform signals for one match
// request. Field names follow the server's snake_case wire format.
type DeviceFingerprint struct {
	ScreenWidth      int      `json:"screen_width"`
	ScreenHeight     int      `json:"screen_height"`
	DevicePixelRatio float64  `json:"device_pixel_ratio"`
	OSVersion        string   `json:"os_version"`
	Timezone         string   `json:"timezone"`
	Language         string   `json:"language"`
	Languages        []string `json:"languages"`
	CountryCode      string   `json:"country_code,omitempty"`
	DeviceModel      string   `json:"device_model"`
	IDFV             string   `json:"idfv,omitempty"`
	AppVersion       string   `json:"app_version,omitempty"`
	AppBuild         string   `json:"app_build,omitempty"`
	Calendar         string   `json:"calendar,omitempty"`
	Simulator        bool     `json:"simulator"`
}

// NormalizeOSVersion canonicalizes a raw OS version string to exactly three
// dot-separated components: short versions are right-padded with "0", longer
// ones truncated. "17" → "17.0.0", "17.2.1.3" → "17.2.1".
func NormalizeOSVersion(raw string) string {
	parts := strings.Split(raw, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts[:3], ".")
}

// calendarTokens maps platform calendar identifiers to the BCP 47 Unicode
// extension tokens the server expects.
var calendarTokens = map[string]string{
	"gregorian":           "gregory",
	"buddhist":            "buddhist",
	"chinese":             "chinese",
	"coptic":              "coptic",
	"ethiopicAmeteMihret": "ethiopic",
	"ethiopicAmeteAlem":   "ethioaa",
	"hebrew":              "hebrew",
	"iso8601":             "iso8601",
	"indian":              "indian",
	"islamic":             "islamic",
	"islamicCivil":        "islamic-civil",
	"islamicTabular":      "islamic-tbla",
	"islamicUmmAlQura":    "islamic-umalqura",
	"japanese":            "japanese",
	"persian":             "persian",
	"republicOfChina":     "roc",
}

// DefaultCalendarToken is used for unmapped calendar identifiers.
const DefaultCalendarToken = "gregory"

// CalendarToken maps a platform calendar identifier to its web-standard
// token. Unknown identifiers fall back to the Gregorian token.
func CalendarToken(platformID string) string {
	if token, ok := calendarTokens[platformID]; ok {
		return token
	}
	return DefaultCalendarToken
}
