// Package device derives display names and fingerprints from user-agent
// strings. Fingerprints bind a session to the browser that opened it so a
// stolen token replayed elsewhere is detectable.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. When disabled it produces empty
// fingerprints and comparison never reports drift.
type Service struct {
	enabled bool
}

// NewService constructs a device service.
func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent derives a human-readable device name like "Chrome on Mac OS
// X" for session listings and audit logs.
func ParseUserAgent(rawUserAgent string) string {
	if strings.TrimSpace(rawUserAgent) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUserAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	osName := ua.OSInfo().Name
	if osName == "" {
		osName = ua.Platform()
	}
	if osName == "" {
		osName = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + osName)
}

// ComputeFingerprint hashes the stable parts of the user agent: browser name,
// major version, and operating system. Minor and patch version bumps from
// auto-updates do not change the fingerprint; a different browser or a major
// upgrade does.
func (s *Service) ComputeFingerprint(rawUserAgent string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(rawUserAgent)
	browser, version := ua.Browser()
	major := version
	if i := strings.IndexByte(version, '.'); i >= 0 {
		major = version[:i]
	}

	material := browser + "|" + major + "|" + ua.OSInfo().Name + "|" + ua.Platform()
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// CompareFingerprints reports whether the presented fingerprint matches the
// stored one, and whether the mismatch counts as drift. Empty fingerprints
// (fingerprinting disabled) never report drift.
func (s *Service) CompareFingerprints(stored, presented string) (matched bool, drift bool) {
	if stored == "" || presented == "" {
		return false, false
	}
	if stored == presented {
		return true, false
	}
	return false, true
}
