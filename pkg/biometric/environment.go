package biometric

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldops/device-trust/pkg/fingerprint"
)

// Environment is a snapshot of the execution context, taken once at provider
// construction. Capability itself is still re-probed on every Detect call.
type Environment struct {
	Signals       fingerprint.Signals
	Origin        string // scheme://host[:port] the app is served from
	NativeBridge  NativeBridge  // nil outside a native wrapper
	CredentialAPI CredentialAPI // nil when the credential API is absent
}

// OSFamily maps the environment's platform signal to the closed enumeration.
func (e Environment) OSFamily() Platform {
	switch strings.ToLower(strings.TrimSpace(e.Signals.Platform)) {
	case "ios", "iphone", "ipad":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "macos", "mac":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "linux":
		return PlatformLinux
	default:
		return PlatformUnknown
	}
}

// defaultDevHosts are plain-http hosts allowed to use biometric operations
// during local development.
var defaultDevHosts = []string{"localhost", "127.0.0.1", "::1"}

// secureOrigin reports whether biometric operations are permitted for origin.
// Anything https is secure; http is allowed only for allow-listed dev hosts.
func secureOrigin(origin string, extraDevHosts []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" {
		return false
	}
	if parsed.Scheme == "https" {
		return true
	}
	if parsed.Scheme != "http" {
		return false
	}

	host := parsed.Hostname()
	for _, allowed := range defaultDevHosts {
		if host == allowed {
			return true
		}
	}
	for _, allowed := range extraDevHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

var osVersionPattern = regexp.MustCompile(`(?:OS |Android |Windows NT )(\d+)`)

// minAdvisoryVersion holds the oldest OS major version per family below which
// a warning is logged. Advisory only: user-agent version sniffing is
// unreliable, so an old version never hard-blocks the attempt.
var minAdvisoryVersion = map[Platform]int{
	PlatformIOS:     14,
	PlatformAndroid: 9,
	PlatformWindows: 10,
}

// warnIfLegacyOS logs an advisory warning when the user agent suggests an OS
// too old for reliable platform authenticator support.
func warnIfLegacyOS(family Platform, userAgent string) {
	minimum, checked := minAdvisoryVersion[family]
	if !checked || userAgent == "" {
		return
	}

	match := osVersionPattern.FindStringSubmatch(userAgent)
	if match == nil {
		return
	}
	major, err := strconv.Atoi(match[1])
	if err != nil {
		return
	}
	if major < minimum {
		slog.Warn("OS version may predate platform authenticator support, attempting anyway",
			"platform", family, "detectedMajor", major, "advisoryMinimum", minimum)
	}
}
