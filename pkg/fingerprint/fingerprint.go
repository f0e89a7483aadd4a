package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// unavailable is substituted for any signal the environment could not provide,
// so that Generate stays total and deterministic.
const unavailable = "unavailable"

// TokenLength is the length of the opaque fingerprint token in hex characters.
const TokenLength = 32

// Signals contains the environment signals a fingerprint is derived from.
// The fingerprint is a weak, heuristic identity hint for display and grouping.
// It is not a cryptographic identifier and must never be used as identity proof.
type Signals struct {
	Platform            string // normalized platform name: ios, android, macos, windows, linux, unknown
	DeviceModel         string // best-effort device model guess
	Language            string // BCP 47 language tag
	ScreenWidth         int
	ScreenHeight        int
	TimezoneOffsetMin   int
	HardwareConcurrency int
	DeviceMemoryGB      int
	RenderSignature     string // truncated canvas/WebGL rendering hash
	UserAgent           string
}

// Generate derives the device fingerprint from the given signals.
// The result is deterministic for identical signals and may legitimately change
// across sessions when the environment changes (browser upgrade, different
// canvas rendering). Callers must not require exact equality for security
// decisions. Generate never fails; missing signals degrade to a placeholder.
func Generate(s Signals) string {
	combined := strings.Join([]string{
		normalize(s.Platform),
		normalize(s.DeviceModel),
		normalize(s.Language),
		geometry(s.ScreenWidth, s.ScreenHeight),
		fmt.Sprintf("tz%d", s.TimezoneOffsetMin),
		fmt.Sprintf("hc%d", s.HardwareConcurrency),
		fmt.Sprintf("mem%d", s.DeviceMemoryGB),
		normalize(s.RenderSignature),
	}, "|")

	hash := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(hash[:])[:TokenLength]
}

// DeviceName returns a human-readable label for the device, derived from the
// platform and model signals ("iPhone", "Windows Computer", ...).
func DeviceName(s Signals) string {
	if s.DeviceModel != "" {
		return s.DeviceModel
	}
	switch strings.ToLower(s.Platform) {
	case "ios":
		return "iPhone"
	case "android":
		return "Android Device"
	case "macos":
		return "Mac"
	case "windows":
		return "Windows Computer"
	case "linux":
		return "Linux Computer"
	default:
		return "Unknown Device"
	}
}

func normalize(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" {
		return unavailable
	}
	return v
}

func geometry(w, h int) string {
	if w <= 0 || h <= 0 {
		return unavailable
	}
	return fmt.Sprintf("%dx%d", w, h)
}
