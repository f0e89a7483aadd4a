package fingerprint

import (
	"net/http"
	"strconv"
	"strings"
)

// ExtractSignalsFromRequest extracts fingerprint signals from the headers the
// client forwards with credential sync calls. Absent headers leave the zero
// value, which Generate degrades to a placeholder.
func ExtractSignalsFromRequest(r *http.Request) Signals {
	width, height := parseResolution(r.Header.Get("X-Screen-Resolution"))

	return Signals{
		Platform:            r.Header.Get("X-Device-Platform"),
		DeviceModel:         r.Header.Get("X-Device-Model"),
		Language:            firstLanguage(r.Header.Get("Accept-Language")),
		ScreenWidth:         width,
		ScreenHeight:        height,
		TimezoneOffsetMin:   parseInt(r.Header.Get("X-Timezone-Offset")),
		HardwareConcurrency: parseInt(r.Header.Get("X-Hardware-Concurrency")),
		DeviceMemoryGB:      parseInt(r.Header.Get("X-Device-Memory")),
		RenderSignature:     r.Header.Get("X-Render-Signature"),
		UserAgent:           r.UserAgent(),
	}
}

// GetRequestFingerprint extracts signals from a request and generates a
// fingerprint in one step.
func GetRequestFingerprint(r *http.Request) string {
	return Generate(ExtractSignalsFromRequest(r))
}

func parseResolution(v string) (int, int) {
	parts := strings.SplitN(strings.ToLower(v), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	return parseInt(parts[0]), parseInt(parts[1])
}

func parseInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

func firstLanguage(acceptLanguage string) string {
	lang := strings.SplitN(acceptLanguage, ",", 2)[0]
	return strings.SplitN(lang, ";", 2)[0]
}
