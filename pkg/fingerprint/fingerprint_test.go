package fingerprint

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	signals := Signals{
		Platform:            "macos",
		DeviceModel:         "MacBookPro18,3",
		Language:            "en-US",
		ScreenWidth:         1512,
		ScreenHeight:        982,
		TimezoneOffsetMin:   -300,
		HardwareConcurrency: 10,
		DeviceMemoryGB:      16,
		RenderSignature:     "a1b2c3d4",
	}

	first := Generate(signals)
	second := Generate(signals)

	assert.Equal(t, first, second)
	assert.Len(t, first, TokenLength)
}

func TestGenerate_DifferentSignalsDifferentToken(t *testing.T) {
	base := Signals{Platform: "windows", ScreenWidth: 1920, ScreenHeight: 1080}
	other := base
	other.ScreenWidth = 2560

	assert.NotEqual(t, Generate(base), Generate(other))
}

func TestGenerate_MissingSignalsDegrade(t *testing.T) {
	// An entirely empty environment must still produce a stable token.
	empty := Generate(Signals{})
	require.Len(t, empty, TokenLength)
	assert.Equal(t, empty, Generate(Signals{}))

	// A single missing signal must not equal the fully empty token.
	assert.NotEqual(t, empty, Generate(Signals{Platform: "linux"}))
}

func TestGenerate_NormalizesCaseAndWhitespace(t *testing.T) {
	a := Generate(Signals{Platform: "iOS", Language: "en-US"})
	b := Generate(Signals{Platform: " ios ", Language: "en-us"})

	assert.Equal(t, a, b)
}

func TestDeviceName(t *testing.T) {
	tests := []struct {
		name     string
		signals  Signals
		expected string
	}{
		{"model wins", Signals{Platform: "ios", DeviceModel: "iPhone 15 Pro"}, "iPhone 15 Pro"},
		{"ios fallback", Signals{Platform: "ios"}, "iPhone"},
		{"android fallback", Signals{Platform: "android"}, "Android Device"},
		{"windows fallback", Signals{Platform: "Windows"}, "Windows Computer"},
		{"macos fallback", Signals{Platform: "macos"}, "Mac"},
		{"unknown fallback", Signals{}, "Unknown Device"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeviceName(tt.signals))
		})
	}
}

func TestExtractSignalsFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/auth/device-credentials", nil)
	r.Header.Set("User-Agent", "test-agent")
	r.Header.Set("X-Device-Platform", "android")
	r.Header.Set("X-Device-Model", "Pixel 8")
	r.Header.Set("Accept-Language", "de-DE,de;q=0.9,en;q=0.8")
	r.Header.Set("X-Screen-Resolution", "1080x2400")
	r.Header.Set("X-Timezone-Offset", "-120")
	r.Header.Set("X-Hardware-Concurrency", "8")
	r.Header.Set("X-Device-Memory", "8")
	r.Header.Set("X-Render-Signature", "deadbeef")

	signals := ExtractSignalsFromRequest(r)

	assert.Equal(t, "android", signals.Platform)
	assert.Equal(t, "Pixel 8", signals.DeviceModel)
	assert.Equal(t, "de-DE", signals.Language)
	assert.Equal(t, 1080, signals.ScreenWidth)
	assert.Equal(t, 2400, signals.ScreenHeight)
	assert.Equal(t, -120, signals.TimezoneOffsetMin)
	assert.Equal(t, 8, signals.HardwareConcurrency)
	assert.Equal(t, 8, signals.DeviceMemoryGB)
	assert.Equal(t, "deadbeef", signals.RenderSignature)
	assert.Equal(t, "test-agent", signals.UserAgent)

	assert.Len(t, GetRequestFingerprint(r), TokenLength)
}

func TestExtractSignalsFromRequest_MalformedHeaders(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Screen-Resolution", "not-a-resolution")
	r.Header.Set("X-Timezone-Offset", "abc")

	signals := ExtractSignalsFromRequest(r)

	assert.Zero(t, signals.ScreenWidth)
	assert.Zero(t, signals.ScreenHeight)
	assert.Zero(t, signals.TimezoneOffsetMin)
	assert.Len(t, GetRequestFingerprint(r), TokenLength)
}
