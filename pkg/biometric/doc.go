// Package biometric detects platform biometric capabilities and exposes a
// uniform register/authenticate contract over them.
//
// One provider variant exists per platform family: a native-bridge provider
// for wrapped mobile apps, a browser provider backed by the platform
// public-key credential API, and an unsupported provider for everything else.
// NewProvider selects the variant once from an Environment snapshot; the
// capability itself is re-probed on every Detect call because browser and OS
// state can change without a reload.
//
// Failures carry reasons: ErrUnsupported (platform lacks the capability),
// ErrCancelled (user dismissed the prompt), ErrNoCredential (nothing
// enrolled). Callers choose different fallback behavior per reason; the
// auto-login orchestrator falls through silently on all of them.
//
//	provider := biometric.NewProvider(biometric.Environment{
//		Signals:       signals,
//		Origin:        "https://app.example.com",
//		CredentialAPI: api,
//	}, biometric.WithRelyingParty("app.example.com", "FieldOps"))
//
//	capability := provider.Detect(ctx)
//	if capability.Supported {
//		credential, err := provider.Register(ctx, username, deviceName)
//		...
//	}
package biometric
