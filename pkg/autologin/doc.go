// Package autologin is the top-level decision procedure for silent sign-in.
// It combines biometric authentication, stored credentials, and manual entry
// into one AttemptAutoLogin call with explicit sequential fallback.
//
// Precedence is strict: biometric runs only when the provider reports support
// and at least one platform-valid credential is registered; a cancelled or
// failed prompt falls through to the stored credential pair; the terminal
// manual outcome is a normal return, never an error.
//
// # Basic Usage
//
//	service := autologin.NewService(manager, provider)
//
//	result := service.AttemptAutoLogin(ctx)
//	switch result.Method {
//	case autologin.MethodBiometric, autologin.MethodStored:
//		// complete the session with result.Credentials
//	case autologin.MethodManual:
//		// render the login form
//	}
//
//	// after a successful manual login
//	err := service.SaveSuccessfulLogin(ctx, credentials, enableBiometric)
//
// SaveSuccessfulLogin is the one place a biometric failure surfaces: the user
// explicitly asked for enrollment, so the typed Error distinguishes it from
// the silent fallbacks everywhere else.
package autologin
