package autologin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldops/device-trust/pkg/biometric"
	"github.com/fieldops/device-trust/pkg/devicetrust"
)

// Method identifies which authentication path produced a result.
const (
	MethodBiometric = "biometric"
	MethodStored    = "stored_credentials"
	MethodManual    = "manual"
)

// Error type constants
const (
	ErrorTypeBiometricRegistration = "biometric_registration"
	ErrorTypeInternalError         = "internal_error"
)

// Error represents structured errors from the auto-login flow. Only
// user-initiated actions surface one; passive checks degrade silently.
type Error struct {
	Type    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Result contains the outcome of an auto-login attempt. A manual outcome is a
// normal, expected return: the caller renders the login form, not an error
// state.
type Result struct {
	Success     bool
	Method      string
	Credentials *devicetrust.Credentials
	Message     string
}

// Status lists which auto-login signals exist on this device right now, for
// the login UI to decide what to render.
type Status struct {
	DeviceRemembered     bool                `json:"deviceRemembered"`
	HasStoredCredentials bool                `json:"hasStoredCredentials"`
	BiometricSupported   bool                `json:"biometricSupported"`
	BiometricRegistered  bool                `json:"biometricRegistered"`
	Platform             biometric.Platform  `json:"platform"`
	Methods              []biometric.Method  `json:"methods,omitempty"`
	Assurance            biometric.Assurance `json:"assurance"`
}

// Service is the top-level decision procedure combining biometric
// authentication, stored credentials, and manual entry. All dependencies are
// injected; the service holds no state of its own.
type Service struct {
	manager  *devicetrust.Manager
	provider biometric.Provider
}

// NewService creates an auto-login orchestrator over the given device trust
// manager and biometric provider.
func NewService(manager *devicetrust.Manager, provider biometric.Provider) *Service {
	return &Service{
		manager:  manager,
		provider: provider,
	}
}

// AttemptAutoLogin runs the fallback chain: biometric first, stored
// credentials second, manual last. Each step degrades silently; the method
// never returns an error because "no saved authentication" is an expected
// outcome.
func (s *Service) AttemptAutoLogin(ctx context.Context) Result {
	if result, ok := s.tryBiometric(ctx); ok {
		return result
	}

	if result, ok := s.tryStoredCredentials(ctx); ok {
		return result
	}

	slog.Debug("No saved authentication, manual login required")
	return Result{
		Method:  MethodManual,
		Message: "no saved authentication available",
	}
}

// tryBiometric attempts the biometric step. It is skipped entirely, without
// showing a prompt, unless the provider reports support and at least one
// platform-valid credential is registered.
func (s *Service) tryBiometric(ctx context.Context) (Result, bool) {
	usable := s.manager.BiometricCredentials(ctx)
	if len(usable) == 0 {
		return Result{}, false
	}

	credential, err := s.manager.AuthenticateBiometric(ctx)
	if err != nil {
		if errors.Is(err, biometric.ErrCancelled) {
			slog.Info("Biometric prompt dismissed, falling back")
		} else {
			slog.Info("Biometric authentication failed, falling back", "error", err)
		}
		return Result{}, false
	}

	result := Result{
		Success: true,
		Method:  MethodBiometric,
		Credentials: &devicetrust.Credentials{
			Username: credential.Username,
		},
	}

	// A stored secret completes the login in one step. Without one the caller
	// finishes the session server-side from the asserted username.
	stored, err := s.manager.StoredCredentials(ctx)
	if err == nil && stored.Username == credential.Username {
		result.Credentials = stored
	}

	return result, true
}

func (s *Service) tryStoredCredentials(ctx context.Context) (Result, bool) {
	stored, err := s.manager.StoredCredentials(ctx)
	if err != nil {
		if !errors.Is(err, devicetrust.ErrNoStoredCredentials) {
			slog.Debug("Stored credential lookup failed", "error", err)
		}
		return Result{}, false
	}

	return Result{
		Success:     true,
		Method:      MethodStored,
		Credentials: stored,
	}, true
}

// HasAutoLoginCapabilities reports whether an auto-login attempt could do
// anything at all: a usable biometric credential or a stored credential pair.
func (s *Service) HasAutoLoginCapabilities(ctx context.Context) bool {
	if len(s.manager.BiometricCredentials(ctx)) > 0 {
		return true
	}
	return s.manager.HasStoredCredentials(ctx)
}

// GetAutoLoginStatus returns the current trust signals. Capability is probed
// fresh on every call since platform state can change without a reload.
func (s *Service) GetAutoLoginStatus(ctx context.Context) Status {
	capability := s.provider.Detect(ctx)
	return Status{
		DeviceRemembered:     s.manager.IsRemembered(ctx),
		HasStoredCredentials: s.manager.HasStoredCredentials(ctx),
		BiometricSupported:   capability.Supported,
		BiometricRegistered:  len(s.manager.BiometricCredentials(ctx)) > 0,
		Platform:             capability.Platform,
		Methods:              capability.Methods,
		Assurance:            capability.Assurance,
	}
}

// SaveSuccessfulLogin remembers the device after a successful manual login.
// Biometric registration runs only when requested; its failure surfaces as a
// typed error because it is a user-requested action, while the remember
// itself has already committed.
func (s *Service) SaveSuccessfulLogin(ctx context.Context, credentials devicetrust.Credentials, enableBiometric bool) error {
	if _, err := s.manager.Remember(ctx, credentials.Username, credentials.Password); err != nil {
		return &Error{
			Type:    ErrorTypeInternalError,
			Message: fmt.Sprintf("failed to remember device: %v", err),
		}
	}

	if !enableBiometric {
		return nil
	}

	if _, err := s.manager.RegisterBiometric(ctx, credentials.Username); err != nil {
		slog.Warn("Biometric enrollment failed after remember", "error", err)
		return &Error{
			Type:    ErrorTypeBiometricRegistration,
			Message: fmt.Sprintf("device remembered but biometric registration failed: %v", err),
		}
	}
	return nil
}

// ClearSavedAuth wipes all saved authentication state on this device.
func (s *Service) ClearSavedAuth(ctx context.Context) error {
	return s.manager.ClearAllDeviceData(ctx)
}

// ShouldShowDevicePrompt reports whether the UI should offer "remember this
// device" after a manual login.
func (s *Service) ShouldShowDevicePrompt(ctx context.Context) bool {
	return s.manager.ShouldPromptToRemember(ctx)
}
