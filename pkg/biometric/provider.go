package biometric

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

var (
	// ErrUnsupported means the platform lacks a usable biometric verifier.
	// Never retried within a call; recomputed on every check.
	ErrUnsupported = errors.New("biometric authentication not supported")
	// ErrCancelled means the user dismissed the platform prompt. Callers fall
	// through to the next authentication method.
	ErrCancelled = errors.New("biometric prompt cancelled")
	// ErrNoCredential means the platform has no enrolled credential to assert.
	ErrNoCredential = errors.New("no enrolled biometric credential")
)

// Platform is the closed enumeration of platform families.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformUnknown Platform = "unknown"
)

// Method is a biometric verification method.
type Method string

const (
	MethodFace        Method = "face"
	MethodFingerprint Method = "fingerprint"
	MethodPlatformKey Method = "platform-key"
)

// Assurance describes how strongly the verifier is backed.
type Assurance string

const (
	AssuranceHardware Assurance = "hardware"
	AssuranceSoftware Assurance = "software"
	AssuranceNone     Assurance = "none"
)

// Capability is the derived, never-persisted result of a support probe.
// Browser and OS state can change without a reload, so it is recomputed on
// every check and never cached across sessions.
type Capability struct {
	Supported bool      `json:"supported"`
	Platform  Platform  `json:"platform"`
	Methods   []Method  `json:"methods,omitempty"`
	Assurance Assurance `json:"assurance"`
}

// Credential is a registered platform authenticator credential.
type Credential struct {
	CredentialID protocol.URLEncodedBase64 `json:"credential_id"`
	PublicKey    []byte                    `json:"public_key,omitempty"`
	Username     string                    `json:"username"`
	Platform     Platform                  `json:"platform"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// Provider is the uniform contract over platform biometric capabilities.
// Detect always succeeds, worst case reporting no support. Register and
// Authenticate fail with one of the reason errors above so callers can pick
// different fallback behavior per reason.
type Provider interface {
	Detect(ctx context.Context) Capability
	Register(ctx context.Context, username, displayName string) (Credential, error)
	Authenticate(ctx context.Context, credentialID protocol.URLEncodedBase64) (Credential, error)
}

// CreationOptions describe a platform credential registration request.
type CreationOptions struct {
	Challenge        protocol.URLEncodedBase64
	RelyingPartyID   string
	RelyingPartyName string
	UserID           protocol.URLEncodedBase64
	Username         string
	DisplayName      string
	Attachment       protocol.AuthenticatorAttachment
	UserVerification protocol.UserVerificationRequirement
	Attestation      protocol.ConveyancePreference
	Timeout          time.Duration
}

// RequestOptions describe a platform credential assertion request.
type RequestOptions struct {
	Challenge        protocol.URLEncodedBase64
	RelyingPartyID   string
	AllowCredentials []protocol.URLEncodedBase64
	UserVerification protocol.UserVerificationRequirement
	Timeout          time.Duration
}

// NativeBridge is the bridging object a native wrapper injects. Its presence
// implies a hardware-backed platform authenticator.
type NativeBridge interface {
	BiometryAvailable(ctx context.Context) (bool, error)
	Methods(ctx context.Context) []Method
	Register(ctx context.Context, username, displayName string) (Credential, error)
	Authenticate(ctx context.Context, credentialID protocol.URLEncodedBase64) (Credential, error)
}

// CredentialAPI models the browser's platform public-key credential surface.
type CredentialAPI interface {
	// PlatformAuthenticatorAvailable reports whether a platform (not roaming)
	// authenticator is actually available, beyond mere API presence.
	PlatformAuthenticatorAvailable(ctx context.Context) (bool, error)
	Create(ctx context.Context, options CreationOptions) (Credential, error)
	Get(ctx context.Context, options RequestOptions) (Credential, error)
}

func newChallenge() (protocol.URLEncodedBase64, error) {
	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}
	return challenge, nil
}
