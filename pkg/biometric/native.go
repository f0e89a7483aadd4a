package biometric

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

// nativeProvider delegates to the platform SDK bridge injected by a native
// wrapper. The bridge's presence implies a hardware-backed authenticator.
type nativeProvider struct {
	env Environment
	cfg config
}

func (p *nativeProvider) Detect(ctx context.Context) Capability {
	family := p.env.OSFamily()
	unsupported := Capability{Platform: family, Assurance: AssuranceNone}

	if !secureOrigin(p.env.Origin, p.cfg.extraDevHosts) {
		slog.Debug("Biometric refused outside secure origin", "origin", p.env.Origin)
		return unsupported
	}

	available, err := p.env.NativeBridge.BiometryAvailable(ctx)
	if err != nil {
		slog.Debug("Native biometry probe failed", "error", err)
		return unsupported
	}
	if !available {
		return unsupported
	}

	warnIfLegacyOS(family, p.env.Signals.UserAgent)

	methods := p.env.NativeBridge.Methods(ctx)
	if len(methods) == 0 {
		methods = []Method{MethodFingerprint}
	}

	return Capability{
		Supported: true,
		Platform:  family,
		Methods:   methods,
		Assurance: AssuranceHardware,
	}
}

func (p *nativeProvider) Register(ctx context.Context, username, displayName string) (Credential, error) {
	capability := p.Detect(ctx)
	if !capability.Supported {
		return Credential{}, ErrUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.promptTimeout)
	defer cancel()

	credential, err := p.env.NativeBridge.Register(ctx, username, displayName)
	if err != nil {
		return Credential{}, mapBridgeError("native registration", err, p.cfg.promptTimeout)
	}

	credential.Username = username
	credential.Platform = capability.Platform
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}
	return credential, nil
}

func (p *nativeProvider) Authenticate(ctx context.Context, credentialID protocol.URLEncodedBase64) (Credential, error) {
	capability := p.Detect(ctx)
	if !capability.Supported {
		return Credential{}, ErrUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.promptTimeout)
	defer cancel()

	credential, err := p.env.NativeBridge.Authenticate(ctx, credentialID)
	if err != nil {
		return Credential{}, mapBridgeError("native authentication", err, p.cfg.promptTimeout)
	}

	credential.Platform = capability.Platform
	return credential, nil
}

// mapBridgeError passes reason errors through untouched and maps a deadline
// expiry to a plain failure so a stuck prompt never hangs the caller.
func mapBridgeError(op string, err error, timeout time.Duration) error {
	switch {
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrUnsupported), errors.Is(err, ErrNoCredential):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s prompt timed out after %s", op, timeout)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}
