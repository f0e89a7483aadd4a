package biometric

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
)

// browserProvider uses the browser's platform public-key credential surface.
// Support requires the API to confirm a platform (not roaming) authenticator
// is actually available, not just that the API object exists.
type browserProvider struct {
	env Environment
	cfg config
}

func (p *browserProvider) Detect(ctx context.Context) Capability {
	family := p.env.OSFamily()
	unsupported := Capability{Platform: family, Assurance: AssuranceNone}

	if !secureOrigin(p.env.Origin, p.cfg.extraDevHosts) {
		slog.Debug("Biometric refused outside secure origin", "origin", p.env.Origin)
		return unsupported
	}

	available, err := p.env.CredentialAPI.PlatformAuthenticatorAvailable(ctx)
	if err != nil {
		slog.Debug("Platform authenticator probe failed", "error", err)
		return unsupported
	}
	if !available {
		return unsupported
	}

	warnIfLegacyOS(family, p.env.Signals.UserAgent)

	return Capability{
		Supported: true,
		Platform:  family,
		Methods:   []Method{MethodPlatformKey},
		Assurance: AssuranceSoftware,
	}
}

func (p *browserProvider) Register(ctx context.Context, username, displayName string) (Credential, error) {
	capability := p.Detect(ctx)
	if !capability.Supported {
		return Credential{}, ErrUnsupported
	}

	challenge, err := newChallenge()
	if err != nil {
		return Credential{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.promptTimeout)
	defer cancel()

	credential, err := p.env.CredentialAPI.Create(ctx, CreationOptions{
		Challenge:        challenge,
		RelyingPartyID:   p.cfg.relyingPartyID,
		RelyingPartyName: p.cfg.relyingPartyName,
		UserID:           protocol.URLEncodedBase64(uuid.New().String()),
		Username:         username,
		DisplayName:      displayName,
		Attachment:       protocol.Platform,
		UserVerification: protocol.VerificationRequired,
		Attestation:      protocol.PreferNoAttestation,
		Timeout:          p.cfg.promptTimeout,
	})
	if err != nil {
		return Credential{}, mapBridgeError("credential creation", err, p.cfg.promptTimeout)
	}

	credential.Username = username
	credential.Platform = capability.Platform
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = time.Now().UTC()
	}
	return credential, nil
}

func (p *browserProvider) Authenticate(ctx context.Context, credentialID protocol.URLEncodedBase64) (Credential, error) {
	capability := p.Detect(ctx)
	if !capability.Supported {
		return Credential{}, ErrUnsupported
	}

	challenge, err := newChallenge()
	if err != nil {
		return Credential{}, err
	}

	options := RequestOptions{
		Challenge:        challenge,
		RelyingPartyID:   p.cfg.relyingPartyID,
		UserVerification: protocol.VerificationRequired,
		Timeout:          p.cfg.promptTimeout,
	}
	if len(credentialID) > 0 {
		options.AllowCredentials = []protocol.URLEncodedBase64{credentialID}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.promptTimeout)
	defer cancel()

	credential, err := p.env.CredentialAPI.Get(ctx, options)
	if err != nil {
		return Credential{}, mapBridgeError("credential assertion", err, p.cfg.promptTimeout)
	}

	credential.Platform = capability.Platform
	return credential, nil
}
