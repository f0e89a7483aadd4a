package biometric

import (
	"context"

	"github.com/go-webauthn/webauthn/protocol"
)

// UnsupportedProvider reports no biometric support. It is selected when the
// environment exposes neither a native bridge nor a credential API, and is
// useful as an explicit noop in tests and non-interactive contexts.
type UnsupportedProvider struct {
	platform Platform
}

// NewUnsupportedProvider creates a provider that always reports no support.
func NewUnsupportedProvider(platform Platform) *UnsupportedProvider {
	return &UnsupportedProvider{platform: platform}
}

func (p *UnsupportedProvider) Detect(ctx context.Context) Capability {
	return Capability{Platform: p.platform, Assurance: AssuranceNone}
}

func (p *UnsupportedProvider) Register(ctx context.Context, username, displayName string) (Credential, error) {
	return Credential{}, ErrUnsupported
}

func (p *UnsupportedProvider) Authenticate(ctx context.Context, credentialID protocol.URLEncodedBase64) (Credential, error) {
	return Credential{}, ErrUnsupported
}
