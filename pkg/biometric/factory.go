package biometric

import (
	"time"
)

// DefaultPromptTimeout bounds how long a platform prompt may stay open before
// the call resolves as failure instead of hanging the orchestrator.
const DefaultPromptTimeout = 60 * time.Second

type config struct {
	promptTimeout    time.Duration
	relyingPartyID   string
	relyingPartyName string
	extraDevHosts    []string
}

// Option configures the provider returned by NewProvider.
type Option func(*config)

// WithPromptTimeout overrides the bounded prompt timeout.
func WithPromptTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.promptTimeout = timeout
	}
}

// WithRelyingParty sets the relying party identity used for browser
// credential operations.
func WithRelyingParty(id, name string) Option {
	return func(c *config) {
		c.relyingPartyID = id
		c.relyingPartyName = name
	}
}

// WithDevHosts extends the plain-http origin allow-list for local development.
func WithDevHosts(hosts ...string) Option {
	return func(c *config) {
		c.extraDevHosts = append(c.extraDevHosts, hosts...)
	}
}

// NewProvider selects the capability provider variant for the environment:
// native bridge if one is injected, browser platform authenticator if the
// credential API exists, otherwise a provider that reports no support.
// Selection happens once; adding a platform family means adding a variant.
func NewProvider(env Environment, opts ...Option) Provider {
	cfg := config{
		promptTimeout:    DefaultPromptTimeout,
		relyingPartyID:   "localhost",
		relyingPartyName: "Device Trust",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case env.NativeBridge != nil:
		return &nativeProvider{env: env, cfg: cfg}
	case env.CredentialAPI != nil:
		return &browserProvider{env: env, cfg: cfg}
	default:
		return &UnsupportedProvider{platform: env.OSFamily()}
	}
}
