package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldops/device-trust/pkg/localstore"
)

var (
	// ErrNotFound is returned when no secret is stored under a key.
	ErrNotFound = errors.New("secret not found")
	// ErrCryptoFailed is returned when decryption fails closed (tampered
	// ciphertext, authentication tag mismatch). Callers treat it like an
	// absent secret; no partial plaintext is ever returned.
	ErrCryptoFailed = errors.New("decryption failed")
	// ErrNotExportable is returned when a secret lives in the platform secure
	// store and its material cannot cross back out as an envelope.
	ErrNotExportable = errors.New("secret not exportable")
)

// Tier identifies which storage strategy holds a secret.
type Tier string

const (
	// TierSecure delegates to hardware-backed platform secure storage.
	TierSecure Tier = "secure"
	// TierCrypto uses PBKDF2-derived AES-GCM with a fresh salt and nonce per write.
	TierCrypto Tier = "aes-gcm"
	// TierObfuscated is a reversible encoding only. It is not secure and is
	// written only when no crypto primitives are available.
	TierObfuscated Tier = "obfuscated"
)

const keyPrefix = "secure_"

// SecureStore is the bridge to hardware-backed platform secure storage
// (keychain/keystore in a native wrapper). Plaintext crosses into the bridge
// on store and back out only on a successful retrieve.
type SecureStore interface {
	Available(ctx context.Context) bool
	Store(ctx context.Context, key, plaintext string, requireUserAuth bool) error
	Retrieve(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// StoreOptions control how a secret is written.
type StoreOptions struct {
	// RequireBiometricGate asks the hardware tier to require user presence on
	// retrieval. Ignored by the software tiers.
	RequireBiometricGate bool
}

// envelope is the persisted form of a vault entry.
type envelope struct {
	Version   int    `json:"version"`
	Tier      Tier   `json:"tier"`
	Encrypted string `json:"encrypted,omitempty"`
	IV        string `json:"iv,omitempty"`
	Salt      string `json:"salt,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Service encrypts and persists small secrets with a tiered strategy:
// hardware secure store, then AES-GCM, then reversible obfuscation. The tier
// is probed on every call; a failing tier degrades to the next weaker one.
type Service struct {
	store      localstore.Store
	secure     SecureStore // nil when no hardware bridge exists
	passphrase string
}

// Option configures a Service.
type Option func(*Service)

// WithSecureStore injects the hardware-backed secure storage bridge.
func WithSecureStore(secure SecureStore) Option {
	return func(s *Service) {
		s.secure = secure
	}
}

// WithPassphrase overrides the application-level key derivation passphrase.
func WithPassphrase(passphrase string) Option {
	return func(s *Service) {
		s.passphrase = passphrase
	}
}

// NewService creates a vault service persisting to the given local store.
func NewService(store localstore.Store, opts ...Option) *Service {
	service := &Service{
		store:      store,
		passphrase: defaultPassphrase,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Store encrypts plaintext and persists it under key. Tier selection happens
// per call: hardware bridge first, AES-GCM second, obfuscation last. Only a
// failure of the final tier is returned as an error.
func (s *Service) Store(ctx context.Context, key, plaintext string, opts StoreOptions) error {
	if s.secure != nil && s.secure.Available(ctx) {
		if err := s.secure.Store(ctx, key, plaintext, opts.RequireBiometricGate); err == nil {
			return s.persist(ctx, key, envelope{
				Version:   localstore.SchemaVersion,
				Tier:      TierSecure,
				Timestamp: time.Now().UTC().Unix(),
			})
		} else {
			slog.Warn("Secure store write failed, degrading to software crypto", "key", key, "error", err)
		}
	}

	sealed, err := seal(s.passphrase, plaintext)
	if err == nil {
		sealed.Version = localstore.SchemaVersion
		sealed.Timestamp = time.Now().UTC().Unix()
		return s.persist(ctx, key, sealed)
	}
	slog.Warn("Software crypto write failed, degrading to obfuscation", "key", key, "error", err)

	return s.persist(ctx, key, envelope{
		Version:   localstore.SchemaVersion,
		Tier:      TierObfuscated,
		Encrypted: obfuscate(plaintext),
		Timestamp: time.Now().UTC().Unix(),
	})
}

// Retrieve decrypts and returns the secret stored under key. A missing key
// returns ErrNotFound; tampered ciphertext returns ErrCryptoFailed and never
// partial plaintext. Corrupt stored JSON self-heals: the key is deleted and
// ErrNotFound returned.
func (s *Service) Retrieve(ctx context.Context, key string) (string, error) {
	env, err := s.loadEnvelope(ctx, key)
	if err != nil {
		return "", err
	}

	switch env.Tier {
	case TierSecure:
		if s.secure == nil {
			return "", ErrNotFound
		}
		plaintext, err := s.secure.Retrieve(ctx, key)
		if err != nil {
			return "", fmt.Errorf("secure store retrieve: %w", ErrNotFound)
		}
		return plaintext, nil
	case TierCrypto:
		plaintext, err := open(s.passphrase, env)
		if err != nil {
			slog.Warn("Vault decryption failed closed", "key", key, "error", err)
			return "", ErrCryptoFailed
		}
		return plaintext, nil
	case TierObfuscated:
		plaintext, err := deobfuscate(env.Encrypted)
		if err != nil {
			return "", ErrCryptoFailed
		}
		return plaintext, nil
	default:
		return "", ErrCryptoFailed
	}
}

// Remove deletes the secret stored under key from every tier. Removing a
// missing key is not an error.
func (s *Service) Remove(ctx context.Context, key string) error {
	if s.secure != nil {
		if err := s.secure.Remove(ctx, key); err != nil {
			slog.Debug("Secure store remove failed", "key", key, "error", err)
		}
	}
	return s.store.Delete(ctx, keyPrefix+key)
}

// Export returns the raw persisted envelope for key, suitable for mirroring
// to the remote credential sync store. Hardware-tier secrets never leave the
// enclave and return ErrNotExportable.
func (s *Service) Export(ctx context.Context, key string) ([]byte, error) {
	env, err := s.loadEnvelope(ctx, key)
	if err != nil {
		return nil, err
	}
	if env.Tier == TierSecure {
		return nil, ErrNotExportable
	}
	return json.Marshal(env)
}

// Open decrypts an exported envelope, the counterpart of Export on the
// recovery path when the local store has been cleared.
func (s *Service) Open(ctx context.Context, data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", ErrCryptoFailed
	}

	switch env.Tier {
	case TierCrypto:
		plaintext, err := open(s.passphrase, env)
		if err != nil {
			return "", ErrCryptoFailed
		}
		return plaintext, nil
	case TierObfuscated:
		plaintext, err := deobfuscate(env.Encrypted)
		if err != nil {
			return "", ErrCryptoFailed
		}
		return plaintext, nil
	default:
		return "", ErrCryptoFailed
	}
}

func (s *Service) persist(ctx context.Context, key string, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return s.store.Set(ctx, keyPrefix+key, data)
}

func (s *Service) loadEnvelope(ctx context.Context, key string) (envelope, error) {
	data, err := s.store.Get(ctx, keyPrefix+key)
	if errors.Is(err, localstore.ErrNotFound) {
		return envelope{}, ErrNotFound
	}
	if err != nil {
		return envelope{}, fmt.Errorf("failed to read secret: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Malformed stored JSON: delete the corrupt key to self-heal.
		slog.Warn("Corrupt vault entry, deleting", "key", key, "error", err)
		if delErr := s.store.Delete(ctx, keyPrefix+key); delErr != nil {
			slog.Debug("Failed to delete corrupt vault entry", "key", key, "error", delErr)
		}
		return envelope{}, ErrNotFound
	}
	return env, nil
}
