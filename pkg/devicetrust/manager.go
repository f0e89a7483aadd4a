package devicetrust

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldops/device-trust/pkg/biometric"
	"github.com/fieldops/device-trust/pkg/fingerprint"
	"github.com/fieldops/device-trust/pkg/localstore"
	"github.com/fieldops/device-trust/pkg/vault"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"
)

// ErrNoStoredCredentials means neither the remote sync store nor the local
// record holds a usable credential pair.
var ErrNoStoredCredentials = errors.New("no stored credentials")

// Manager owns the device record and the biometric credential list, and
// mediates between local persistence, the vault, and the remote sync store.
// Local state is the durable source of truth for the current device; remote
// is only a recovery aid when local storage has been cleared.
type Manager struct {
	store    localstore.Store
	vault    *vault.Service
	provider biometric.Provider
	sync     SyncClient // nil means no remote mirroring

	deviceFingerprint string
	deviceName        string
	lifetime          time.Duration

	reload        func() // terminal hook after full teardown
	sanitizeForms func() // in-DOM autofill cleanup hook
}

// Option configures a Manager.
type Option func(*Manager)

// WithSyncClient enables remote credential mirroring.
func WithSyncClient(sync SyncClient) Option {
	return func(m *Manager) {
		m.sync = sync
	}
}

// WithRecordLifetime overrides the 30-day device record lifetime.
func WithRecordLifetime(lifetime time.Duration) Option {
	return func(m *Manager) {
		m.lifetime = lifetime
	}
}

// WithReloadHook sets the hook invoked after ClearAllDeviceData so no stale
// in-memory state survives.
func WithReloadHook(reload func()) Option {
	return func(m *Manager) {
		m.reload = reload
	}
}

// WithFormSanitizer sets the hook that clears in-DOM form autofill state
// during teardown.
func WithFormSanitizer(sanitize func()) Option {
	return func(m *Manager) {
		m.sanitizeForms = sanitize
	}
}

// NewManager creates a device trust manager. The fingerprint and device name
// are derived once from the given signals.
func NewManager(store localstore.Store, vaultService *vault.Service, provider biometric.Provider, signals fingerprint.Signals, opts ...Option) *Manager {
	manager := &Manager{
		store:             store,
		vault:             vaultService,
		provider:          provider,
		deviceFingerprint: fingerprint.Generate(signals),
		deviceName:        fingerprint.DeviceName(signals),
		lifetime:          DefaultRecordLifetime,
	}
	for _, opt := range opts {
		opt(manager)
	}
	return manager
}

// Fingerprint returns the derived device fingerprint.
func (m *Manager) Fingerprint() string {
	return m.deviceFingerprint
}

// DeviceName returns the human-readable device label.
func (m *Manager) DeviceName() string {
	return m.deviceName
}

// GetRecord returns the device record, or nil when none exists. An expired or
// unreadable record is purged from storage and reported as nil.
func (m *Manager) GetRecord(ctx context.Context) (*DeviceRecord, error) {
	data, err := m.store.Get(ctx, recordKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read device record: %w", err)
	}

	var record DeviceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		slog.Warn("Corrupt device record, deleting", "error", err)
		m.purgeRecord(ctx)
		return nil, nil
	}

	if record.Version != localstore.SchemaVersion {
		slog.Warn("Device record schema mismatch, deleting", "version", record.Version)
		m.purgeRecord(ctx)
		return nil, nil
	}

	if record.IsExpired() {
		slog.Info("Device record expired, purging", "deviceId", record.DeviceID,
			"expiresAt", record.ExpiresAt.Format(time.RFC3339))
		m.purgeRecord(ctx)
		return nil, nil
	}

	return &record, nil
}

// IsRemembered reports whether a non-expired record with the remembered flag
// exists.
func (m *Manager) IsRemembered(ctx context.Context) bool {
	record, err := m.GetRecord(ctx)
	if err != nil {
		slog.Debug("Failed to read device record", "error", err)
		return false
	}
	return record != nil && record.IsRemembered
}

// ShouldPromptToRemember is true exactly when auto-login would otherwise be
// unavailable: no record, record not remembered, or record expired.
func (m *Manager) ShouldPromptToRemember(ctx context.Context) bool {
	record, err := m.GetRecord(ctx)
	if err != nil {
		return true
	}
	return record == nil || !record.IsRemembered
}

// Remember creates or overwrites the device record with a fresh expiry. When
// a secret is given it is stored through the vault and best-effort mirrored
// to the remote sync store; a remote failure never fails the local remember.
func (m *Manager) Remember(ctx context.Context, username, secret string) (*DeviceRecord, error) {
	existing, err := m.GetRecord(ctx)
	if err != nil {
		slog.Debug("Failed to read existing record, creating fresh", "error", err)
	}

	now := time.Now().UTC()
	record := DeviceRecord{
		Version:      localstore.SchemaVersion,
		DeviceID:     uuid.New().String(),
		DeviceName:   m.deviceName,
		Fingerprint:  m.deviceFingerprint,
		Username:     username,
		IsRemembered: true,
		CreatedAt:    now,
		LastUsedAt:   now,
		ExpiresAt:    now.Add(m.lifetime),
	}
	if existing != nil {
		record.DeviceID = existing.DeviceID
		record.CreatedAt = existing.CreatedAt
	}

	if secret != "" {
		if err := m.vault.Store(ctx, secretVaultKey, secret, vault.StoreOptions{}); err != nil {
			return nil, fmt.Errorf("failed to store secret: %w", err)
		}
		record.EncryptedSecretKey = secretVaultKey
	}

	if err := m.saveRecord(ctx, record); err != nil {
		return nil, err
	}

	slog.Info("Device remembered", "deviceId", record.DeviceID, "username", username,
		"expiresAt", record.ExpiresAt.Format(time.RFC3339))

	if secret != "" {
		m.mirrorCredentials(ctx, username)
	}
	m.mirrorStatus(ctx)

	return &record, nil
}

// StoredCredentials recovers the saved credential pair: remote sync store
// first (keyed by the current fingerprint), local record plus vault second.
func (m *Manager) StoredCredentials(ctx context.Context) (*Credentials, error) {
	if m.sync != nil {
		remote, err := m.sync.FetchCredentials(ctx, m.deviceFingerprint)
		if err == nil && remote.Username != "" && remote.EncryptedPassword != "" {
			envelope, decodeErr := base64.StdEncoding.DecodeString(remote.EncryptedPassword)
			if decodeErr == nil {
				password, openErr := m.vault.Open(ctx, envelope)
				if openErr == nil {
					slog.Debug("Stored credentials recovered from remote", "username", remote.Username)
					return &Credentials{Username: remote.Username, Password: password}, nil
				}
				slog.Debug("Remote envelope unusable, falling back to local", "error", openErr)
			}
		} else if err != nil && !errors.Is(err, ErrRemoteNotFound) {
			slog.Debug("Remote credential fetch failed, falling back to local", "error", err)
		}
	}

	record, err := m.GetRecord(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Username == "" || record.EncryptedSecretKey == "" {
		return nil, ErrNoStoredCredentials
	}

	password, err := m.vault.Retrieve(ctx, record.EncryptedSecretKey)
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) || errors.Is(err, vault.ErrCryptoFailed) {
			// A failed decryption is indistinguishable from absence by design.
			return nil, ErrNoStoredCredentials
		}
		return nil, fmt.Errorf("failed to retrieve secret: %w", err)
	}

	return &Credentials{Username: record.Username, Password: password}, nil
}

// HasStoredCredentials reports whether StoredCredentials could succeed,
// checking local state first and the remote store only when local is empty.
func (m *Manager) HasStoredCredentials(ctx context.Context) bool {
	record, err := m.GetRecord(ctx)
	if err == nil && record != nil && record.Username != "" && record.EncryptedSecretKey != "" {
		return true
	}

	if m.sync != nil {
		remote, err := m.sync.FetchCredentials(ctx, m.deviceFingerprint)
		if err == nil && remote.Username != "" && remote.EncryptedPassword != "" {
			return true
		}
	}
	return false
}

// Forget deletes the local record only. The remote mirror and biometric
// credentials survive; used for low-stakes "use different account" flows.
func (m *Manager) Forget(ctx context.Context) error {
	if err := m.store.Delete(ctx, recordKey); err != nil {
		return fmt.Errorf("failed to delete device record: %w", err)
	}
	slog.Info("Device record forgotten")
	m.mirrorStatus(ctx)
	return nil
}

// RegisterBiometric registers a platform credential for username and stores
// it keyed to this device. Requires current capability support; the error is
// surfaced because enabling biometrics is an explicit user action.
func (m *Manager) RegisterBiometric(ctx context.Context, username string) (*BiometricCredential, error) {
	capability := m.provider.Detect(ctx)
	if !capability.Supported {
		return nil, biometric.ErrUnsupported
	}

	registered, err := m.provider.Register(ctx, username, m.deviceName)
	if err != nil {
		return nil, fmt.Errorf("biometric registration failed: %w", err)
	}

	record, err := m.GetRecord(ctx)
	if err != nil {
		return nil, err
	}
	deviceID := ""
	if record != nil {
		deviceID = record.DeviceID
	}

	credential := BiometricCredential{
		CredentialID: registered.CredentialID,
		PublicKey:    registered.PublicKey,
		DeviceID:     deviceID,
		Username:     username,
		Platform:     registered.Platform,
		CreatedAt:    registered.CreatedAt,
	}

	credentials := m.loadCredentials(ctx)
	replaced := false
	for i, existing := range credentials {
		if string(existing.CredentialID) == string(credential.CredentialID) {
			credentials[i] = credential
			replaced = true
			break
		}
	}
	if !replaced {
		credentials = append(credentials, credential)
	}

	if err := m.saveCredentials(ctx, credentials); err != nil {
		return nil, err
	}

	slog.Info("Biometric credential registered", "username", username, "platform", credential.Platform)
	m.mirrorStatus(ctx)

	return &credential, nil
}

// BiometricCredentials returns the credentials usable on this platform right
// now. Credentials registered on a different platform family, or any
// credential while the provider reports no support, are never presented as
// authenticators.
func (m *Manager) BiometricCredentials(ctx context.Context) []BiometricCredential {
	capability := m.provider.Detect(ctx)
	if !capability.Supported {
		return nil
	}

	var usable []BiometricCredential
	for _, credential := range m.loadCredentials(ctx) {
		if credential.Platform == capability.Platform {
			usable = append(usable, credential)
		}
	}
	return usable
}

// AuthenticateBiometric runs a platform assertion against the device's
// registered credentials and returns the asserted credential.
func (m *Manager) AuthenticateBiometric(ctx context.Context) (*BiometricCredential, error) {
	usable := m.BiometricCredentials(ctx)
	if len(usable) == 0 {
		return nil, biometric.ErrNoCredential
	}

	var allow protocol.URLEncodedBase64
	if len(usable) == 1 {
		allow = usable[0].CredentialID
	}

	asserted, err := m.provider.Authenticate(ctx, allow)
	if err != nil {
		return nil, err
	}

	for i := range usable {
		if string(usable[i].CredentialID) == string(asserted.CredentialID) {
			if asserted.Username != "" {
				usable[i].Username = asserted.Username
			}
			return &usable[i], nil
		}
	}

	// The platform asserted a credential this device no longer tracks.
	return nil, biometric.ErrNoCredential
}

func (m *Manager) saveRecord(ctx context.Context, record DeviceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal device record: %w", err)
	}
	if err := m.store.Set(ctx, recordKey, data); err != nil {
		return fmt.Errorf("failed to save device record: %w", err)
	}
	return nil
}

func (m *Manager) purgeRecord(ctx context.Context) {
	if err := m.store.Delete(ctx, recordKey); err != nil {
		slog.Debug("Failed to purge device record", "error", err)
	}
	if err := m.vault.Remove(ctx, secretVaultKey); err != nil {
		slog.Debug("Failed to remove vaulted secret", "error", err)
	}
}

func (m *Manager) loadCredentials(ctx context.Context) []BiometricCredential {
	data, err := m.store.Get(ctx, credentialListKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Debug("Failed to read biometric credentials", "error", err)
		return nil
	}

	var list credentialList
	if err := json.Unmarshal(data, &list); err != nil || list.Version != localstore.SchemaVersion {
		slog.Warn("Corrupt biometric credential list, deleting", "error", err)
		if delErr := m.store.Delete(ctx, credentialListKey); delErr != nil {
			slog.Debug("Failed to delete corrupt credential list", "error", delErr)
		}
		return nil
	}
	return list.Credentials
}

func (m *Manager) saveCredentials(ctx context.Context, credentials []BiometricCredential) error {
	data, err := json.Marshal(credentialList{
		Version:     localstore.SchemaVersion,
		Credentials: credentials,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credential list: %w", err)
	}
	if err := m.store.Set(ctx, credentialListKey, data); err != nil {
		return fmt.Errorf("failed to save credential list: %w", err)
	}
	return nil
}

// mirrorCredentials pushes the exported secret envelope to the sync store.
// Best-effort: failures are logged, never surfaced.
func (m *Manager) mirrorCredentials(ctx context.Context, username string) {
	if m.sync == nil {
		return
	}

	envelope, err := m.vault.Export(ctx, secretVaultKey)
	if err != nil {
		if errors.Is(err, vault.ErrNotExportable) {
			slog.Debug("Secret held in secure store, skipping remote mirror")
		} else {
			slog.Debug("Failed to export secret for mirroring", "error", err)
		}
		return
	}

	err = m.sync.UpsertCredentials(ctx, RemoteCredentials{
		Username:          username,
		EncryptedPassword: base64.StdEncoding.EncodeToString(envelope),
		DeviceFingerprint: m.deviceFingerprint,
		DeviceName:        m.deviceName,
	})
	if err != nil {
		slog.Debug("Remote credential mirror failed", "error", err)
	}
}

// mirrorStatus pushes the current trust-signal flags. Best-effort.
func (m *Manager) mirrorStatus(ctx context.Context) {
	if m.sync == nil {
		return
	}

	record, _ := m.GetRecord(ctx)
	hasStored := record != nil && record.Username != "" && record.EncryptedSecretKey != ""
	hasBiometric := len(m.loadCredentials(ctx)) > 0

	err := m.sync.UpdateStatus(ctx, StatusUpdate{
		DeviceFingerprint:    m.deviceFingerprint,
		HasStoredCredentials: hasStored,
		HasBiometricData:     hasBiometric,
		DeviceName:           m.deviceName,
	})
	if err != nil {
		slog.Debug("Remote status mirror failed", "error", err)
	}
}

func isSessionKey(key string) bool {
	return strings.HasPrefix(key, sessionKeyPrefix)
}
