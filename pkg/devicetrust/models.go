package devicetrust

import (
	"time"

	"github.com/fieldops/device-trust/pkg/biometric"
	"github.com/go-webauthn/webauthn/protocol"
)

// Local storage keys. The vault adds its own "secure_" prefixed keys.
const (
	recordKey         = "device_record"
	credentialListKey = "biometric_credentials"
	// secretVaultKey is the vault key the device secret is stored under;
	// DeviceRecord.EncryptedSecretKey references it.
	secretVaultKey = "device_credentials"
	// sessionKeyPrefix marks session-scoped cache entries cleared on teardown.
	sessionKeyPrefix = "session_"
)

// DefaultRecordLifetime is how long a remembered device stays trusted before
// the record is treated as absent.
const DefaultRecordLifetime = 30 * 24 * time.Hour

// DeviceRecord is the persisted decision to skip manual login on this device
// for a bounded period. One record exists per installation.
type DeviceRecord struct {
	Version     int       `json:"version"`
	DeviceID    string    `json:"device_id"`
	DeviceName  string    `json:"device_name"`
	Fingerprint string    `json:"fingerprint"`
	Username    string    `json:"username,omitempty"`
	// EncryptedSecretKey names the vault entry holding the secret; it is only
	// meaningful when Username is set.
	EncryptedSecretKey string    `json:"encrypted_secret_key,omitempty"`
	IsRemembered       bool      `json:"is_remembered"`
	CreatedAt          time.Time `json:"created_at"`
	LastUsedAt         time.Time `json:"last_used_at"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// IsExpired checks if the device record has expired. An expired record is
// logically absent: every read path treats it as deleted and purges it.
func (r *DeviceRecord) IsExpired() bool {
	return time.Now().UTC().After(r.ExpiresAt)
}

// BiometricCredential is a platform credential registered on this device.
type BiometricCredential struct {
	CredentialID protocol.URLEncodedBase64 `json:"credential_id"`
	PublicKey    []byte                    `json:"public_key,omitempty"`
	DeviceID     string                    `json:"device_id"`
	Username     string                    `json:"username"`
	Platform     biometric.Platform        `json:"platform"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// credentialList is the persisted form of the biometric credential list.
type credentialList struct {
	Version     int                   `json:"version"`
	Credentials []BiometricCredential `json:"credentials"`
}

// Credentials is a recovered username/password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
