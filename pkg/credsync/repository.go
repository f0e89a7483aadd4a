package credsync

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a device fingerprint.
var ErrNotFound = errors.New("device record not found")

// DeviceCredential is the server-side mirror of a device's encrypted
// credential pair. The password arrives already encrypted by the client
// vault; the server never sees plaintext.
type DeviceCredential struct {
	DeviceFingerprint string    `json:"device_fingerprint"`
	Username          string    `json:"username"`
	EncryptedPassword string    `json:"encrypted_password"`
	DeviceName        string    `json:"device_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DeviceMemory tracks which trust signals a device has reported, without any
// secret material.
type DeviceMemory struct {
	DeviceFingerprint    string    `json:"device_fingerprint"`
	DeviceName           string    `json:"device_name"`
	HasStoredCredentials bool      `json:"has_stored_credentials"`
	HasBiometricData     bool      `json:"has_biometric_data"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Repository defines the interface for credential sync storage operations
type Repository interface {
	UpsertCredential(ctx context.Context, credential DeviceCredential) (DeviceCredential, error)
	GetCredentialByFingerprint(ctx context.Context, fingerprint string) (DeviceCredential, error)

	UpsertMemory(ctx context.Context, memory DeviceMemory) (DeviceMemory, error)
	GetMemoryByFingerprint(ctx context.Context, fingerprint string) (DeviceMemory, error)
	FindMemories(ctx context.Context) ([]DeviceMemory, error)

	// DeleteDeviceData removes both the credential and the memory row.
	// Deleting an unknown fingerprint returns ErrNotFound.
	DeleteDeviceData(ctx context.Context, fingerprint string) error

	// Transaction support
	WithTx(tx interface{}) Repository
}
