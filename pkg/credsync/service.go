package credsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Service handles the server side of device credential sync
type Service struct {
	repository Repository
}

// NewService creates a new credential sync service with the given repository
func NewService(repository Repository) *Service {
	return &Service{
		repository: repository,
	}
}

// SaveCredentials stores a device's encrypted credential mirror and marks the
// device memory accordingly.
func (s *Service) SaveCredentials(ctx context.Context, credential DeviceCredential) (DeviceCredential, error) {
	if credential.DeviceFingerprint == "" {
		return DeviceCredential{}, errors.New("device fingerprint is required")
	}
	if credential.Username == "" || credential.EncryptedPassword == "" {
		return DeviceCredential{}, errors.New("username and encrypted password are required")
	}

	saved, err := s.repository.UpsertCredential(ctx, credential)
	if err != nil {
		return DeviceCredential{}, fmt.Errorf("failed to save credentials: %w", err)
	}

	// Keep the memory row consistent with the credential row.
	memory, err := s.repository.GetMemoryByFingerprint(ctx, credential.DeviceFingerprint)
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Error("Failed to read device memory after credential save", "fingerprint", credential.DeviceFingerprint, "error", err)
	}
	memory.DeviceFingerprint = credential.DeviceFingerprint
	memory.HasStoredCredentials = true
	if credential.DeviceName != "" {
		memory.DeviceName = credential.DeviceName
	}
	if _, err := s.repository.UpsertMemory(ctx, memory); err != nil {
		slog.Error("Failed to update device memory after credential save", "fingerprint", credential.DeviceFingerprint, "error", err)
	}

	slog.Info("Device credentials saved", "fingerprint", credential.DeviceFingerprint, "username", credential.Username)
	return saved, nil
}

// GetCredentials returns the credential mirror for a fingerprint
func (s *Service) GetCredentials(ctx context.Context, fingerprint string) (DeviceCredential, error) {
	if fingerprint == "" {
		return DeviceCredential{}, errors.New("device fingerprint is required")
	}

	credential, err := s.repository.GetCredentialByFingerprint(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return DeviceCredential{}, ErrNotFound
	}
	if err != nil {
		return DeviceCredential{}, fmt.Errorf("failed to get credentials: %w", err)
	}
	return credential, nil
}

// UpdateStatus records which trust signals a device currently holds
func (s *Service) UpdateStatus(ctx context.Context, memory DeviceMemory) (DeviceMemory, error) {
	if memory.DeviceFingerprint == "" {
		return DeviceMemory{}, errors.New("device fingerprint is required")
	}

	updated, err := s.repository.UpsertMemory(ctx, memory)
	if err != nil {
		return DeviceMemory{}, fmt.Errorf("failed to update device status: %w", err)
	}

	slog.Debug("Device status updated", "fingerprint", memory.DeviceFingerprint,
		"hasStoredCredentials", memory.HasStoredCredentials,
		"hasBiometricData", memory.HasBiometricData)
	return updated, nil
}

// GetDeviceMemory returns the trust-signal view of a device
func (s *Service) GetDeviceMemory(ctx context.Context, fingerprint string) (DeviceMemory, error) {
	if fingerprint == "" {
		return DeviceMemory{}, errors.New("device fingerprint is required")
	}

	memory, err := s.repository.GetMemoryByFingerprint(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return DeviceMemory{}, ErrNotFound
	}
	if err != nil {
		return DeviceMemory{}, fmt.Errorf("failed to get device memory: %w", err)
	}
	return memory, nil
}

// FindDeviceMemories returns all known devices for the admin listing
func (s *Service) FindDeviceMemories(ctx context.Context) ([]DeviceMemory, error) {
	memories, err := s.repository.FindMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find device memories: %w", err)
	}
	return memories, nil
}

// ClearDeviceData removes every server-side trace of a device. Clearing an
// unknown device is reported as ErrNotFound; callers may treat it as success.
func (s *Service) ClearDeviceData(ctx context.Context, fingerprint string) error {
	if fingerprint == "" {
		return errors.New("device fingerprint is required")
	}

	err := s.repository.DeleteDeviceData(ctx, fingerprint)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to clear device data: %w", err)
	}

	slog.Info("Device data cleared", "fingerprint", fingerprint)
	return nil
}
