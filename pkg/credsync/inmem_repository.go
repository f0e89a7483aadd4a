package credsync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InMemRepository implements Repository using in-memory maps
type InMemRepository struct {
	credentials map[string]DeviceCredential
	memories    map[string]DeviceMemory
	mu          sync.Mutex
}

// NewInMemRepository creates a new in-memory credential sync repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		credentials: make(map[string]DeviceCredential),
		memories:    make(map[string]DeviceMemory),
	}
}

// UpsertCredential creates or replaces the credential row for a fingerprint
func (r *InMemRepository) UpsertCredential(ctx context.Context, credential DeviceCredential) (DeviceCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, exists := r.credentials[credential.DeviceFingerprint]; exists {
		credential.CreatedAt = existing.CreatedAt
	} else {
		credential.CreatedAt = now
	}
	credential.UpdatedAt = now

	r.credentials[credential.DeviceFingerprint] = credential
	slog.Debug("Credential upserted", "fingerprint", credential.DeviceFingerprint)
	return credential, nil
}

// GetCredentialByFingerprint retrieves the credential row for a fingerprint
func (r *InMemRepository) GetCredentialByFingerprint(ctx context.Context, fingerprint string) (DeviceCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	credential, exists := r.credentials[fingerprint]
	if !exists {
		slog.Debug("Credential not found", "fingerprint", fingerprint)
		return DeviceCredential{}, ErrNotFound
	}

	slog.Debug("Credential found", "fingerprint", fingerprint)
	return credential, nil
}

// UpsertMemory creates or replaces the memory row for a fingerprint
func (r *InMemRepository) UpsertMemory(ctx context.Context, memory DeviceMemory) (DeviceMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, exists := r.memories[memory.DeviceFingerprint]; exists {
		memory.CreatedAt = existing.CreatedAt
	} else {
		memory.CreatedAt = now
	}
	memory.UpdatedAt = now

	r.memories[memory.DeviceFingerprint] = memory
	slog.Debug("Device memory upserted", "fingerprint", memory.DeviceFingerprint)
	return memory, nil
}

// GetMemoryByFingerprint retrieves the memory row for a fingerprint
func (r *InMemRepository) GetMemoryByFingerprint(ctx context.Context, fingerprint string) (DeviceMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memory, exists := r.memories[fingerprint]
	if !exists {
		slog.Debug("Device memory not found", "fingerprint", fingerprint)
		return DeviceMemory{}, ErrNotFound
	}

	return memory, nil
}

// FindMemories returns all device memory rows
func (r *InMemRepository) FindMemories(ctx context.Context) ([]DeviceMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memories := make([]DeviceMemory, 0, len(r.memories))
	for _, memory := range r.memories {
		memories = append(memories, memory)
	}

	slog.Debug("Found all device memories", "memoryCount", len(memories))
	return memories, nil
}

// DeleteDeviceData removes the credential and memory rows for a fingerprint
func (r *InMemRepository) DeleteDeviceData(ctx context.Context, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, hasCredential := r.credentials[fingerprint]
	_, hasMemory := r.memories[fingerprint]
	if !hasCredential && !hasMemory {
		slog.Debug("No device data to delete", "fingerprint", fingerprint)
		return ErrNotFound
	}

	delete(r.credentials, fingerprint)
	delete(r.memories, fingerprint)
	slog.Debug("Device data deleted", "fingerprint", fingerprint)
	return nil
}

// WithTx returns the repository itself since in-memory implementation doesn't support transactions
func (r *InMemRepository) WithTx(tx interface{}) Repository {
	return r
}
