package credsync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const syncDataFile = "device_sync.json"

// FileRepository implements Repository using file-based storage
type FileRepository struct {
	dataDir     string
	credentials map[string]*DeviceCredential // Key: fingerprint
	memories    map[string]*DeviceMemory     // Key: fingerprint
	mutex       sync.RWMutex
}

// syncData represents the structure of data stored in the JSON file
type syncData struct {
	Credentials []*DeviceCredential `json:"credentials"`
	Memories    []*DeviceMemory     `json:"memories"`
}

// NewFileRepository creates a new file-based credential sync repository
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir:     dataDir,
		credentials: make(map[string]*DeviceCredential),
		memories:    make(map[string]*DeviceMemory),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// UpsertCredential creates or replaces the credential row for a fingerprint
func (r *FileRepository) UpsertCredential(ctx context.Context, credential DeviceCredential) (DeviceCredential, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	if existing, exists := r.credentials[credential.DeviceFingerprint]; exists {
		credential.CreatedAt = existing.CreatedAt
	} else {
		credential.CreatedAt = now
	}
	credential.UpdatedAt = now

	previous := r.credentials[credential.DeviceFingerprint]
	credentialCopy := credential
	r.credentials[credential.DeviceFingerprint] = &credentialCopy

	if err := r.save(); err != nil {
		if previous != nil {
			r.credentials[credential.DeviceFingerprint] = previous
		} else {
			delete(r.credentials, credential.DeviceFingerprint)
		}
		return DeviceCredential{}, fmt.Errorf("failed to save: %w", err)
	}

	return credential, nil
}

// GetCredentialByFingerprint retrieves the credential row for a fingerprint
func (r *FileRepository) GetCredentialByFingerprint(ctx context.Context, fingerprint string) (DeviceCredential, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	credential, exists := r.credentials[fingerprint]
	if !exists {
		return DeviceCredential{}, ErrNotFound
	}

	return *credential, nil
}

// UpsertMemory creates or replaces the memory row for a fingerprint
func (r *FileRepository) UpsertMemory(ctx context.Context, memory DeviceMemory) (DeviceMemory, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	if existing, exists := r.memories[memory.DeviceFingerprint]; exists {
		memory.CreatedAt = existing.CreatedAt
	} else {
		memory.CreatedAt = now
	}
	memory.UpdatedAt = now

	previous := r.memories[memory.DeviceFingerprint]
	memoryCopy := memory
	r.memories[memory.DeviceFingerprint] = &memoryCopy

	if err := r.save(); err != nil {
		if previous != nil {
			r.memories[memory.DeviceFingerprint] = previous
		} else {
			delete(r.memories, memory.DeviceFingerprint)
		}
		return DeviceMemory{}, fmt.Errorf("failed to save: %w", err)
	}

	return memory, nil
}

// GetMemoryByFingerprint retrieves the memory row for a fingerprint
func (r *FileRepository) GetMemoryByFingerprint(ctx context.Context, fingerprint string) (DeviceMemory, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	memory, exists := r.memories[fingerprint]
	if !exists {
		return DeviceMemory{}, ErrNotFound
	}

	return *memory, nil
}

// FindMemories returns all device memory rows
func (r *FileRepository) FindMemories(ctx context.Context) ([]DeviceMemory, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	memories := make([]DeviceMemory, 0, len(r.memories))
	for _, memory := range r.memories {
		memories = append(memories, *memory)
	}

	return memories, nil
}

// DeleteDeviceData removes the credential and memory rows for a fingerprint
func (r *FileRepository) DeleteDeviceData(ctx context.Context, fingerprint string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	previousCredential, hasCredential := r.credentials[fingerprint]
	previousMemory, hasMemory := r.memories[fingerprint]
	if !hasCredential && !hasMemory {
		return ErrNotFound
	}

	delete(r.credentials, fingerprint)
	delete(r.memories, fingerprint)

	if err := r.save(); err != nil {
		if hasCredential {
			r.credentials[fingerprint] = previousCredential
		}
		if hasMemory {
			r.memories[fingerprint] = previousMemory
		}
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// WithTx returns the repository itself since file implementation doesn't support transactions
func (r *FileRepository) WithTx(tx interface{}) Repository {
	return r
}

// load reads the data file into memory. A missing file means an empty store.
func (r *FileRepository) load() error {
	filePath := filepath.Join(r.dataDir, syncDataFile)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	var stored syncData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse data file: %w", err)
	}

	for _, credential := range stored.Credentials {
		r.credentials[credential.DeviceFingerprint] = credential
	}
	for _, memory := range stored.Memories {
		r.memories[memory.DeviceFingerprint] = memory
	}

	return nil
}

// save writes the in-memory state to the data file
func (r *FileRepository) save() error {
	stored := syncData{
		Credentials: make([]*DeviceCredential, 0, len(r.credentials)),
		Memories:    make([]*DeviceMemory, 0, len(r.memories)),
	}
	for _, credential := range r.credentials {
		stored.Credentials = append(stored.Credentials, credential)
	}
	for _, memory := range r.memories {
		stored.Memories = append(stored.Memories, memory)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	filePath := filepath.Join(r.dataDir, syncDataFile)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write data file: %w", err)
	}

	return nil
}
