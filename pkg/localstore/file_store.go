package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const storeFileName = "local_store.json"

// FileStore implements Store using a single JSON file under a data directory.
type FileStore struct {
	dataDir string
	values  map[string][]byte
	mutex   sync.RWMutex
}

// storeData represents the structure of data stored in the JSON file.
type storeData struct {
	Version int               `json:"version"`
	Values  map[string][]byte `json:"values"`
}

// NewFileStore creates a new file-based store rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &FileStore{
		dataDir: dataDir,
		values:  make(map[string][]byte),
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return store, nil
}

// Get retrieves the value for a key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.values[key]
	if !exists {
		return nil, ErrNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores a value under a key, overwriting any existing value.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, hadPrevious := s.values[key]
	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored

	if err := s.save(); err != nil {
		if hadPrevious {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return fmt.Errorf("failed to save: %w", err)
	}

	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.values[key]; !exists {
		return nil
	}

	delete(s.values, key)
	if err := s.save(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// Keys returns all keys currently in the store.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *FileStore) filePath() string {
	return filepath.Join(s.dataDir, storeFileName)
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.filePath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		// Corrupt file: treat as empty and self-heal on next save.
		s.values = make(map[string][]byte)
		return nil
	}

	if stored.Version != SchemaVersion {
		// Unknown layout: treat as empty rather than misreading it.
		s.values = make(map[string][]byte)
		return nil
	}

	if stored.Values != nil {
		s.values = stored.Values
	}
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(storeData{Version: SchemaVersion, Values: s.values}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath(), data, 0600)
}
