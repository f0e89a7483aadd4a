package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemStore_RoundTrip(t *testing.T) {
	store := NewInMemStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "device_record", []byte(`{"a":1}`)))

	value, err := store.Get(ctx, "device_record")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, store.Delete(ctx, "device_record"))
	_, err = store.Get(ctx, "device_record")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemStore_GetReturnsCopy(t *testing.T) {
	store := NewInMemStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("abc")))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)

	value[0] = 'x'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestInMemStore_DeleteMissingKey(t *testing.T) {
	store := NewInMemStore()
	assert.NoError(t, store.Delete(context.Background(), "missing"))
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dataDir)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "secure_device_credentials", []byte("ciphertext")))
	require.NoError(t, store.Set(ctx, "biometric_credentials", []byte("[]")))

	reopened, err := NewFileStore(dataDir)
	require.NoError(t, err)

	value, err := reopened.Get(ctx, "secure_device_credentials")
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), value)

	keys, err := reopened.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"secure_device_credentials", "biometric_credentials"}, keys)
}

func TestFileStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, storeFileName), []byte("{not json"), 0600))

	store, err := NewFileStore(dataDir)
	require.NoError(t, err)

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStore_VersionMismatchTreatedAsEmpty(t *testing.T) {
	dataDir := t.TempDir()
	stale := []byte(`{"version":99,"values":{"k":"dg=="}}`)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, storeFileName), stale, 0600))

	store, err := NewFileStore(dataDir)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
