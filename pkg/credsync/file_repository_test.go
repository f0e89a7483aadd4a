package credsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRepository_PersistsAcrossInstances(t *testing.T) {
	dataDir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepository(dataDir)
	require.NoError(t, err)

	_, err = repo.UpsertCredential(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1",
		Username:          "jdoe",
		EncryptedPassword: "ZW52ZWxvcGU=",
	})
	require.NoError(t, err)
	_, err = repo.UpsertMemory(ctx, DeviceMemory{
		DeviceFingerprint:    "fp-1",
		HasStoredCredentials: true,
	})
	require.NoError(t, err)

	// A fresh instance over the same directory sees the same rows.
	reopened, err := NewFileRepository(dataDir)
	require.NoError(t, err)

	credential, err := reopened.GetCredentialByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", credential.Username)

	memory, err := reopened.GetMemoryByFingerprint(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, memory.HasStoredCredentials)
}

func TestFileRepository_DeleteDeviceData(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.UpsertCredential(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1", Username: "jdoe", EncryptedPassword: "a",
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDeviceData(ctx, "fp-1"))

	_, err = repo.GetCredentialByFingerprint(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.DeleteDeviceData(ctx, "fp-1"), ErrNotFound)
}

func TestFileRepository_UnknownFingerprint(t *testing.T) {
	repo, err := NewFileRepository(t.TempDir())
	require.NoError(t, err)

	_, err = repo.GetCredentialByFingerprint(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetMemoryByFingerprint(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
