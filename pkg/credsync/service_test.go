package credsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SaveAndGetCredentials(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	saved, err := service.SaveCredentials(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1",
		Username:          "jdoe",
		EncryptedPassword: "ZW52ZWxvcGU=",
		DeviceName:        "iPhone",
	})
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.IsZero())

	credential, err := service.GetCredentials(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", credential.Username)
	assert.Equal(t, "ZW52ZWxvcGU=", credential.EncryptedPassword)

	// Saving credentials marks the memory row.
	memory, err := service.GetDeviceMemory(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, memory.HasStoredCredentials)
	assert.Equal(t, "iPhone", memory.DeviceName)
}

func TestService_SaveCredentialsValidation(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	_, err := service.SaveCredentials(ctx, DeviceCredential{Username: "jdoe", EncryptedPassword: "x"})
	assert.Error(t, err)

	_, err = service.SaveCredentials(ctx, DeviceCredential{DeviceFingerprint: "fp-1"})
	assert.Error(t, err)
}

func TestService_GetCredentialsUnknownFingerprint(t *testing.T) {
	service := NewService(NewInMemRepository())

	_, err := service.GetCredentials(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpsertCredentialKeepsCreatedAt(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	first, err := service.SaveCredentials(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1", Username: "jdoe", EncryptedPassword: "a",
	})
	require.NoError(t, err)

	second, err := service.SaveCredentials(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1", Username: "jdoe", EncryptedPassword: "b",
	})
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	credential, err := service.GetCredentials(ctx, "fp-1")
	require.NoError(t, err)
	assert.Equal(t, "b", credential.EncryptedPassword)
}

func TestService_UpdateStatusAndGetDeviceMemory(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	_, err := service.UpdateStatus(ctx, DeviceMemory{
		DeviceFingerprint: "fp-1",
		DeviceName:        "Android Device",
		HasBiometricData:  true,
	})
	require.NoError(t, err)

	memory, err := service.GetDeviceMemory(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, memory.HasBiometricData)
	assert.False(t, memory.HasStoredCredentials)
	assert.Equal(t, "Android Device", memory.DeviceName)

	_, err = service.GetDeviceMemory(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ClearDeviceData(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	_, err := service.SaveCredentials(ctx, DeviceCredential{
		DeviceFingerprint: "fp-1", Username: "jdoe", EncryptedPassword: "a",
	})
	require.NoError(t, err)

	require.NoError(t, service.ClearDeviceData(ctx, "fp-1"))

	_, err = service.GetCredentials(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = service.GetDeviceMemory(ctx, "fp-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing again reports not found; the end state is unchanged.
	assert.ErrorIs(t, service.ClearDeviceData(ctx, "fp-1"), ErrNotFound)
}

func TestService_FindDeviceMemories(t *testing.T) {
	service := NewService(NewInMemRepository())
	ctx := context.Background()

	memories, err := service.FindDeviceMemories(ctx)
	require.NoError(t, err)
	assert.Empty(t, memories)

	_, err = service.UpdateStatus(ctx, DeviceMemory{DeviceFingerprint: "fp-1"})
	require.NoError(t, err)
	_, err = service.UpdateStatus(ctx, DeviceMemory{DeviceFingerprint: "fp-2"})
	require.NoError(t, err)

	memories, err = service.FindDeviceMemories(ctx)
	require.NoError(t, err)
	assert.Len(t, memories, 2)
}
