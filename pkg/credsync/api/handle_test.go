package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldops/device-trust/pkg/credsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := credsync.NewService(credsync.NewInMemRepository())
	server := httptest.NewServer(Handler(NewSyncHandler(service)))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	response, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return response
}

func decodeJSON(t *testing.T, response *http.Response, out interface{}) {
	t.Helper()
	defer response.Body.Close()
	require.NoError(t, json.NewDecoder(response.Body).Decode(out))
}

func TestSaveAndGetCredentials(t *testing.T) {
	server := newTestServer(t)

	response := postJSON(t, server.URL+"/device-credentials", SaveCredentialsRequest{
		Username:          "jdoe",
		EncryptedPassword: "ZW52ZWxvcGU=",
		DeviceFingerprint: "fp-1",
		DeviceName:        "iPhone",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	var saved SuccessResponse
	decodeJSON(t, response, &saved)
	assert.True(t, saved.Success)

	response, err := http.Get(server.URL + "/device-credentials?deviceFingerprint=fp-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var fetched GetCredentialsResponse
	decodeJSON(t, response, &fetched)
	assert.True(t, fetched.Success)
	assert.Equal(t, "jdoe", fetched.Username)
	assert.Equal(t, "ZW52ZWxvcGU=", fetched.EncryptedPassword)
}

func TestGetCredentials_UnknownFingerprintIsSuccessFalse(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/device-credentials?deviceFingerprint=unknown")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var fetched GetCredentialsResponse
	decodeJSON(t, response, &fetched)
	assert.False(t, fetched.Success)
	assert.Empty(t, fetched.Username)
}

func TestGetCredentials_MissingFingerprintIsBadRequest(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/device-credentials")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestUpdateStatusAndGetDeviceMemory(t *testing.T) {
	server := newTestServer(t)

	body, err := json.Marshal(UpdateStatusRequest{
		DeviceFingerprint: "fp-1",
		HasBiometricData:  true,
		DeviceName:        "Android Device",
	})
	require.NoError(t, err)

	request, err := http.NewRequest(http.MethodPut, server.URL+"/device-memory/status", bytes.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	response, err = http.Get(server.URL + "/device-memory/fp-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var memory DeviceMemoryResponse
	decodeJSON(t, response, &memory)
	assert.Equal(t, "fp-1", memory.DeviceMemory.DeviceFingerprint)
	assert.True(t, memory.DeviceMemory.HasBiometricData)
	assert.False(t, memory.DeviceMemory.HasStoredCredentials)
	assert.Equal(t, "Android Device", memory.DeviceMemory.DeviceName)
}

func TestGetDeviceMemory_Unknown404(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Get(server.URL + "/device-memory/unknown")
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
}

func TestClearDeviceData(t *testing.T) {
	server := newTestServer(t)

	response := postJSON(t, server.URL+"/device-credentials", SaveCredentialsRequest{
		Username:          "jdoe",
		EncryptedPassword: "ZW52ZWxvcGU=",
		DeviceFingerprint: "fp-1",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	response = postJSON(t, server.URL+"/clear-device-data", ClearDeviceDataRequest{DeviceFingerprint: "fp-1"})
	require.Equal(t, http.StatusOK, response.StatusCode)
	var cleared SuccessResponse
	decodeJSON(t, response, &cleared)
	assert.True(t, cleared.Success)

	// Idempotent: clearing a device with no data still succeeds.
	response = postJSON(t, server.URL+"/clear-device-data", ClearDeviceDataRequest{DeviceFingerprint: "fp-1"})
	require.Equal(t, http.StatusOK, response.StatusCode)
	response.Body.Close()

	response, err := http.Get(server.URL + "/device-credentials?deviceFingerprint=fp-1")
	require.NoError(t, err)
	var fetched GetCredentialsResponse
	decodeJSON(t, response, &fetched)
	assert.False(t, fetched.Success)
}

func TestSaveCredentials_InvalidBody(t *testing.T) {
	server := newTestServer(t)

	response, err := http.Post(server.URL+"/device-credentials", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer response.Body.Close()
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
}

func TestAdminListDeviceMemories(t *testing.T) {
	service := credsync.NewService(credsync.NewInMemRepository())
	server := httptest.NewServer(AdminHandler(NewSyncHandler(service)))
	t.Cleanup(server.Close)

	_, err := service.UpdateStatus(context.Background(), credsync.DeviceMemory{DeviceFingerprint: "fp-1"})
	require.NoError(t, err)

	response, err := http.Get(server.URL + "/devices")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)

	var listed ListDeviceMemoriesResponse
	decodeJSON(t, response, &listed)
	require.Len(t, listed.Devices, 1)
	assert.Equal(t, "fp-1", listed.Devices[0].DeviceFingerprint)
}
