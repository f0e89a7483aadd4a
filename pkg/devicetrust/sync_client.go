package devicetrust

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

var (
	// ErrRemoteUnavailable means the credential sync endpoint could not be
	// reached or answered non-2xx. Callers degrade to local-only behavior.
	ErrRemoteUnavailable = errors.New("credential sync unavailable")
	// ErrRemoteNotFound means the sync store has no record for the fingerprint.
	ErrRemoteNotFound = errors.New("no remote record for fingerprint")
)

// RemoteCredentials is the secret-bearing mirror kept by the sync store,
// keyed by device fingerprint.
type RemoteCredentials struct {
	Username          string `json:"username"`
	EncryptedPassword string `json:"encryptedPassword"`
	DeviceFingerprint string `json:"deviceFingerprint"`
	DeviceName        string `json:"deviceName"`
}

// StatusUpdate mirrors which trust signals exist on this device.
type StatusUpdate struct {
	DeviceFingerprint    string `json:"deviceFingerprint"`
	HasStoredCredentials bool   `json:"hasStoredCredentials"`
	HasBiometricData     bool   `json:"hasBiometricData"`
	DeviceName           string `json:"deviceName"`
}

// DeviceMemory is the sync store's view of a device's trust state.
type DeviceMemory struct {
	DeviceFingerprint    string    `json:"deviceFingerprint"`
	DeviceName           string    `json:"deviceName"`
	HasStoredCredentials bool      `json:"hasStoredCredentials"`
	HasBiometricData     bool      `json:"hasBiometricData"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SyncClient is the remote credential sync contract. Every implementation is
// best-effort from the manager's point of view: failures surface as
// ErrRemoteUnavailable and never abort a local operation.
type SyncClient interface {
	UpsertCredentials(ctx context.Context, credentials RemoteCredentials) error
	FetchCredentials(ctx context.Context, deviceFingerprint string) (RemoteCredentials, error)
	UpdateStatus(ctx context.Context, status StatusUpdate) error
	FetchDeviceMemory(ctx context.Context, deviceFingerprint string) (DeviceMemory, error)
	ClearDeviceData(ctx context.Context, deviceFingerprint string) error
}

// HTTPSyncClient talks to the credential sync endpoints same-origin with
// cookies included.
type HTTPSyncClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSyncClient creates a sync client for the given base URL.
func NewHTTPSyncClient(baseURL string) (*HTTPSyncClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &HTTPSyncClient{
		baseURL: baseURL,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

func (c *HTTPSyncClient) UpsertCredentials(ctx context.Context, credentials RemoteCredentials) error {
	return c.send(ctx, http.MethodPost, "/auth/device-credentials", credentials, nil)
}

func (c *HTTPSyncClient) FetchCredentials(ctx context.Context, deviceFingerprint string) (RemoteCredentials, error) {
	var response struct {
		Success           bool   `json:"success"`
		Username          string `json:"username"`
		EncryptedPassword string `json:"encryptedPassword"`
	}

	path := "/auth/device-credentials?deviceFingerprint=" + url.QueryEscape(deviceFingerprint)
	if err := c.send(ctx, http.MethodGet, path, nil, &response); err != nil {
		return RemoteCredentials{}, err
	}
	if !response.Success {
		return RemoteCredentials{}, ErrRemoteNotFound
	}

	return RemoteCredentials{
		Username:          response.Username,
		EncryptedPassword: response.EncryptedPassword,
		DeviceFingerprint: deviceFingerprint,
	}, nil
}

func (c *HTTPSyncClient) UpdateStatus(ctx context.Context, status StatusUpdate) error {
	return c.send(ctx, http.MethodPut, "/auth/device-memory/status", status, nil)
}

func (c *HTTPSyncClient) FetchDeviceMemory(ctx context.Context, deviceFingerprint string) (DeviceMemory, error) {
	var response struct {
		DeviceMemory DeviceMemory `json:"deviceMemory"`
	}

	path := "/auth/device-memory/" + url.PathEscape(deviceFingerprint)
	if err := c.send(ctx, http.MethodGet, path, nil, &response); err != nil {
		return DeviceMemory{}, err
	}
	return response.DeviceMemory, nil
}

func (c *HTTPSyncClient) ClearDeviceData(ctx context.Context, deviceFingerprint string) error {
	body := struct {
		DeviceFingerprint string `json:"deviceFingerprint"`
	}{DeviceFingerprint: deviceFingerprint}
	return c.send(ctx, http.MethodPost, "/auth/clear-device-data", body, nil)
}

func (c *HTTPSyncClient) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return ErrRemoteNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRemoteUnavailable, response.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrRemoteUnavailable, err)
		}
	}
	return nil
}
