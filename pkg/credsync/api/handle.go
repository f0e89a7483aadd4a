package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldops/device-trust/pkg/credsync"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SyncHandler handles HTTP requests for device credential sync
type SyncHandler struct {
	syncService *credsync.Service
}

// NewSyncHandler creates a new credential sync handler
func NewSyncHandler(syncService *credsync.Service) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
	}
}

// SaveCredentialsRequest represents the request body for saving device credentials
type SaveCredentialsRequest struct {
	Username          string `json:"username"`
	EncryptedPassword string `json:"encryptedPassword"`
	DeviceFingerprint string `json:"deviceFingerprint"`
	DeviceName        string `json:"deviceName"`
}

// GetCredentialsResponse represents the response body for fetching device credentials
type GetCredentialsResponse struct {
	Success           bool   `json:"success"`
	Username          string `json:"username,omitempty"`
	EncryptedPassword string `json:"encryptedPassword,omitempty"`
}

// UpdateStatusRequest represents the request body for updating device status
type UpdateStatusRequest struct {
	DeviceFingerprint    string `json:"deviceFingerprint"`
	HasStoredCredentials bool   `json:"hasStoredCredentials"`
	HasBiometricData     bool   `json:"hasBiometricData"`
	DeviceName           string `json:"deviceName"`
}

// DeviceMemoryResponse represents the response body for fetching device memory
type DeviceMemoryResponse struct {
	DeviceMemory DeviceMemoryView `json:"deviceMemory"`
}

// DeviceMemoryView is the wire form of a device memory row
type DeviceMemoryView struct {
	DeviceFingerprint    string `json:"deviceFingerprint"`
	DeviceName           string `json:"deviceName"`
	HasStoredCredentials bool   `json:"hasStoredCredentials"`
	HasBiometricData     bool   `json:"hasBiometricData"`
	UpdatedAt            string `json:"updatedAt"`
}

// ClearDeviceDataRequest represents the request body for clearing device data
type ClearDeviceDataRequest struct {
	DeviceFingerprint string `json:"deviceFingerprint"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListDeviceMemoriesResponse represents the response body for the admin device listing
type ListDeviceMemoriesResponse struct {
	Devices []DeviceMemoryView `json:"devices"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// SaveCredentials handles POST /auth/device-credentials
func (h *SyncHandler) SaveCredentials(w http.ResponseWriter, r *http.Request) {
	var request SaveCredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	_, err := h.syncService.SaveCredentials(r.Context(), credsync.DeviceCredential{
		DeviceFingerprint: request.DeviceFingerprint,
		Username:          request.Username,
		EncryptedPassword: request.EncryptedPassword,
		DeviceName:        request.DeviceName,
	})
	if err != nil {
		slog.Error("Failed to save device credentials", "fingerprint", request.DeviceFingerprint, "error", err)
		renderErrorResponse(w, r, http.StatusBadRequest, "Failed to save credentials", err.Error())
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, SuccessResponse{Success: true})
}

// GetCredentials handles GET /auth/device-credentials?deviceFingerprint=
// An unknown fingerprint is {success:false}, not an HTTP error, so clients
// can distinguish "no record" from "sync unavailable".
func (h *SyncHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.URL.Query().Get("deviceFingerprint")
	if fingerprint == "" {
		renderErrorResponse(w, r, http.StatusBadRequest, "deviceFingerprint is required", "")
		return
	}

	credential, err := h.syncService.GetCredentials(r.Context(), fingerprint)
	if errors.Is(err, credsync.ErrNotFound) {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, GetCredentialsResponse{Success: false})
		return
	}
	if err != nil {
		slog.Error("Failed to get device credentials", "fingerprint", fingerprint, "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to get credentials", err.Error())
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, GetCredentialsResponse{
		Success:           true,
		Username:          credential.Username,
		EncryptedPassword: credential.EncryptedPassword,
	})
}

// UpdateStatus handles PUT /auth/device-memory/status
func (h *SyncHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var request UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	_, err := h.syncService.UpdateStatus(r.Context(), credsync.DeviceMemory{
		DeviceFingerprint:    request.DeviceFingerprint,
		DeviceName:           request.DeviceName,
		HasStoredCredentials: request.HasStoredCredentials,
		HasBiometricData:     request.HasBiometricData,
	})
	if err != nil {
		slog.Error("Failed to update device status", "fingerprint", request.DeviceFingerprint, "error", err)
		renderErrorResponse(w, r, http.StatusBadRequest, "Failed to update device status", err.Error())
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, SuccessResponse{Success: true})
}

// GetDeviceMemory handles GET /auth/device-memory/{fingerprint}
func (h *SyncHandler) GetDeviceMemory(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")

	memory, err := h.syncService.GetDeviceMemory(r.Context(), fingerprint)
	if errors.Is(err, credsync.ErrNotFound) {
		renderErrorResponse(w, r, http.StatusNotFound, "Device not found", "")
		return
	}
	if err != nil {
		slog.Error("Failed to get device memory", "fingerprint", fingerprint, "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to get device memory", err.Error())
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, DeviceMemoryResponse{DeviceMemory: toView(memory)})
}

// ClearDeviceData handles POST /auth/clear-device-data. Clearing an unknown
// device succeeds: the end state is the same.
func (h *SyncHandler) ClearDeviceData(w http.ResponseWriter, r *http.Request) {
	var request ClearDeviceDataRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		renderErrorResponse(w, r, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if request.DeviceFingerprint == "" {
		renderErrorResponse(w, r, http.StatusBadRequest, "deviceFingerprint is required", "")
		return
	}

	err := h.syncService.ClearDeviceData(r.Context(), request.DeviceFingerprint)
	if err != nil && !errors.Is(err, credsync.ErrNotFound) {
		slog.Error("Failed to clear device data", "fingerprint", request.DeviceFingerprint, "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to clear device data", err.Error())
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, SuccessResponse{Success: true})
}

// ListDeviceMemories handles the admin device listing
func (h *SyncHandler) ListDeviceMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := h.syncService.FindDeviceMemories(r.Context())
	if err != nil {
		slog.Error("Failed to list device memories", "error", err)
		renderErrorResponse(w, r, http.StatusInternalServerError, "Failed to list devices", err.Error())
		return
	}

	views := make([]DeviceMemoryView, 0, len(memories))
	for _, memory := range memories {
		views = append(views, toView(memory))
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ListDeviceMemoriesResponse{Devices: views})
}

// Handler returns a http.Handler for the public credential sync API
func Handler(h *SyncHandler) http.Handler {
	r := chi.NewRouter()

	r.Post("/device-credentials", h.SaveCredentials)
	r.Get("/device-credentials", h.GetCredentials)
	r.Put("/device-memory/status", h.UpdateStatus)
	r.Get("/device-memory/{fingerprint}", h.GetDeviceMemory)
	r.Post("/clear-device-data", h.ClearDeviceData)

	return r
}

// AdminHandler returns a http.Handler for the token-guarded admin API
func AdminHandler(h *SyncHandler) http.Handler {
	r := chi.NewRouter()

	r.Get("/devices", h.ListDeviceMemories)

	return r
}

func toView(memory credsync.DeviceMemory) DeviceMemoryView {
	return DeviceMemoryView{
		DeviceFingerprint:    memory.DeviceFingerprint,
		DeviceName:           memory.DeviceName,
		HasStoredCredentials: memory.HasStoredCredentials,
		HasBiometricData:     memory.HasBiometricData,
		UpdatedAt:            memory.UpdatedAt.Format(time.RFC3339),
	}
}

// renderErrorResponse renders an error response with the given status code and message
func renderErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message, errorDetail string) {
	response := ErrorResponse{
		Status:  "error",
		Message: message,
	}

	if errorDetail != "" {
		response.Error = errorDetail
	}

	render.Status(r, statusCode)
	render.JSON(w, r, response)
}
