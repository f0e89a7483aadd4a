package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/fieldops/device-trust/pkg/autologin"
	"github.com/fieldops/device-trust/pkg/biometric"
	"github.com/fieldops/device-trust/pkg/devicetrust"
	"github.com/fieldops/device-trust/pkg/fingerprint"
	"github.com/fieldops/device-trust/pkg/localstore"
	"github.com/fieldops/device-trust/pkg/vault"
	"github.com/ilyakaznacheev/cleanenv"
)

type ClientConfig struct {
	SyncBaseURL string `env:"SYNC_BASE_URL" env-default:"http://localhost:4000"`
	DataDir     string `env:"CLIENT_DATA_DIR" env-default:"./client-data"`
	Platform    string `env:"CLIENT_PLATFORM" env-default:"linux"`
	DeviceModel string `env:"CLIENT_DEVICE_MODEL" env-default:"headless"`
}

// A headless client has no platform authenticator, so the biometric step is
// always skipped and auto-login exercises the stored-credential path.
func main() {

	config := ClientConfig{}
	cleanenv.ReadEnv(&config)

	store, err := localstore.NewFileStore(config.DataDir)
	if err != nil {
		slog.Error("Failed creating local store", "dataDir", config.DataDir, "err", err)
		os.Exit(-1)
	}

	vaultService := vault.NewService(store)

	signals := fingerprint.Signals{
		Platform:    config.Platform,
		DeviceModel: config.DeviceModel,
	}

	provider := biometric.NewUnsupportedProvider(biometric.PlatformLinux)

	syncClient, err := devicetrust.NewHTTPSyncClient(config.SyncBaseURL)
	if err != nil {
		slog.Error("Failed creating sync client", "baseURL", config.SyncBaseURL, "err", err)
		os.Exit(-1)
	}

	manager := devicetrust.NewManager(store, vaultService, provider, signals,
		devicetrust.WithSyncClient(syncClient),
	)

	service := autologin.NewService(manager, provider)

	ctx := context.Background()

	status := service.GetAutoLoginStatus(ctx)
	slog.Info("Auto-login status",
		"deviceRemembered", status.DeviceRemembered,
		"hasStoredCredentials", status.HasStoredCredentials,
		"biometricSupported", status.BiometricSupported,
		"fingerprint", manager.Fingerprint())

	result := service.AttemptAutoLogin(ctx)
	switch result.Method {
	case autologin.MethodBiometric, autologin.MethodStored:
		slog.Info("Auto-login succeeded", "method", result.Method, "username", result.Credentials.Username)
	default:
		slog.Info("Manual login required", "message", result.Message)
	}

}
