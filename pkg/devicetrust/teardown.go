package devicetrust

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fieldops/device-trust/pkg/localstore"
)

// teardownStep is one independent, idempotent step of the full device-data
// wipe. A failing step never aborts the steps after it.
type teardownStep struct {
	name string
	run  func(ctx context.Context) error
}

// ClearAllDeviceData wipes every trace of device trust this app wrote:
// remote record, local device record, biometric credentials, vaulted secrets,
// session-scoped caches, in-DOM autofill state, and any remaining app-local
// persistence. Third-party password manager state is out of reach of script
// and untouched. Failures are collected and logged; the reload hook always
// runs last so no stale in-memory state survives.
func (m *Manager) ClearAllDeviceData(ctx context.Context) error {
	steps := []teardownStep{
		{"clear remote record", func(ctx context.Context) error {
			if m.sync == nil {
				return nil
			}
			err := m.sync.ClearDeviceData(ctx, m.deviceFingerprint)
			if errors.Is(err, ErrRemoteNotFound) {
				return nil
			}
			return err
		}},
		{"clear device record", func(ctx context.Context) error {
			return m.store.Delete(ctx, recordKey)
		}},
		{"clear biometric credentials", func(ctx context.Context) error {
			return m.store.Delete(ctx, credentialListKey)
		}},
		{"clear vaulted secrets", func(ctx context.Context) error {
			return m.vault.Remove(ctx, secretVaultKey)
		}},
		{"clear session caches", func(ctx context.Context) error {
			return m.deleteKeys(ctx, isSessionKey)
		}},
		{"sanitize form autofill", func(ctx context.Context) error {
			if m.sanitizeForms != nil {
				m.sanitizeForms()
			}
			return nil
		}},
		{"clear app-local persistence", func(ctx context.Context) error {
			return m.deleteKeys(ctx, func(string) bool { return true })
		}},
	}

	failed := 0
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			failed++
			slog.Error("Device data teardown step failed, continuing", "step", step.name, "error", err)
		}
	}

	slog.Info("Device data cleared", "steps", len(steps), "failed", failed)

	if m.reload != nil {
		m.reload()
	}
	return nil
}

func (m *Manager) deleteKeys(ctx context.Context, match func(key string) bool) error {
	keys, err := m.store.Keys(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var lastErr error
	for _, key := range keys {
		if !match(key) {
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
