// Package devicetrust owns the device-credential record and the biometric
// credential list, and offers remember/forget/status operations over them.
//
// The manager persists to two places: browser-local style storage through
// pkg/localstore (the durable source of truth for the current device) and the
// remote credential sync endpoints (a recovery aid when local storage has
// been cleared). Every remote-dependent operation degrades to local-only
// behavior on network failure; this is a design requirement, not an
// incidental catch.
//
// # Basic Usage
//
//	manager := devicetrust.NewManager(store, vaultService, provider, signals,
//		devicetrust.WithSyncClient(syncClient),
//	)
//
//	// After a successful login with "remember this device" checked
//	record, err := manager.Remember(ctx, username, password)
//
//	// On the next visit
//	if manager.IsRemembered(ctx) {
//		credentials, err := manager.StoredCredentials(ctx)
//		...
//	}
//
// A device record expires 30 days after creation or renewal. An expired
// record is logically absent: every read path treats it as deleted and
// purges it from storage.
//
// # Related Packages
//
//   - pkg/autologin - auto-login orchestration over this manager
//   - pkg/vault - tiered secret encryption
//   - pkg/credsync - the server side of the sync endpoints
package devicetrust
