// Package credsync is the server side of device credential sync. It stores
// the encrypted credential mirror and the trust-signal memory that clients
// push, keyed by device fingerprint, so a device whose local storage was
// cleared can recover its saved login.
//
// The password column only ever holds the client vault's exported envelope;
// the server has no key material and cannot decrypt it.
//
// # Architecture
//
// The package follows the repository pattern:
//
//   - Repository - storage interface
//   - InMemRepository - map-backed, for tests and dev
//   - FileRepository - JSON file persistence
//   - PostgresRepository - pgx-backed production persistence
//   - Service - validation and cross-row consistency
//   - api.SyncHandler - the five HTTP endpoints plus an admin listing
//
// Use NewRepository to select an implementation by persistence type.
//
// # Basic Usage
//
//	repository, err := credsync.NewRepository("postgres", credsync.RepositoryConfig{DB: pool})
//	service := credsync.NewService(repository)
//	r.Mount("/auth", api.Handler(api.NewSyncHandler(service)))
package credsync
