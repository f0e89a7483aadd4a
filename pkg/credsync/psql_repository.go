package credsync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL credential sync repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// UpsertCredential creates or replaces the credential row for a fingerprint
func (r *PostgresRepository) UpsertCredential(ctx context.Context, credential DeviceCredential) (DeviceCredential, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO device_credential (
			device_fingerprint, username, encrypted_password, device_name, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $5
		)
		ON CONFLICT (device_fingerprint) DO UPDATE SET
			username = EXCLUDED.username,
			encrypted_password = EXCLUDED.encrypted_password,
			device_name = EXCLUDED.device_name,
			updated_at = EXCLUDED.updated_at
		RETURNING device_fingerprint, username, encrypted_password, device_name, created_at, updated_at`

	var result DeviceCredential
	err := r.db.QueryRow(ctx, query,
		credential.DeviceFingerprint, credential.Username, credential.EncryptedPassword,
		credential.DeviceName, now,
	).Scan(
		&result.DeviceFingerprint, &result.Username, &result.EncryptedPassword,
		&result.DeviceName, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to upsert credential", "fingerprint", credential.DeviceFingerprint, "error", err)
		return DeviceCredential{}, err
	}

	return result, nil
}

// GetCredentialByFingerprint retrieves the credential row for a fingerprint
func (r *PostgresRepository) GetCredentialByFingerprint(ctx context.Context, fingerprint string) (DeviceCredential, error) {
	query := `
		SELECT device_fingerprint, username, encrypted_password, device_name, created_at, updated_at
		FROM device_credential
		WHERE device_fingerprint = $1`

	var result DeviceCredential
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(
		&result.DeviceFingerprint, &result.Username, &result.EncryptedPassword,
		&result.DeviceName, &result.CreatedAt, &result.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeviceCredential{}, ErrNotFound
	}
	if err != nil {
		slog.Error("Failed to get credential", "fingerprint", fingerprint, "error", err)
		return DeviceCredential{}, err
	}

	return result, nil
}

// UpsertMemory creates or replaces the memory row for a fingerprint
func (r *PostgresRepository) UpsertMemory(ctx context.Context, memory DeviceMemory) (DeviceMemory, error) {
	now := time.Now().UTC()
	query := `
		INSERT INTO device_memory (
			device_fingerprint, device_name, has_stored_credentials, has_biometric_data, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $5
		)
		ON CONFLICT (device_fingerprint) DO UPDATE SET
			device_name = EXCLUDED.device_name,
			has_stored_credentials = EXCLUDED.has_stored_credentials,
			has_biometric_data = EXCLUDED.has_biometric_data,
			updated_at = EXCLUDED.updated_at
		RETURNING device_fingerprint, device_name, has_stored_credentials, has_biometric_data, created_at, updated_at`

	var result DeviceMemory
	err := r.db.QueryRow(ctx, query,
		memory.DeviceFingerprint, memory.DeviceName,
		memory.HasStoredCredentials, memory.HasBiometricData, now,
	).Scan(
		&result.DeviceFingerprint, &result.DeviceName,
		&result.HasStoredCredentials, &result.HasBiometricData,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		slog.Error("Failed to upsert device memory", "fingerprint", memory.DeviceFingerprint, "error", err)
		return DeviceMemory{}, err
	}

	return result, nil
}

// GetMemoryByFingerprint retrieves the memory row for a fingerprint
func (r *PostgresRepository) GetMemoryByFingerprint(ctx context.Context, fingerprint string) (DeviceMemory, error) {
	query := `
		SELECT device_fingerprint, device_name, has_stored_credentials, has_biometric_data, created_at, updated_at
		FROM device_memory
		WHERE device_fingerprint = $1`

	var result DeviceMemory
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(
		&result.DeviceFingerprint, &result.DeviceName,
		&result.HasStoredCredentials, &result.HasBiometricData,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeviceMemory{}, ErrNotFound
	}
	if err != nil {
		slog.Error("Failed to get device memory", "fingerprint", fingerprint, "error", err)
		return DeviceMemory{}, err
	}

	return result, nil
}

// FindMemories returns all device memory rows
func (r *PostgresRepository) FindMemories(ctx context.Context) ([]DeviceMemory, error) {
	query := `
		SELECT device_fingerprint, device_name, has_stored_credentials, has_biometric_data, created_at, updated_at
		FROM device_memory
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		slog.Error("Failed to find device memories", "error", err)
		return nil, err
	}
	defer rows.Close()

	var memories []DeviceMemory
	for rows.Next() {
		var memory DeviceMemory
		err := rows.Scan(
			&memory.DeviceFingerprint, &memory.DeviceName,
			&memory.HasStoredCredentials, &memory.HasBiometricData,
			&memory.CreatedAt, &memory.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		memories = append(memories, memory)
	}

	return memories, rows.Err()
}

// DeleteDeviceData removes the credential and memory rows for a fingerprint
func (r *PostgresRepository) DeleteDeviceData(ctx context.Context, fingerprint string) error {
	credentialTag, err := r.db.Exec(ctx, `DELETE FROM device_credential WHERE device_fingerprint = $1`, fingerprint)
	if err != nil {
		slog.Error("Failed to delete credential", "fingerprint", fingerprint, "error", err)
		return err
	}

	memoryTag, err := r.db.Exec(ctx, `DELETE FROM device_memory WHERE device_fingerprint = $1`, fingerprint)
	if err != nil {
		slog.Error("Failed to delete device memory", "fingerprint", fingerprint, "error", err)
		return err
	}

	if credentialTag.RowsAffected() == 0 && memoryTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// WithTx returns a new repository bound to the given transaction
func (r *PostgresRepository) WithTx(tx interface{}) Repository {
	if dbtx, ok := tx.(DBTX); ok {
		return &PostgresRepository{db: dbtx}
	}
	return r
}
