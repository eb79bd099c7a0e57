//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"tensordep/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// upsert stores a payload under key in table. Table names are fixed by the
// callers below.
func (s *SQLiteStore) upsert(ctx context.Context, table, key string, v model.VersionedRecord, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, key, v.SchemaVersion, v.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) payload(ctx context.Context, table, key string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE id = ?`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) SaveRegistry(ctx context.Context, registry model.RegistrySnapshot) error {
	payload, err := EncodeRegistry(registry)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "registries", registry.ID, registry.VersionedRecord, payload)
}

func (s *SQLiteStore) GetRegistry(ctx context.Context, id string) (model.RegistrySnapshot, bool, error) {
	payload, ok, err := s.payload(ctx, "registries", id)
	if err != nil || !ok {
		return model.RegistrySnapshot{}, false, err
	}
	registry, err := DecodeRegistry(payload)
	if err != nil {
		return model.RegistrySnapshot{}, false, fmt.Errorf("decode registry %s: %w", id, err)
	}
	return registry, true, nil
}

func (s *SQLiteStore) SaveActivation(ctx context.Context, activation model.ActivationSnapshot) error {
	payload, err := EncodeActivation(activation)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "activations", activation.RegistryID, activation.VersionedRecord, payload)
}

func (s *SQLiteStore) GetActivation(ctx context.Context, registryID string) (model.ActivationSnapshot, bool, error) {
	payload, ok, err := s.payload(ctx, "activations", registryID)
	if err != nil || !ok {
		return model.ActivationSnapshot{}, false, err
	}
	activation, err := DecodeActivation(payload)
	if err != nil {
		return model.ActivationSnapshot{}, false, fmt.Errorf("decode activation %s: %w", registryID, err)
	}
	return activation, true, nil
}

func (s *SQLiteStore) SaveTensor(ctx context.Context, tensor model.TensorSnapshot) error {
	payload, err := EncodeTensor(tensor)
	if err != nil {
		return err
	}
	return s.upsert(ctx, "tensors", tensor.ID, tensor.VersionedRecord, payload)
}

func (s *SQLiteStore) GetTensor(ctx context.Context, id string) (model.TensorSnapshot, bool, error) {
	payload, ok, err := s.payload(ctx, "tensors", id)
	if err != nil || !ok {
		return model.TensorSnapshot{}, false, err
	}
	tensor, err := DecodeTensor(payload)
	if err != nil {
		return model.TensorSnapshot{}, false, fmt.Errorf("decode tensor %s: %w", id, err)
	}
	return tensor, true, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunSummary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at_utc, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			payload = excluded.payload
	`, run.RunID, run.CreatedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (model.RunSummary, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunSummary{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunSummary{}, false, nil
		}
		return model.RunSummary{}, false, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return model.RunSummary{}, false, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT run_id, payload FROM runs ORDER BY created_at_utc, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]model.RunSummary, 0)
	for rows.Next() {
		var (
			runID   string
			payload []byte
		)
		if err := rows.Scan(&runID, &payload); err != nil {
			return nil, err
		}
		run, err := DecodeRun(payload)
		if err != nil {
			return nil, fmt.Errorf("decode run %s: %w", runID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS registries (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS activations (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tensors (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at_utc TEXT NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
