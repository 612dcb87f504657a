//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"agon/internal/model"

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

func (s *SQLiteStore) SaveExperiment(ctx context.Context, record model.ExperimentRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeExperiment(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO experiments (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.ID, CurrentSchemaVersion, CurrentCodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (model.ExperimentRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ExperimentRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM experiments WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ExperimentRecord{}, false, nil
		}
		return model.ExperimentRecord{}, false, err
	}

	record, err := DecodeExperiment(payload)
	if err != nil {
		return model.ExperimentRecord{}, false, fmt.Errorf("decode experiment %s: %w", id, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM experiments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) SaveAgentProfile(ctx context.Context, profile model.AgentProfile) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeAgentProfile(profile)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO agent_profiles (name, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, profile.Name, CurrentSchemaVersion, CurrentCodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetAgentProfile(ctx context.Context, name string) (model.AgentProfile, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.AgentProfile{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM agent_profiles WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AgentProfile{}, false, nil
		}
		return model.AgentProfile{}, false, err
	}

	profile, err := DecodeAgentProfile(payload)
	if err != nil {
		return model.AgentProfile{}, false, fmt.Errorf("decode agent profile %s: %w", name, err)
	}
	return profile, true, nil
}

func (s *SQLiteStore) SaveGameResults(ctx context.Context, experimentID string, gameType model.GameType, results []model.GameResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGameResults(results)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO game_results (experiment_id, game_type, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(experiment_id, game_type) DO UPDATE SET
			payload = excluded.payload
	`, experimentID, string(gameType), payload)
	return err
}

func (s *SQLiteStore) GetGameResults(ctx context.Context, experimentID string, gameType model.GameType) ([]model.GameResult, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx,
		`SELECT payload FROM game_results WHERE experiment_id = ? AND game_type = ?`,
		experimentID, string(gameType)).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	results, err := DecodeGameResults(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode game results %s/%s: %w", experimentID, gameType, err)
	}
	return results, true, nil
}

// Reset clears every table but keeps the schema.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		DELETE FROM experiments;
		DELETE FROM agent_profiles;
		DELETE FROM game_results;
	`)
	return err
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
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiments (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS agent_profiles (
			name TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS game_results (
			experiment_id TEXT NOT NULL,
			game_type TEXT NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (experiment_id, game_type)
		);
	`)
	return err
}
