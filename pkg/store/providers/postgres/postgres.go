// Package postgres provides a durable Store backed by PostgreSQL, replacing
// the in-memory provider for production deployments.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/insighthire/engine/pkg/canonicalize"
	"github.com/insighthire/engine/pkg/store/iface"
)

// Config configures the PostgreSQL-backed Store.
type Config struct {
	ConnectionString string
	SamplesTable     string
	FinalScoresTable string
	JobRolesTable    string
}

// DefaultConfig returns the default table names used when Config doesn't
// override them.
func DefaultConfig() Config {
	return Config{
		SamplesTable:     "interview_samples",
		FinalScoresTable: "interview_final_scores",
		JobRolesTable:    "interview_job_roles",
	}
}

// Store implements iface.Store against a PostgreSQL database.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens a connection, verifies it, and ensures the schema exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SamplesTable == "" {
		cfg.SamplesTable = DefaultConfig().SamplesTable
	}
	if cfg.FinalScoresTable == "" {
		cfg.FinalScoresTable = DefaultConfig().FinalScoresTable
	}
	if cfg.JobRolesTable == "" {
		cfg.JobRolesTable = DefaultConfig().JobRolesTable
	}

	db, err := sql.Open("postgres", cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("postgres: open connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	slog.InfoContext(ctx, "postgres store ready",
		slog.String("samples_table", cfg.SamplesTable),
		slog.String("final_scores_table", cfg.FinalScoresTable),
		slog.String("job_roles_table", cfg.JobRolesTable))

	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS %s_session_ts_idx ON %s (session_id, ts);

	CREATE TABLE IF NOT EXISTS %s (
		session_id TEXT PRIMARY KEY,
		computed_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS %s (
		job_role_id TEXT PRIMARY KEY,
		voice_weight DOUBLE PRECISION NOT NULL,
		hand_weight DOUBLE PRECISION NOT NULL,
		eye_weight DOUBLE PRECISION NOT NULL
	);
	`, s.cfg.SamplesTable, s.cfg.SamplesTable, s.cfg.SamplesTable, s.cfg.FinalScoresTable, s.cfg.JobRolesTable)

	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// PersistSample writes sample as a JSONB row scoped to sessionID.
func (s *Store) PersistSample(ctx context.Context, sessionID string, sample canonicalize.Sample) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("postgres: marshal sample: %w", err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (session_id, ts, payload) VALUES ($1, $2, $3)`, s.cfg.SamplesTable)
	_, err = s.db.ExecContext(ctx, query, sessionID, sample.Timestamp, payload)
	return err
}

// ListSamples returns every persisted sample for sessionID ordered by
// timestamp ascending.
func (s *Store) ListSamples(ctx context.Context, sessionID string) ([]canonicalize.Sample, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE session_id = $1 ORDER BY ts ASC`, s.cfg.SamplesTable)
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []canonicalize.Sample
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var sample canonicalize.Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal sample: %w", err)
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// PersistFinalScore upserts the final score for final.SessionID.
func (s *Store) PersistFinalScore(ctx context.Context, final iface.FinalScore) error {
	payload, err := json.Marshal(final)
	if err != nil {
		return fmt.Errorf("postgres: marshal final score: %w", err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (session_id, computed_at, payload) VALUES ($1, $2, $3)
	ON CONFLICT (session_id) DO UPDATE SET computed_at = EXCLUDED.computed_at, payload = EXCLUDED.payload
	`, s.cfg.FinalScoresTable)
	_, err = s.db.ExecContext(ctx, query, final.SessionID, final.ComputedAt, payload)
	return err
}

// GetFinalScore reads back the persisted final score for sessionID.
func (s *Store) GetFinalScore(ctx context.Context, sessionID string) (iface.FinalScore, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE session_id = $1`, s.cfg.FinalScoresTable)
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&raw)
	if err == sql.ErrNoRows {
		return iface.FinalScore{}, iface.ErrFinalScoreNotFound
	}
	if err != nil {
		return iface.FinalScore{}, err
	}

	var final iface.FinalScore
	if err := json.Unmarshal(raw, &final); err != nil {
		return iface.FinalScore{}, fmt.Errorf("postgres: unmarshal final score: %w", err)
	}
	return final, nil
}

// GetJobRole reads the weight row for jobRoleID.
func (s *Store) GetJobRole(ctx context.Context, jobRoleID string) (iface.JobRole, error) {
	query := fmt.Sprintf(`SELECT voice_weight, hand_weight, eye_weight FROM %s WHERE job_role_id = $1`, s.cfg.JobRolesTable)
	var weights iface.Weights
	err := s.db.QueryRowContext(ctx, query, jobRoleID).Scan(&weights.Voice, &weights.Hand, &weights.Eye)
	if err == sql.ErrNoRows {
		return iface.JobRole{}, iface.ErrJobRoleNotFound
	}
	if err != nil {
		return iface.JobRole{}, err
	}
	return iface.JobRole{ID: jobRoleID, Weights: weights}, nil
}

// PutJobRole upserts a job role's weights so GetJobRole has data to read.
// It is not part of iface.Store, and no route in pkg/restapi calls it.
func (s *Store) PutJobRole(ctx context.Context, role iface.JobRole) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (job_role_id, voice_weight, hand_weight, eye_weight) VALUES ($1, $2, $3, $4)
	ON CONFLICT (job_role_id) DO UPDATE SET voice_weight = EXCLUDED.voice_weight, hand_weight = EXCLUDED.hand_weight, eye_weight = EXCLUDED.eye_weight
	`, s.cfg.JobRolesTable)
	_, err := s.db.ExecContext(ctx, query, role.ID, role.Weights.Voice, role.Weights.Hand, role.Weights.Eye)
	return err
}
