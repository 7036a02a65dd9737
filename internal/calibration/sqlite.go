package calibration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/models"
)

// SQLiteStore keeps calibration and the session history in one database
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	ddl := []string{`
CREATE TABLE IF NOT EXISTS calibration (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  inhale_pa REAL NOT NULL,
  exhale_pa REAL NOT NULL,
  updated_at TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL,
  source TEXT NOT NULL,
  scenario TEXT,
  scene TEXT,
  duration_ms INTEGER NOT NULL,
  breath_count INTEGER NOT NULL,
  avg_cycle_ms REAL NOT NULL,
  inhale_pa REAL NOT NULL,
  exhale_pa REAL NOT NULL,
  min_delta REAL NOT NULL,
  max_delta REAL NOT NULL,
  score INTEGER NOT NULL DEFAULT 0
)`}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (breath.Thresholds, error) {
	var th breath.Thresholds
	err := s.db.QueryRowContext(ctx,
		`SELECT inhale_pa, exhale_pa FROM calibration WHERE id = 1`,
	).Scan(&th.Inhale, &th.Exhale)
	if errors.Is(err, sql.ErrNoRows) {
		return breath.DefaultThresholds(), nil
	}
	if err != nil {
		return breath.Thresholds{}, fmt.Errorf("failed to load calibration: %w", err)
	}
	return th, nil
}

func (s *SQLiteStore) Save(ctx context.Context, th breath.Thresholds) error {
	if err := Validate(th); err != nil {
		return err
	}
	const stmt = `
INSERT INTO calibration (id, inhale_pa, exhale_pa, updated_at)
VALUES (1, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  inhale_pa=excluded.inhale_pa,
  exhale_pa=excluded.exhale_pa,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt, th.Inhale, th.Exhale, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calibration`); err != nil {
		return fmt.Errorf("failed to reset calibration: %w", err)
	}
	return nil
}

// SaveSession stores a finished session summary, replacing any row with the
// same session id.
func (s *SQLiteStore) SaveSession(ctx context.Context, sum models.SessionSummary) error {
	if err := sum.Validate(); err != nil {
		return err
	}
	const stmt = `
INSERT INTO sessions (id, started_at, ended_at, source, scenario, scene, duration_ms, breath_count, avg_cycle_ms, inhale_pa, exhale_pa, min_delta, max_delta, score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  started_at=excluded.started_at,
  ended_at=excluded.ended_at,
  source=excluded.source,
  scenario=excluded.scenario,
  scene=excluded.scene,
  duration_ms=excluded.duration_ms,
  breath_count=excluded.breath_count,
  avg_cycle_ms=excluded.avg_cycle_ms,
  inhale_pa=excluded.inhale_pa,
  exhale_pa=excluded.exhale_pa,
  min_delta=excluded.min_delta,
  max_delta=excluded.max_delta,
  score=excluded.score;
`
	_, err := s.db.ExecContext(ctx, stmt,
		sum.SessionID,
		sum.StartedAtUTC,
		sum.EndedAtUTC,
		sum.Source,
		sum.Scenario,
		sum.Scene,
		sum.DurationMs,
		int64(sum.BreathCount),
		sum.AvgCycleMs,
		sum.Thresholds.Inhale,
		sum.Thresholds.Exhale,
		sum.Bounds.Min,
		sum.Bounds.Max,
		sum.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ListSessions returns the most recent sessions first. limit <= 0 returns all.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	query := `
SELECT id, started_at, ended_at, source, COALESCE(scenario, ''), COALESCE(scene, ''),
       duration_ms, breath_count, avg_cycle_ms, inhale_pa, exhale_pa, min_delta, max_delta, score
FROM sessions
ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionSummary
	for rows.Next() {
		var (
			sum   models.SessionSummary
			count int64
		)
		if err := rows.Scan(
			&sum.SessionID,
			&sum.StartedAtUTC,
			&sum.EndedAtUTC,
			&sum.Source,
			&sum.Scenario,
			&sum.Scene,
			&sum.DurationMs,
			&count,
			&sum.AvgCycleMs,
			&sum.Thresholds.Inhale,
			&sum.Thresholds.Exhale,
			&sum.Bounds.Min,
			&sum.Bounds.Max,
			&sum.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sum.Schema = models.SessionSchema
		sum.BreathCount = uint64(count)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
