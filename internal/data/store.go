package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS scores (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	time_survived DOUBLE PRECISION NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS scores_time_survived_idx ON scores (time_survived DESC);
`

// PostgresStore persists the leaderboard in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore accepts an existing DB handle and makes sure the table exists.
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create scores table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// OpenPostgres builds the store from a connection string (e.g. os.Getenv("DATABASE_URL")).
func OpenPostgres(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	s, err := NewPostgresStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) RecordScore(ctx context.Context, name string, secs float64) error {
	name, err := ValidateScore(name, secs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scores (name, time_survived)
		VALUES ($1, $2)
	`, name, secs)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *PostgresStore) TopScores(ctx context.Context, limit int) ([]Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, time_survived, created_at
		FROM scores
		ORDER BY time_survived DESC, created_at ASC
		LIMIT $1
	`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]Score, 0, ClampLimit(limit))
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.Name, &sc.TimeSurvived, &sc.Date); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, sc)
	}
	return scores, rows.Err()
}

// Reset clears the leaderboard in one transaction.
func (s *PostgresStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return tx.Commit()
}
