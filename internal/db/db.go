// Package db provides PostgreSQL storage for extract runs, their companies and
// their sector memberships.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// schema creates the extract tables. Every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS extract_runs (
	id            UUID PRIMARY KEY,
	sources       TEXT[] NOT NULL DEFAULT '{}',
	locator_stage TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	company_count INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS extracted_companies (
	id          BIGSERIAL PRIMARY KEY,
	run_id      UUID NOT NULL REFERENCES extract_runs(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	name        TEXT NOT NULL,
	sector      TEXT NOT NULL,
	website     TEXT NOT NULL,
	description TEXT NOT NULL,
	raw         JSONB NOT NULL,
	UNIQUE (run_id, position)
);

CREATE TABLE IF NOT EXISTS company_sectors (
	run_id       UUID NOT NULL REFERENCES extract_runs(id) ON DELETE CASCADE,
	sector       TEXT NOT NULL,
	slug         TEXT NOT NULL,
	position     INTEGER NOT NULL,
	company_name TEXT NOT NULL,
	record       JSONB NOT NULL,
	PRIMARY KEY (run_id, sector, position)
);

CREATE INDEX IF NOT EXISTS idx_company_sectors_slug ON company_sectors (slug);
`

// Migrate creates the tables used by this package if they are missing.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateRun creates a new extract run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, sources []string) (uuid.UUID, error) {
	if sources == nil {
		sources = []string{}
	}
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO extract_runs (id, sources, status)
		 VALUES ($1, $2, $3)`,
		id, sources, RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks an extract run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, locatorStage string, companyCount int) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE extract_runs
		 SET status = $1, locator_stage = $2, company_count = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, locatorStage, companyCount, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to complete run: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves an extract run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, sources, locator_stage, status, company_count, created_at, completed_at
		 FROM extract_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Sources, &run.LocatorStage, &run.Status, &run.CompanyCount, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent extract runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, sources, locator_stage, status, company_count, created_at, completed_at
		 FROM extract_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Sources, &run.LocatorStage, &run.Status, &run.CompanyCount, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
