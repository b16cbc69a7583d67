package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/types"
)

// -----------------------------------------------------------------------------
// Company Methods
// -----------------------------------------------------------------------------

// SaveCompanies stores the companies of a run in one batch. Positions follow
// the slice order, so callers pass the sorted extract.
func (db *DB) SaveCompanies(ctx context.Context, runID uuid.UUID, companies []types.CanonicalCompany) error {
	if len(companies) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, c := range companies {
		batch.Queue(
			`INSERT INTO extracted_companies (run_id, position, name, sector, website, description, raw)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (run_id, position) DO UPDATE
			 SET name = $3, sector = $4, website = $5, description = $6, raw = $7`,
			runID, i, c.Name, c.Sector, c.Website, c.Description, RawJSON(c.Raw),
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save companies: %w", err)
	}
	return nil
}

// ListCompanies returns the companies of a run in extract order
func (db *DB) ListCompanies(ctx context.Context, runID uuid.UUID) ([]ExtractedCompany, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, position, name, sector, website, description, raw
		 FROM extracted_companies WHERE run_id = $1 ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []ExtractedCompany
	for rows.Next() {
		var c ExtractedCompany
		if err := rows.Scan(&c.ID, &c.RunID, &c.Position, &c.Name, &c.Sector, &c.Website, &c.Description, &c.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// -----------------------------------------------------------------------------
// Sector Methods
// -----------------------------------------------------------------------------

// SaveSectorMemberships stores every bucket placement of a run.
func (db *DB) SaveSectorMemberships(ctx context.Context, runID uuid.UUID, buckets *partition.Buckets) error {
	memberships, err := Memberships(buckets)
	if err != nil {
		return err
	}
	if len(memberships) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range memberships {
		batch.Queue(
			`INSERT INTO company_sectors (run_id, sector, slug, position, company_name, record)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (run_id, sector, position) DO UPDATE
			 SET slug = $3, company_name = $5, record = $6`,
			runID, m.Sector, m.Slug, m.Position, m.CompanyName, m.Record,
		)
	}

	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save sector memberships: %w", err)
	}
	return nil
}

// ListSectorCounts returns the member count of each sector of a run, largest first
func (db *DB) ListSectorCounts(ctx context.Context, runID uuid.UUID) ([]SectorCount, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT sector, slug, COUNT(*)
		 FROM company_sectors WHERE run_id = $1
		 GROUP BY sector, slug ORDER BY COUNT(*) DESC, sector`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sector counts: %w", err)
	}
	defer rows.Close()

	var counts []SectorCount
	for rows.Next() {
		var sc SectorCount
		if err := rows.Scan(&sc.Sector, &sc.Slug, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sector count: %w", err)
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// Memberships flattens buckets into rows, in bucket order then append order.
func Memberships(buckets *partition.Buckets) ([]SectorMembership, error) {
	if buckets == nil {
		return nil, nil
	}
	var out []SectorMembership
	for _, name := range buckets.Names {
		slug := partition.SanitizeName(name)
		for i, rec := range buckets.Get(name) {
			record, err := json.Marshal(rec)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal sector record: %w", err)
			}
			out = append(out, SectorMembership{
				Sector:      name,
				Slug:        slug,
				Position:    i,
				CompanyName: rec.EntrepriseName,
				Record:      record,
			})
		}
	}
	return out, nil
}

// RawJSON returns raw as a JSON document for a JSONB column. Text that is not
// valid JSON is stored as a JSON string.
func RawJSON(raw string) json.RawMessage {
	if raw != "" && json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(raw)
	return b
}
