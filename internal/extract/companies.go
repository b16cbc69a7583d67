// Package extract reads and writes the CSV extracts produced by the pipeline:
// the sorted companies extract and one extract per sector.
package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/types"
)

// CompanyColumns is the header of the companies extract.
var CompanyColumns = []string{"sector", "name", "description", "website", "raw"}

// SortCompanies orders companies by (sector, name), byte-wise. The sort is
// stable so equal keys keep discovery order. The input is not modified.
func SortCompanies(companies []types.CanonicalCompany) []types.CanonicalCompany {
	sorted := make([]types.CanonicalCompany, len(companies))
	copy(sorted, companies)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Sector != sorted[j].Sector {
			return sorted[i].Sector < sorted[j].Sector
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// WriteCompanies writes the sorted companies extract to w.
func WriteCompanies(w io.Writer, companies []types.CanonicalCompany) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CompanyColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, c := range SortCompanies(companies) {
		if err := cw.Write([]string{c.Sector, c.Name, c.Description, c.Website, c.Raw}); err != nil {
			return fmt.Errorf("failed to write row for %q: %w", c.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCompaniesFile writes the companies extract to path.
func WriteCompaniesFile(path string, companies []types.CanonicalCompany) error {
	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Path: path, Message: "failed to create file", Cause: err}
	}
	if err := WriteCompanies(f, companies); err != nil {
		_ = f.Close()
		return &WriteError{Path: path, Message: "failed to write companies", Cause: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: path, Message: "failed to close file", Cause: err}
	}
	return nil
}

// CompanyRow is one row read back from a companies extract.
type CompanyRow struct {
	Sector string
	Name   string
	Raw    string
}

// ReadCompanies reads a companies extract. Columns are located by header name;
// the raw column is required and the older "secteur" header is accepted.
func ReadCompanies(r io.Reader) ([]CompanyRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyExtract
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	rawCol, ok := index["raw"]
	if !ok {
		return nil, ErrMissingRawColumn
	}
	sectorCol, ok := index["sector"]
	if !ok {
		sectorCol, ok = index["secteur"]
		if !ok {
			sectorCol = -1
		}
	}
	nameCol, ok := index["name"]
	if !ok {
		nameCol = -1
	}

	cell := func(rec []string, i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []CompanyRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, CompanyRow{
			Sector: cell(rec, sectorCol),
			Name:   cell(rec, nameCol),
			Raw:    cell(rec, rawCol),
		})
	}
	return rows, nil
}

// ReadCompaniesFile reads a companies extract from path.
func ReadCompaniesFile(path string) ([]CompanyRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ReadCompanies(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// PartitionRows converts rows for the sector partitioner, keeping file order.
func PartitionRows(rows []CompanyRow) []partition.Row {
	out := make([]partition.Row, len(rows))
	for i, r := range rows {
		out[i] = partition.Row{Name: r.Name, Sector: r.Sector, Raw: r.Raw}
	}
	return out
}
