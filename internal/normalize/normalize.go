// Package normalize maps raw records with unknown key spellings onto the canonical company schema.
package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/company-extractor/internal/types"
)

// Accepted source keys per canonical field, in priority order. Keys are compared lower-cased.
var (
	NameAliases        = []string{"name", "title", "nom", "company"}
	SectorAliases      = []string{"secteur", "sector", "categorie", "category"}
	WebsiteAliases     = []string{"website", "site", "url"}
	DescriptionAliases = []string{"description", "desc", "resume"}
)

// folded is a lower-cased view of a record's keys. Later keys win on collision.
type folded map[string]types.Value

func fold(record types.Value) folded {
	out := make(folded, record.Len())
	for _, m := range record.Members() {
		out[strings.ToLower(m.Key)] = m.Value
	}
	return out
}

// first returns the text of the first alias holding a non-falsy value.
func (f folded) first(aliases []string) string {
	for _, alias := range aliases {
		if v, ok := f[alias]; ok && !v.IsFalsy() {
			return v.Text()
		}
	}
	return ""
}

// Company normalizes one record. It never fails: missing fields are empty and
// a record that is not a mapping yields only its raw serialization.
func Company(record types.Value) types.CanonicalCompany {
	lookup := fold(record)

	raw, err := record.MarshalJSON()
	if err != nil {
		raw = nil
	}

	return types.CanonicalCompany{
		Name:        lookup.first(NameAliases),
		Sector:      lookup.first(SectorAliases),
		Website:     lookup.first(WebsiteAliases),
		Description: lookup.first(DescriptionAliases),
		Raw:         string(raw),
	}
}

// All normalizes every mapping in records and silently skips anything else.
func All(records []types.Value) []types.CanonicalCompany {
	return AllWithLogger(records, nil)
}

// AllWithLogger is All with a debug line per skipped element.
func AllWithLogger(records []types.Value, logger *zap.Logger) []types.CanonicalCompany {
	if logger == nil {
		logger = zap.NewNop()
	}

	companies := make([]types.CanonicalCompany, 0, len(records))
	for i, rec := range records {
		if !rec.IsMapping() {
			logger.Debug("skipping non-mapping record",
				zap.Int("index", i),
				zap.Stringer("kind", rec.Kind()))
			continue
		}
		companies = append(companies, Company(rec))
	}
	return companies
}
