package partition

import (
	"strings"

	"github.com/jonathan/company-extractor/internal/normalize"
	"github.com/jonathan/company-extractor/internal/types"
)

// Row is one companies extract row as seen by the partitioner. Name and Sector
// are the canonical columns and back up the payload's own fields.
type Row struct {
	Name   string
	Sector string
	Raw    string
}

// RawResult is the outcome of re-parsing a raw payload. When OK is false the
// payload could not be read as a mapping and Record is an empty mapping.
type RawResult struct {
	Record types.Value
	OK     bool
}

func defaultRaw() RawResult {
	return RawResult{Record: types.Mapping()}
}

// decodeRaw is a single decode attempt.
func decodeRaw(s string) (types.Value, bool) {
	v, err := types.DecodeString(s)
	if err != nil {
		return types.Value{}, false
	}
	return v, true
}

// ParseRaw decodes a raw payload into a mapping. A payload that fails to
// decode is retried once with its surrounding quote characters stripped, and
// a payload that decodes to a string is decoded once more. Anything that does
// not end up as a mapping yields the empty default.
func ParseRaw(raw string) RawResult {
	if raw == "" {
		return defaultRaw()
	}

	v, ok := decodeRaw(raw)
	if !ok {
		v, ok = decodeRaw(strings.Trim(raw, `"`))
		if !ok {
			return defaultRaw()
		}
	}

	if inner, isString := v.Str(); isString {
		v, ok = decodeRaw(inner)
		if !ok {
			return defaultRaw()
		}
	}

	if !v.IsMapping() {
		return defaultRaw()
	}
	return RawResult{Record: v, OK: true}
}

// field returns the text of key, or "" when the key is absent or falsy.
func field(rec types.Value, key string) string {
	v, ok := rec.Get(key)
	if !ok || v.IsFalsy() {
		return ""
	}
	return v.Text()
}

// Project builds the sector record from a parsed payload. Apart from the name
// and sector, which fall back as in ProjectRow, every column reads one exact key.
func Project(rec types.Value) types.SectorRecord {
	return ProjectRow(Row{}, rec)
}

// ProjectRow is Project with fallbacks for payloads that never carried the
// Entreprise* fields: an empty name or sector is taken from the row's canonical
// column, then from the normalizer's aliases applied to the payload.
func ProjectRow(row Row, rec types.Value) types.SectorRecord {
	name := field(rec, "EntrepriseName")
	if name == "" {
		name = field(rec, "EntrepriseNom")
	}
	sector := field(rec, "EntrepriseSecteurActivite")

	if name == "" || sector == "" {
		canonical := normalize.Company(rec)
		name = firstNonEmpty(name, row.Name, canonical.Name)
		sector = firstNonEmpty(sector, row.Sector, canonical.Sector)
	}

	return types.SectorRecord{
		EntrepriseName:            name,
		EntrepriseVille:           field(rec, "EntrepriseVille"),
		EntrepriseTechnologie:     field(rec, "EntrepriseTechnologie"),
		EntrepriseContactSiteWeb:  field(rec, "EntrepriseContactSiteWeb"),
		EntrepriseContactPhone:    field(rec, "EntrepriseContactPhone"),
		EntrepriseContactName:     field(rec, "EntrepriseContactName"),
		EntrepriseContactEmail:    field(rec, "EntrepriseContactEmail"),
		EntrepriseLogo:            field(rec, "EntrepriseLogo"),
		Activite:                  field(rec, "Activite"),
		EntrepriseSecteurActivite: sector,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
