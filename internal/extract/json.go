package extract

import (
	"encoding/json"
	"os"

	"github.com/jonathan/company-extractor/internal/types"
)

// WriteCompaniesJSON writes the sorted companies as an indented JSON array.
func WriteCompaniesJSON(path string, companies []types.CanonicalCompany) error {
	sorted := SortCompanies(companies)
	if sorted == nil {
		sorted = []types.CanonicalCompany{}
	}

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Message: "failed to marshal companies", Cause: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteError{Path: path, Message: "failed to write file", Cause: err}
	}
	return nil
}
