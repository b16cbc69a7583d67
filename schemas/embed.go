// Package schemas embeds the JSON Schemas for the artifacts company_agent writes.
package schemas

import _ "embed"

// CapturedForest describes the forest file written by the capture command.
//
//go:embed captured_forest.schema.json
var CapturedForest string

// Companies describes the companies.json export.
//
//go:embed companies.schema.json
var Companies string
