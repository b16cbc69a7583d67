package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/company-extractor/internal/types"
)

// ForestFile is the on-disk form of a capture.
type ForestFile struct {
	Sources []types.CaptureSource `json:"sources"`
	Forest  []types.Value         `json:"forest"`
}

// WriteForest saves a captured forest with its sources as indented JSON.
func WriteForest(path string, forest []types.Value, sources []types.CaptureSource) error {
	if forest == nil {
		forest = []types.Value{}
	}
	if sources == nil {
		sources = []types.CaptureSource{}
	}

	data, err := json.MarshalIndent(ForestFile{Sources: sources, Forest: forest}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal forest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write forest file %s: %w", path, err)
	}
	return nil
}

// ReadForest loads a forest file. Besides the ForestFile document it accepts a
// bare JSON array, whose elements are taken as the forest.
func ReadForest(path string) (*ForestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read forest file %s: %w", path, err)
	}
	return ParseForest(data)
}

// ParseForest decodes forest file content.
func ParseForest(data []byte) (*ForestFile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var forest []types.Value
		if err := json.Unmarshal(trimmed, &forest); err != nil {
			return nil, fmt.Errorf("failed to parse forest JSON: %w", err)
		}
		return &ForestFile{Forest: forest}, nil
	}

	var file ForestFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("failed to parse forest JSON: %w", err)
	}
	return &file, nil
}
