package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/types"
)

// DefaultSectorPrefix is prepended to every sector file name.
const DefaultSectorPrefix = "sector_"

// SectorFile describes one written sector extract.
type SectorFile struct {
	Sector string
	Path   string
	Rows   int
}

// WriteSector writes one sector extract to w, rows in the given order.
func WriteSector(w io.Writer, records []types.SectorRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.SectorColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write row for %q: %w", r.EntrepriseName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSectors writes one file per bucket into dir, in bucket order, creating
// dir when needed. Buckets whose names sanitize to the same slug share a file
// and the later bucket overwrites the earlier one. The returned list has one
// entry per file on disk, describing the bucket the file finally holds.
func WriteSectors(dir, prefix string, buckets *partition.Buckets) ([]SectorFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &WriteError{Path: dir, Message: "failed to create output directory", Cause: err}
	}

	files := make([]SectorFile, 0, buckets.Len())
	written := make(map[string]int, buckets.Len())
	for _, name := range buckets.Names {
		records := buckets.Get(name)
		path := filepath.Join(dir, partition.FileName(prefix, name))

		f, err := os.Create(path)
		if err != nil {
			return files, &WriteError{Path: path, Message: "failed to create file", Cause: err}
		}
		if err := WriteSector(f, records); err != nil {
			_ = f.Close()
			return files, &WriteError{Path: path, Message: "failed to write sector", Cause: err}
		}
		if err := f.Close(); err != nil {
			return files, &WriteError{Path: path, Message: "failed to close file", Cause: err}
		}

		file := SectorFile{Sector: name, Path: path, Rows: len(records)}
		if i, ok := written[path]; ok {
			files[i] = file
			continue
		}
		written[path] = len(files)
		files = append(files, file)
	}
	return files, nil
}
