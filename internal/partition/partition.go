// Package partition splits company rows into per-sector buckets using the
// multi-valued sector field of each row's raw payload.
package partition

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/jonathan/company-extractor/internal/logging"
	"github.com/jonathan/company-extractor/internal/types"
)

const (
	// NoSectorBucket receives rows without any usable sector value.
	NoSectorBucket = "NO_SECTEUR"
	// UnknownSlug replaces a bucket name that sanitizes to nothing.
	UnknownSlug = "unknown"
	// maxSlugLength bounds sanitized bucket names.
	maxSlugLength = 120
)

// Buckets maps sector names to records. Names keeps first-seen order so that
// output files are written in a stable order.
type Buckets struct {
	Names   []string
	Records map[string][]types.SectorRecord
}

// NewBuckets returns an empty bucket set.
func NewBuckets() *Buckets {
	return &Buckets{Records: make(map[string][]types.SectorRecord)}
}

// Add appends a copy of rec to the named bucket.
func (b *Buckets) Add(name string, rec types.SectorRecord) {
	if _, ok := b.Records[name]; !ok {
		b.Names = append(b.Names, name)
	}
	b.Records[name] = append(b.Records[name], rec)
}

// Len returns the number of buckets.
func (b *Buckets) Len() int { return len(b.Names) }

// Get returns the records of a bucket in append order.
func (b *Buckets) Get(name string) []types.SectorRecord { return b.Records[name] }

// Stats summarizes a partition run.
type Stats struct {
	Rows       int
	Unparsed   int // rows whose raw payload fell back to the empty mapping
	NoSector   int
	Placements int // total appends across buckets
}

// Partition routes every raw payload into its sector buckets.
func Partition(raws []string) *Buckets {
	b, _ := New(nil).Partition(raws)
	return b
}

// Partitioner carries the logger used while partitioning.
type Partitioner struct {
	logger *zap.Logger
}

// New creates a Partitioner. A nil logger disables logging.
func New(logger *zap.Logger) *Partitioner {
	return &Partitioner{logger: logging.OrNop(logger)}
}

// Partition is the logging variant of the package-level Partition and also
// returns run statistics.
func (p *Partitioner) Partition(raws []string) (*Buckets, Stats) {
	rows := make([]Row, len(raws))
	for i, raw := range raws {
		rows[i] = Row{Raw: raw}
	}
	return p.PartitionRows(rows)
}

// PartitionRows routes extract rows into sector buckets. A row whose payload
// has no sector field uses its canonical sector instead.
func (p *Partitioner) PartitionRows(rows []Row) (*Buckets, Stats) {
	buckets := NewBuckets()
	stats := Stats{Rows: len(rows)}

	for i, row := range rows {
		parsed := ParseRaw(row.Raw)
		if !parsed.OK {
			stats.Unparsed++
			p.logger.Debug("raw payload unreadable, using empty record", zap.Int("row", i))
		}

		rec := ProjectRow(row, parsed.Record)
		parts := SplitSectors(rec.EntrepriseSecteurActivite)
		if len(parts) == 0 {
			buckets.Add(NoSectorBucket, rec)
			stats.NoSector++
			stats.Placements++
			continue
		}
		for _, part := range parts {
			buckets.Add(part, rec)
			stats.Placements++
		}
	}

	p.logger.Info("partitioned companies by sector",
		zap.Int("rows", stats.Rows),
		zap.Int("buckets", buckets.Len()),
		zap.Int("placements", stats.Placements),
		zap.Int("no_sector", stats.NoSector),
		zap.Int("unparsed", stats.Unparsed))

	return buckets, stats
}

// SplitSectors splits a sector field on ';' and ',', trims each part and drops
// empty ones. Repeated values are kept.
func SplitSectors(field string) []string {
	pieces := strings.FieldsFunc(field, func(r rune) bool {
		return r == ';' || r == ','
	})

	parts := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if piece = strings.TrimSpace(piece); piece != "" {
			parts = append(parts, piece)
		}
	}
	return parts
}

// SanitizeName turns a bucket name into a file-safe slug: lower-case,
// whitespace runs become '_', characters outside [a-z0-9_-] are dropped, the
// result is cut to 120 characters and falls back to "unknown" when empty.
func SanitizeName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))

	var sb strings.Builder
	inSpace := false
	for _, r := range lower {
		if unicode.IsSpace(r) {
			if !inSpace {
				sb.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}

	slug := sb.String()
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	if slug == "" {
		return UnknownSlug
	}
	return slug
}

// FileName is the extract file name for a bucket.
func FileName(prefix, bucket string) string {
	return prefix + SanitizeName(bucket) + ".csv"
}
