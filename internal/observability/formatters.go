// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/company-extractor/internal/extract"
	"github.com/jonathan/company-extractor/internal/locate"
	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len([]rune(line)) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintLocateResult outputs which heuristic found the record list and a preview of it.
func (p *Printer) PrintLocateResult(res *locate.Result, forestSize int) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Forest entries: %d\n", forestSize))
	sb.WriteString(fmt.Sprintf("Stage:          %s\n", res.Stage))
	sb.WriteString(fmt.Sprintf("Tree index:     %d\n", res.Tree))
	sb.WriteString(fmt.Sprintf("Records:        %d\n", len(res.Records)))

	if len(res.Records) > 0 {
		first := res.Records[0]
		if members := first.Members(); len(members) > 0 {
			keys := make([]string, 0, len(members))
			for _, m := range members {
				keys = append(keys, m.Key)
			}
			sb.WriteString("\nKeys of first record:\n")
			sb.WriteString(fmt.Sprintf("  %s\n", truncate(strings.Join(keys, ", "), 50)))
		}
	}

	p.printBox("RECORD LIST LOCATED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCompanies outputs the first normalized companies.
func (p *Printer) PrintCompanies(companies []types.CanonicalCompany) {
	if len(companies) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Normalized %d companies:\n\n", len(companies)))

	count := min(len(companies), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := companies[i]
		name := c.Name
		if name == "" {
			name = "(no name)"
		}
		sb.WriteString(fmt.Sprintf("• %s\n", truncate(name, 50)))
		if c.Sector != "" {
			sb.WriteString(fmt.Sprintf("  Sector:  %s\n", truncate(c.Sector, 40)))
		}
		if c.Website != "" {
			sb.WriteString(fmt.Sprintf("  Website: %s\n", truncate(c.Website, 40)))
		}
	}

	if len(companies) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(companies)-maxItemsToShow))
	}

	p.printBox("NORMALIZED COMPANIES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPartitionStats outputs the counters of a partition run.
func (p *Printer) PrintPartitionStats(stats partition.Stats, buckets int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rows read:        %d\n", stats.Rows))
	sb.WriteString(fmt.Sprintf("Unparsed payload: %d\n", stats.Unparsed))
	sb.WriteString(fmt.Sprintf("Without sector:   %d\n", stats.NoSector))
	sb.WriteString(fmt.Sprintf("Placements:       %d\n", stats.Placements))
	sb.WriteString(fmt.Sprintf("Buckets:          %d", buckets))

	p.printBox("SECTOR PARTITION", sb.String())
}

// PrintSectorFiles outputs the largest sector files written.
func (p *Printer) PrintSectorFiles(files []extract.SectorFile) {
	if len(files) == 0 {
		p.printBox("SECTOR FILES", "No sector files written")
		return
	}

	sorted := make([]extract.SectorFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rows > sorted[j].Rows })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Wrote %d sector files:\n\n", len(files)))

	count := min(len(sorted), maxItemsToShow)
	for i := 0; i < count; i++ {
		f := sorted[i]
		sb.WriteString(fmt.Sprintf("%4d  %s\n", f.Rows, truncate(f.Sector, 45)))
	}

	if len(sorted) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(sorted)-maxItemsToShow))
	}

	p.printBox("SECTOR FILES", strings.TrimSuffix(sb.String(), "\n"))
}
