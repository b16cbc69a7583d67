package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/company-extractor/internal/extract"
	"github.com/jonathan/company-extractor/internal/locate"
	"github.com/jonathan/company-extractor/internal/partition"
	"github.com/jonathan/company-extractor/internal/types"
)

func TestPrintLocateResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	res := &locate.Result{
		Records: []types.Value{
			types.Mapping(
				types.M("EntrepriseName", types.String("Acme")),
				types.M("EntrepriseVille", types.String("Rabat")),
			),
		},
		Stage: locate.StageFallback,
		Tree:  2,
	}

	p.PrintLocateResult(res, 7)
	output := buf.String()

	assert.Contains(t, output, "RECORD LIST LOCATED")
	assert.Contains(t, output, "fallback")
	assert.Contains(t, output, "Forest entries: 7")
	assert.Contains(t, output, "EntrepriseName, EntrepriseVille")
}

func TestPrintLocateResult_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLocateResult(nil, 3)

	assert.Empty(t, buf.String())
}

func TestPrintCompanies(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	companies := []types.CanonicalCompany{
		{Name: "Acme", Sector: "IT", Website: "acme.ma"},
		{Sector: "Health"},
	}
	for i := 0; i < 6; i++ {
		companies = append(companies, types.CanonicalCompany{Name: fmt.Sprintf("Extra %d", i)})
	}

	p.PrintCompanies(companies)
	output := buf.String()

	assert.Contains(t, output, "NORMALIZED COMPANIES")
	assert.Contains(t, output, "Normalized 8 companies")
	assert.Contains(t, output, "acme.ma")
	assert.Contains(t, output, "(no name)")
	assert.Contains(t, output, "... and 3 more")
	assert.NotContains(t, output, "Extra 5")
}

func TestPrintCompanies_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCompanies(nil)
	assert.Empty(t, buf.String())
}

func TestPrintPartitionStats(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintPartitionStats(partition.Stats{Rows: 3, Unparsed: 1, NoSector: 1, Placements: 4}, 3)
	output := buf.String()

	assert.Contains(t, output, "SECTOR PARTITION")
	assert.Contains(t, output, "Placements:       4")
	assert.Contains(t, output, "Buckets:          3")
}

func TestPrintSectorFiles(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSectorFiles([]extract.SectorFile{
		{Sector: "IT", Path: "by_sector/sector_it.csv", Rows: 1},
		{Sector: "Health", Path: "by_sector/sector_health.csv", Rows: 5},
	})
	output := buf.String()

	assert.Contains(t, output, "Wrote 2 sector files")
	assert.Less(t, strings.Index(output, "Health"), strings.Index(output, "IT"), "larger sector listed first")
}

func TestPrintSectorFiles_None(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSectorFiles(nil)
	assert.Contains(t, buf.String(), "No sector files written")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 200))
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "..."))
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}
