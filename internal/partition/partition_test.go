package partition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/company-extractor/internal/types"
)

func TestSplitSectors(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Tech", []string{"Tech"}},
		{"Tech; Finance, Tech", []string{"Tech", "Finance", "Tech"}},
		{"  IT ;Health  ", []string{"IT", "Health"}},
		{"", []string{}},
		{";,", []string{}},
		{" ; , ;", []string{}},
		{"Agri-tech;;E-commerce", []string{"Agri-tech", "E-commerce"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitSectors(tt.input))
		})
	}
}

func TestPartition_FanOutKeepsDuplicates(t *testing.T) {
	raws := []string{`{"EntrepriseName":"Acme","EntrepriseSecteurActivite":"Tech; Finance, Tech"}`}

	b := Partition(raws)
	assert.Equal(t, []string{"Tech", "Finance"}, b.Names)
	assert.Len(t, b.Get("Tech"), 2)
	assert.Len(t, b.Get("Finance"), 1)
	assert.Equal(t, "Acme", b.Get("Finance")[0].EntrepriseName)
}

func TestPartition_SentinelBucket(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty sector", `{"EntrepriseName":"A","EntrepriseSecteurActivite":""}`},
		{"only delimiters", `{"EntrepriseName":"A","EntrepriseSecteurActivite":";,"}`},
		{"missing sector", `{"EntrepriseName":"A"}`},
		{"null sector", `{"EntrepriseName":"A","EntrepriseSecteurActivite":null}`},
		{"unparseable raw", `{not json`},
		{"empty raw", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Partition([]string{tt.raw})
			assert.Equal(t, []string{NoSectorBucket}, b.Names)
			assert.Len(t, b.Get(NoSectorBucket), 1)
		})
	}
}

func TestPartition_AppendOrderAcrossRows(t *testing.T) {
	raws := []string{
		`{"EntrepriseName":"Zeta","EntrepriseSecteurActivite":"Health"}`,
		`{"EntrepriseName":"Alpha","EntrepriseSecteurActivite":"IT, Health"}`,
		`{"EntrepriseName":"Mid","EntrepriseSecteurActivite":"IT"}`,
	}

	b := Partition(raws)
	assert.Equal(t, []string{"Health", "IT"}, b.Names)

	health := b.Get("Health")
	require.Len(t, health, 2)
	assert.Equal(t, "Zeta", health[0].EntrepriseName)
	assert.Equal(t, "Alpha", health[1].EntrepriseName)

	it := b.Get("IT")
	require.Len(t, it, 2)
	assert.Equal(t, "Alpha", it[0].EntrepriseName)
	assert.Equal(t, "Mid", it[1].EntrepriseName)
}

func TestPartition_CopiesAreIndependent(t *testing.T) {
	b := Partition([]string{`{"EntrepriseName":"Acme","EntrepriseSecteurActivite":"A;B"}`})

	b.Records["A"][0].EntrepriseName = "changed"
	assert.Equal(t, "Acme", b.Get("B")[0].EntrepriseName)
}

func TestPartitioner_Stats(t *testing.T) {
	raws := []string{
		`{"EntrepriseName":"A","EntrepriseSecteurActivite":"X;Y"}`,
		`garbage`,
		`{"EntrepriseName":"C"}`,
	}

	b, stats := New(nil).Partition(raws)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, Stats{Rows: 3, Unparsed: 1, NoSector: 2, Placements: 4}, stats)
}

func TestPartition_DirectoryPage(t *testing.T) {
	raws := []string{`{"Name":"Acme","Secteur":"IT; Health"}`}

	b := Partition(raws)
	files := map[string]int{}
	for _, name := range b.Names {
		files[FileName("sector_", name)] = len(b.Get(name))
	}
	assert.Equal(t, map[string]int{"sector_it.csv": 1, "sector_health.csv": 1}, files)
	assert.Equal(t, "Acme", b.Get("IT")[0].EntrepriseName)
	assert.Equal(t, "IT; Health", b.Get("Health")[0].EntrepriseSecteurActivite)
}

func TestProjectRow_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		row        Row
		raw        string
		wantName   string
		wantSector string
	}{
		{
			name:       "payload fields win",
			row:        Row{Name: "Canon", Sector: "Other"},
			raw:        `{"EntrepriseName":"Acme","EntrepriseSecteurActivite":"IT"}`,
			wantName:   "Acme",
			wantSector: "IT",
		},
		{
			name:       "canonical columns fill gaps",
			row:        Row{Name: "Canon", Sector: "Finance"},
			raw:        `{"Nom":"Beta","Secteur":"IT"}`,
			wantName:   "Canon",
			wantSector: "Finance",
		},
		{
			name:       "aliases when the row is bare",
			raw:        `{"Nom":"Beta","category":"Retail"}`,
			wantName:   "Beta",
			wantSector: "Retail",
		},
		{
			name:       "falsy aliases stay empty",
			raw:        `{"Name":"","Sector":0}`,
			wantName:   "",
			wantSector: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ProjectRow(tt.row, ParseRaw(tt.raw).Record)
			assert.Equal(t, tt.wantName, rec.EntrepriseName)
			assert.Equal(t, tt.wantSector, rec.EntrepriseSecteurActivite)
		})
	}
}

func TestPartitionRows_CanonicalSector(t *testing.T) {
	rows := []Row{
		{Name: "Acme", Sector: "Tech; Finance", Raw: `{"title":"Acme"}`},
		{Name: "Beta", Raw: `{"Nom":"Beta"}`},
	}

	b, stats := New(nil).PartitionRows(rows)
	assert.Equal(t, []string{"Tech", "Finance", NoSectorBucket}, b.Names)
	assert.Equal(t, "Beta", b.Get(NoSectorBucket)[0].EntrepriseName)
	assert.Equal(t, Stats{Rows: 2, NoSector: 1, Placements: 3}, stats)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"IT", "it"},
		{"Health", "health"},
		{"  Agri Tech  ", "agri_tech"},
		{"Green   Energy\tand\nClimate", "green_energy_and_climate"},
		{"E-Commerce & Retail", "e-commerce__retail"},
		{"Santé", "sant"},
		{"NO_SECTEUR", "no_secteur"},
		{"***", UnknownSlug},
		{"", UnknownSlug},
		{strings.Repeat("a", 200), strings.Repeat("a", 120)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeName(tt.input))
		})
	}
}

func TestSanitizeName_Idempotent(t *testing.T) {
	inputs := []string{
		"IT", "  Agri Tech ", "E-Commerce & Retail", "Santé Numérique", "",
		"***", strings.Repeat("x y ", 80), "already_clean-slug",
	}

	for _, input := range inputs {
		once := SanitizeName(input)
		assert.Equal(t, once, SanitizeName(once), "input %q", input)
	}
}

func TestParseRaw(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		ok       bool
		wantName string
	}{
		{"plain", `{"EntrepriseName":"Acme"}`, true, "Acme"},
		{"double encoded", `"{\"EntrepriseName\":\"Acme\"}"`, true, "Acme"},
		{"wrapped in stray quotes", `"{"EntrepriseName":"Acme"}"`, true, "Acme"},
		{"empty", ``, false, ""},
		{"garbage", `<<<`, false, ""},
		{"array", `[{"EntrepriseName":"Acme"}]`, false, ""},
		{"number", `42`, false, ""},
		{"string of garbage", `"hello"`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRaw(tt.raw)
			assert.Equal(t, tt.ok, got.OK)
			require.True(t, got.Record.IsMapping())
			assert.Equal(t, tt.wantName, Project(got.Record).EntrepriseName)
		})
	}
}

func TestProject(t *testing.T) {
	rec, err := types.DecodeString(`{
		"Id": 12,
		"EntrepriseNom": "Beta",
		"EntrepriseName": "",
		"EntrepriseVille": "Rabat",
		"EntrepriseTechnologie": ["AI", "IoT"],
		"EntrepriseContactSiteWeb": "https://beta.ma",
		"EntrepriseContactPhone": 212600000000,
		"EntrepriseContactName": "Sara",
		"EntrepriseContactEmail": "sara@beta.ma",
		"EntrepriseLogo": null,
		"Activite": "Paiement mobile",
		"EntrepriseSecteurActivite": "Fintech"
	}`)
	require.NoError(t, err)

	assert.Equal(t, types.SectorRecord{
		EntrepriseName:            "Beta",
		EntrepriseVille:           "Rabat",
		EntrepriseTechnologie:     `["AI","IoT"]`,
		EntrepriseContactSiteWeb:  "https://beta.ma",
		EntrepriseContactPhone:    "212600000000",
		EntrepriseContactName:     "Sara",
		EntrepriseContactEmail:    "sara@beta.ma",
		EntrepriseLogo:            "",
		Activite:                  "Paiement mobile",
		EntrepriseSecteurActivite: "Fintech",
	}, Project(rec))
}

func TestProject_EmptyRecord(t *testing.T) {
	assert.Equal(t, types.SectorRecord{}, Project(types.Mapping()))
}
