package types

// CanonicalCompany is a discovered record mapped onto the fixed extract schema.
// Raw holds the compact JSON of the original record, every key included.
type CanonicalCompany struct {
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Raw         string `json:"raw"`
}

// SectorRecord is the per-sector projection of a company, re-parsed from the raw payload.
type SectorRecord struct {
	EntrepriseName            string `json:"EntrepriseName"`
	EntrepriseVille           string `json:"EntrepriseVille"`
	EntrepriseTechnologie     string `json:"EntrepriseTechnologie"`
	EntrepriseContactSiteWeb  string `json:"EntrepriseContactSiteWeb"`
	EntrepriseContactPhone    string `json:"EntrepriseContactPhone"`
	EntrepriseContactName     string `json:"EntrepriseContactName"`
	EntrepriseContactEmail    string `json:"EntrepriseContactEmail"`
	EntrepriseLogo            string `json:"EntrepriseLogo"`
	Activite                  string `json:"Activite"`
	EntrepriseSecteurActivite string `json:"EntrepriseSecteurActivite"`
}

// SectorColumns is the column order of a per-sector extract.
var SectorColumns = []string{
	"EntrepriseName",
	"EntrepriseVille",
	"EntrepriseTechnologie",
	"EntrepriseContactSiteWeb",
	"EntrepriseContactPhone",
	"EntrepriseContactName",
	"EntrepriseContactEmail",
	"EntrepriseLogo",
	"Activite",
	"EntrepriseSecteurActivite",
}

// Row returns the record's cells in SectorColumns order.
func (r SectorRecord) Row() []string {
	return []string{
		r.EntrepriseName,
		r.EntrepriseVille,
		r.EntrepriseTechnologie,
		r.EntrepriseContactSiteWeb,
		r.EntrepriseContactPhone,
		r.EntrepriseContactName,
		r.EntrepriseContactEmail,
		r.EntrepriseLogo,
		r.Activite,
		r.EntrepriseSecteurActivite,
	}
}

// CaptureSource describes one captured page.
type CaptureSource struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"` // RFC3339 format
	Mode      string `json:"mode"`      // "browser" or "static"
	Entries   int    `json:"entries"`   // number of forest trees contributed
}
