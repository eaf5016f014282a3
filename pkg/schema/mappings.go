package schema

import (
	"strings"
)

// PlotField is a plot-identifier field whose value the user maps from a
// source column, a manual literal, or nothing.
type PlotField struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Column string `json:"column"`
}

// Plot-identifier field keys.
const (
	FieldPlotID       = "pid"
	FieldFarmerID     = "fid"
	FieldPlotRegion   = "preg"
	FieldPlotDistrict = "pdist"
)

// PlotFields lists the mappable plot-identifier fields in form order.
var PlotFields = []PlotField{
	{Key: FieldPlotID, Label: "Plot ID", Column: ColSupplierPlotID},
	{Key: FieldFarmerID, Label: "Farmer ID", Column: ColFarmerID},
	{Key: FieldPlotRegion, Label: "Plot Region", Column: ColPlotRegion},
	{Key: FieldPlotDistrict, Label: "Plot District", Column: ColPlotDistrict},
}

// LookupField returns the plot field with the given key.
func LookupField(key string) (PlotField, bool) {
	for _, f := range PlotFields {
		if f.Key == key {
			return f, true
		}
	}
	return PlotField{}, false
}

// Certification is one certification toggle. Column is the boolean output
// column; the "Other" label has none and instead carries a free-text name.
type Certification struct {
	Label  string `json:"label"`
	Column string `json:"column,omitempty"`
}

// CertificationOther is the label whose toggle reveals the other-certification name.
const CertificationOther = "Other"

// Certifications lists the certification toggles in display order.
var Certifications = []Certification{
	{Label: "Is Geodata Validated?", Column: ColIsGeodataValidated},
	{Label: "Cafe Practices", Column: ColIsCafePracticesCertified},
	{Label: "RFA_UTZ", Column: ColIsRFAUTZCertified},
	{Label: "Impact", Column: ColIsImpactCertified},
	{Label: "Organic", Column: ColIsOrganicCertified},
	{Label: "4C", Column: ColIs4CCertified},
	{Label: "Fair Trade", Column: ColIsFairtradeCertified},
	{Label: CertificationOther},
}

// CertificationLabels returns the certification labels in display order.
func CertificationLabels() []string {
	out := make([]string, len(Certifications))
	for i, c := range Certifications {
		out[i] = c.Label
	}
	return out
}

// Origins is the closed list of producing countries offered by the Origin select.
var Origins = []string{
	"Brazil", "Colombia", "Costa Rica", "Ethiopia", "Guatemala", "Honduras",
	"India", "Indonesia", "Kenya", "Laos", "Mexico", "Nicaragua", "Peru",
	"Rwanda", "Tanzania", "Uganda", "Vietnam",
}

// IsOrigin reports whether name is one of Origins.
func IsOrigin(name string) bool {
	for _, o := range Origins {
		if o == name {
			return true
		}
	}
	return false
}

// HeaderMappings maps normalized header names to plot field keys.
var HeaderMappings = map[string]string{
	// Plot ID
	"plotid":         FieldPlotID,
	"plotcode":       FieldPlotID,
	"plotno":         FieldPlotID,
	"plotnumber":     FieldPlotID,
	"supplierplotid": FieldPlotID,
	"parcelid":       FieldPlotID,
	"parcela":        FieldPlotID,
	"fieldid":        FieldPlotID,
	"farmid":         FieldPlotID,
	"idplot":         FieldPlotID,

	// Farmer ID
	"farmerid":    FieldFarmerID,
	"farmercode":  FieldFarmerID,
	"farmerno":    FieldFarmerID,
	"producerid":  FieldFarmerID,
	"productorid": FieldFarmerID,
	"growerid":    FieldFarmerID,
	"memberid":    FieldFarmerID,
	"idproductor": FieldFarmerID,
	"cedula":      FieldFarmerID,
	"nationalid":  FieldFarmerID,

	// Region
	"region":       FieldPlotRegion,
	"plotregion":   FieldPlotRegion,
	"province":     FieldPlotRegion,
	"provincia":    FieldPlotRegion,
	"state":        FieldPlotRegion,
	"estado":       FieldPlotRegion,
	"departamento": FieldPlotRegion,
	"zone":         FieldPlotRegion,

	// District
	"district":     FieldPlotDistrict,
	"plotdistrict": FieldPlotDistrict,
	"municipality": FieldPlotDistrict,
	"municipio":    FieldPlotDistrict,
	"county":       FieldPlotDistrict,
	"subcounty":    FieldPlotDistrict,
	"woreda":       FieldPlotDistrict,
	"canton":       FieldPlotDistrict,
}

// substringMappings maps substrings to plot field keys for fuzzy inference.
// Order matters: more specific substrings should come before generic ones.
var substringMappings = []struct {
	Substring string
	Target    string
}{
	{"farmer", FieldFarmerID},
	{"producer", FieldFarmerID},
	{"productor", FieldFarmerID},
	{"grower", FieldFarmerID},
	{"plot", FieldPlotID},
	{"parcel", FieldPlotID},
	{"district", FieldPlotDistrict},
	{"municip", FieldPlotDistrict},
	{"woreda", FieldPlotDistrict},
	{"region", FieldPlotRegion},
	{"province", FieldPlotRegion},
	{"provincia", FieldPlotRegion},
}

// SuggestMappings takes the source column names and returns a map of plot
// field key -> column name. Each field and each column is used at most once:
//  1. Normalize (lowercase, strip diacritics and separators)
//  2. Exact match against HeaderMappings, across all headers first
//  3. Substring match for the headers still unmatched
//  4. Edit-distance match against HeaderMappings keys
//  5. No match -> leave unmapped
func SuggestMappings(headers []string) map[string]string {
	result := make(map[string]string, len(PlotFields))
	matched := make(map[string]bool, len(headers))

	for _, header := range headers {
		target, ok := HeaderMappings[normalizeHeader(header)]
		if !ok {
			continue
		}
		if _, used := result[target]; !used {
			result[target] = header
			matched[header] = true
		}
	}

	for _, header := range headers {
		if matched[header] {
			continue
		}
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}

		if target := substringTarget(normalized); target != "" {
			if _, used := result[target]; !used {
				result[target] = header
			}
			continue
		}

		if target, ok := newHeaderMatcher(normalized).closest(result); ok {
			result[target] = header
		}
	}

	return result
}

// substringTarget returns the field of the first substring rule that matches.
func substringTarget(normalized string) string {
	for _, sm := range substringMappings {
		if strings.Contains(normalized, sm.Substring) {
			return sm.Target
		}
	}
	return ""
}
