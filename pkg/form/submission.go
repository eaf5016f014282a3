package form

import (
	"net/url"

	"standardizer/pkg/schema"
)

// Form field names used by the HTML page. Plot fields are posted as
// "sel_<key>" (option value) and "txt_<key>" (manual entry text).
const (
	FieldSelectPrefix  = "sel_"
	FieldManualPrefix  = "txt_"
	FieldCertification = "cert"
	FieldOrigin        = "origin"
	FieldSupplierCode  = "supplier_code"
	FieldSupplyChain   = "supply_chain"
	FieldOtherCertName = "other_certification"
)

// FieldInput is the posted state of one plot field. A nil Manual keeps the
// stored manual text.
type FieldInput struct {
	Selection string  `json:"selection"`
	Manual    *string `json:"manual,omitempty"`
}

// ManualInput returns the input selecting manual entry with the given text.
func ManualInput(text string) FieldInput {
	return FieldInput{Selection: ValueManual, Manual: &text}
}

// Submission is a whole mapping form post. Fields absent from Fields are left
// untouched. A nil Certifications leaves the flags untouched; a non-nil slice
// is the exact set of checked labels. An empty Origin keeps the current one.
type Submission struct {
	Fields                 map[string]FieldInput `json:"fields,omitempty"`
	Certifications         []string              `json:"certifications"`
	Origin                 string                `json:"origin,omitempty"`
	SupplierCode           *string               `json:"supplierCode,omitempty"`
	SupplyChain            *string               `json:"supplyChain,omitempty"`
	OtherCertificationName *string               `json:"otherCertificationName,omitempty"`
}

// SubmissionFromValues decodes an HTML form post. The page always posts every
// field, so unchecked certifications are cleared.
func SubmissionFromValues(v url.Values) Submission {
	sub := Submission{
		Fields:         make(map[string]FieldInput, len(schema.PlotFields)),
		Certifications: []string{},
		Origin:         v.Get(FieldOrigin),
	}
	for _, f := range schema.PlotFields {
		sel, hasSel := v[FieldSelectPrefix+f.Key]
		txt, hasTxt := v[FieldManualPrefix+f.Key]
		if !hasSel && !hasTxt {
			continue
		}
		var in FieldInput
		if len(sel) > 0 {
			in.Selection = sel[0]
		}
		if hasTxt {
			text := ""
			if len(txt) > 0 {
				text = txt[0]
			}
			in.Manual = &text
		}
		sub.Fields[f.Key] = in
	}
	sub.Certifications = append(sub.Certifications, v[FieldCertification]...)
	sub.SupplierCode = optional(v, FieldSupplierCode)
	sub.SupplyChain = optional(v, FieldSupplyChain)
	sub.OtherCertificationName = optional(v, FieldOtherCertName)
	return sub
}

// Apply validates a submission against the dataset columns and applies it in
// full, or not at all.
func (s *State) Apply(sub Submission, columns []string) error {
	next := s.Clone()
	for key, in := range sub.Fields {
		if err := next.Select(key, in.Selection, columns); err != nil {
			return err
		}
		if in.Manual == nil {
			continue
		}
		if err := next.SetManualText(key, *in.Manual); err != nil {
			return err
		}
	}
	if sub.Certifications != nil {
		for _, c := range schema.Certifications {
			next.Certifications[c.Label] = false
		}
		for _, label := range sub.Certifications {
			if err := next.Certify(label, true); err != nil {
				return err
			}
		}
	}
	if sub.Origin != "" {
		if err := next.SetOrigin(sub.Origin); err != nil {
			return err
		}
	}
	if sub.SupplierCode != nil {
		next.SupplierCode = *sub.SupplierCode
	}
	if sub.SupplyChain != nil {
		next.SupplyChain = *sub.SupplyChain
	}
	if sub.OtherCertificationName != nil {
		next.OtherCertificationName = *sub.OtherCertificationName
	}
	*s = *next
	return nil
}

func optional(v url.Values, key string) *string {
	vals, ok := v[key]
	if !ok {
		return nil
	}
	out := ""
	if len(vals) > 0 {
		out = vals[0]
	}
	return &out
}
