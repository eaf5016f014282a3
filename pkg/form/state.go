package form

import (
	"fmt"

	"standardizer/pkg/schema"
)

// State is the mapping form of one session.
type State struct {
	Selections             map[string]Selection `json:"selections"`
	Certifications         map[string]bool      `json:"certifications"`
	Origin                 string               `json:"origin"`
	SupplierCode           string               `json:"supplierCode"`
	SupplyChain            string               `json:"supplyChain"`
	OtherCertificationName string               `json:"otherCertificationName"`
}

// StaleSelection reports a column selection dropped because the column is
// missing from the newly uploaded dataset.
type StaleSelection struct {
	Field  string `json:"field"`
	Column string `json:"column"`
}

// New returns a form with every field unset, every certification false and
// the first origin selected.
func New() *State {
	s := &State{
		Selections:     make(map[string]Selection, len(schema.PlotFields)),
		Certifications: make(map[string]bool, len(schema.Certifications)),
		Origin:         schema.Origins[0],
	}
	for _, f := range schema.PlotFields {
		s.Selections[f.Key] = Selection{}
	}
	for _, c := range schema.Certifications {
		s.Certifications[c.Label] = false
	}
	return s
}

// Selection returns the current selection of a field.
func (s *State) Selection(key string) (Selection, error) {
	sel, ok := s.Selections[key]
	if !ok {
		if _, known := schema.LookupField(key); !known {
			return Selection{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return sel, nil
}

// Select sets a field from an option value. Column values must name one of columns.
func (s *State) Select(key, value string, columns []string) error {
	sel, err := s.Selection(key)
	if err != nil {
		return err
	}
	mode, column, err := ParseValue(value)
	if err != nil {
		return err
	}
	if mode == ModeColumn && !contains(columns, column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	sel.Mode = mode
	sel.Column = column
	s.Selections[key] = sel
	return nil
}

// SetManualText records the manual entry text of a field without changing its mode.
func (s *State) SetManualText(key, text string) error {
	sel, err := s.Selection(key)
	if err != nil {
		return err
	}
	sel.ManualText = text
	s.Selections[key] = sel
	return nil
}

// Resolve returns the value source of a field.
func (s *State) Resolve(key string) (schema.Source, error) {
	sel, err := s.Selection(key)
	if err != nil {
		return schema.Source{}, err
	}
	return sel.Resolve(), nil
}

// Toggle flips one certification and leaves the others untouched.
func (s *State) Toggle(label string) error {
	if !isCertification(label) {
		return fmt.Errorf("%w: %q", ErrUnknownCertification, label)
	}
	s.Certifications[label] = !s.Certifications[label]
	return nil
}

// Certify sets one certification.
func (s *State) Certify(label string, on bool) error {
	if !isCertification(label) {
		return fmt.Errorf("%w: %q", ErrUnknownCertification, label)
	}
	s.Certifications[label] = on
	return nil
}

// SetOrigin selects an origin from schema.Origins.
func (s *State) SetOrigin(origin string) error {
	if !schema.IsOrigin(origin) {
		return fmt.Errorf("%w: %q", ErrUnknownOrigin, origin)
	}
	s.Origin = origin
	return nil
}

// Reconcile resets column selections that reference columns absent from the
// new dataset. Manual and unset selections, and columns still present, are kept.
func (s *State) Reconcile(columns []string) []StaleSelection {
	var stale []StaleSelection
	for _, f := range schema.PlotFields {
		sel := s.Selections[f.Key]
		if sel.Mode != ModeColumn || contains(columns, sel.Column) {
			continue
		}
		stale = append(stale, StaleSelection{Field: f.Key, Column: sel.Column})
		sel.Mode = ModeUnset
		sel.Column = ""
		s.Selections[f.Key] = sel
	}
	return stale
}

// ApplySuggestions selects suggested columns for fields that are still unset.
func (s *State) ApplySuggestions(suggested map[string]string) {
	for _, f := range schema.PlotFields {
		column, ok := suggested[f.Key]
		if !ok {
			continue
		}
		sel := s.Selections[f.Key]
		if sel.Mode != ModeUnset {
			continue
		}
		sel.Mode = ModeColumn
		sel.Column = column
		s.Selections[f.Key] = sel
	}
}

// Mapping returns the resolved form output.
func (s *State) Mapping() schema.Mapping {
	m := schema.Mapping{
		Fields:                 make(map[string]schema.Source, len(schema.PlotFields)),
		Origin:                 s.Origin,
		SupplierCode:           s.SupplierCode,
		SupplyChain:            s.SupplyChain,
		Certifications:         make(map[string]bool, len(s.Certifications)),
		OtherCertificationName: s.OtherCertificationName,
	}
	for _, f := range schema.PlotFields {
		m.Fields[f.Key] = s.Selections[f.Key].Resolve()
	}
	for label, on := range s.Certifications {
		m.Certifications[label] = on
	}
	return m
}

// Clone returns a deep copy of the form.
func (s *State) Clone() *State {
	c := *s
	c.Selections = make(map[string]Selection, len(s.Selections))
	for k, v := range s.Selections {
		c.Selections[k] = v
	}
	c.Certifications = make(map[string]bool, len(s.Certifications))
	for k, v := range s.Certifications {
		c.Certifications[k] = v
	}
	return &c
}

func isCertification(label string) bool {
	for _, c := range schema.Certifications {
		if c.Label == label {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
