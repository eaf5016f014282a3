package form

import (
	"errors"
	"fmt"
	"strings"

	"standardizer/pkg/schema"
)

var (
	// ErrUnknownField is returned for a plot field key outside schema.PlotFields.
	ErrUnknownField = errors.New("unknown field")
	// ErrUnknownColumn is returned when a selection names a column the dataset lacks.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidOption is returned for an option value that is not one of the tagged forms.
	ErrInvalidOption = errors.New("invalid option")
	// ErrUnknownOrigin is returned for an origin outside schema.Origins.
	ErrUnknownOrigin = errors.New("unknown origin")
	// ErrUnknownCertification is returned for a label outside schema.Certifications.
	ErrUnknownCertification = errors.New("unknown certification")
)

// Mode is the resolution mode of a plot field selection.
type Mode int

const (
	ModeUnset Mode = iota
	ModeManual
	ModeColumn
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeManual:
		return "manual"
	case ModeColumn:
		return "column"
	default:
		return "unknown"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	for _, c := range []Mode{ModeUnset, ModeManual, ModeColumn} {
		if c.String() == string(text) {
			*m = c
			return nil
		}
	}
	return fmt.Errorf("%w: mode %q", ErrInvalidOption, text)
}

// Option labels as shown in the select, and their tagged values.
const (
	LabelUnset  = "NULL"
	LabelManual = "--- Manual Entry ---"

	ValueUnset   = "unset"
	ValueManual  = "manual"
	columnPrefix = "column:"
)

// Option is one entry of a plot field select.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Options returns the select entries for a dataset's columns: unset, manual
// entry, then each column in dataset order.
func Options(columns []string) []Option {
	out := make([]Option, 0, len(columns)+2)
	out = append(out,
		Option{Value: ValueUnset, Label: LabelUnset},
		Option{Value: ValueManual, Label: LabelManual},
	)
	for _, c := range columns {
		out = append(out, Option{Value: ColumnValue(c), Label: c})
	}
	return out
}

// ColumnValue returns the option value that selects a column.
func ColumnValue(column string) string {
	return columnPrefix + column
}

// ParseValue splits an option value into its mode and, for columns, the column name.
func ParseValue(v string) (Mode, string, error) {
	switch {
	case v == ValueUnset || v == "":
		return ModeUnset, "", nil
	case v == ValueManual:
		return ModeManual, "", nil
	case strings.HasPrefix(v, columnPrefix):
		return ModeColumn, strings.TrimPrefix(v, columnPrefix), nil
	default:
		return ModeUnset, "", fmt.Errorf("%w: %q", ErrInvalidOption, v)
	}
}

// Selection is the state of one plot field. ManualText survives mode changes
// so the widget can show it again, but only ModeManual consults it.
type Selection struct {
	Mode       Mode   `json:"mode"`
	Column     string `json:"column,omitempty"`
	ManualText string `json:"manualText,omitempty"`
}

// Value returns the option value matching the selection.
func (s Selection) Value() string {
	switch s.Mode {
	case ModeManual:
		return ValueManual
	case ModeColumn:
		return ColumnValue(s.Column)
	default:
		return ValueUnset
	}
}

// Resolve maps the selection onto exactly one value source.
func (s Selection) Resolve() schema.Source {
	switch s.Mode {
	case ModeManual:
		return schema.Literal(s.ManualText)
	case ModeColumn:
		return schema.ColumnRef(s.Column)
	default:
		return schema.Null()
	}
}
