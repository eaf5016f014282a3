package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when no parser is registered for a file extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile is returned when the input holds no header row at all.
	ErrEmptyFile = errors.New("empty file")
	// ErrNoHeader is returned when skipping leading rows consumes the whole file.
	ErrNoHeader = errors.New("no header row")
	// ErrInvalidOptions is returned for out-of-range parse options.
	ErrInvalidOptions = errors.New("invalid parse options")
)

// Options carries per-upload parse parameters. SkipRows only applies to
// delimited text.
type Options struct {
	SkipRows int `json:"skipRows"`
}

// Parser turns the content of one uploaded file into a Dataset.
type Parser interface {
	Parse(r io.Reader, opts Options) (*Dataset, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(r io.Reader, opts Options) (*Dataset, error)

// Parse calls f(r, opts).
func (f ParserFunc) Parse(r io.Reader, opts Options) (*Dataset, error) {
	return f(r, opts)
}

// Registry maps lower-cased file extensions (without the dot) to parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// DefaultRegistry returns a registry with the delimited text, spreadsheet and
// both geospatial parsers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("csv", CSV{})
	r.Register("xlsx", XLSX{})
	r.Register("geojson", GeoJSON{})
	r.Register("kml", KML{})
	return r
}

// Register binds a parser to an extension, replacing any previous binding.
func (r *Registry) Register(ext string, p Parser) {
	r.parsers[normalizeExt(ext)] = p
}

// Lookup returns the parser for a file name and the extension it resolved to.
func (r *Registry) Lookup(name string) (Parser, string, error) {
	ext := Extension(name)
	p, ok := r.parsers[ext]
	if !ok {
		return nil, ext, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(name))
	}
	return p, ext, nil
}

// Parse dispatches on the extension of name and stamps the format label on
// the resulting dataset.
func (r *Registry) Parse(name string, rd io.Reader, opts Options) (*Dataset, error) {
	p, ext, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if opts.SkipRows < 0 {
		return nil, fmt.Errorf("%w: skip rows must be >= 0, got %d", ErrInvalidOptions, opts.SkipRows)
	}
	ds, err := p.Parse(rd, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s file: %w", strings.ToUpper(ext), err)
	}
	ds.Format = strings.ToUpper(ext)
	return ds, nil
}

// Extensions returns the registered extensions, sorted, each with a leading dot.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		out = append(out, "."+ext)
	}
	sort.Strings(out)
	return out
}

// Extension returns the lower-cased text after the last dot of a file name.
func Extension(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return ""
	}
	return normalizeExt(base[i+1:])
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
