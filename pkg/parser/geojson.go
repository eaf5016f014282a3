package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON parses a FeatureCollection, a single Feature or a bare geometry.
// Columns are "id" when any feature carries one, the property keys in
// first-seen order, then the geometry column.
type GeoJSON struct{}

// Parse implements Parser. Options are ignored.
func (GeoJSON) Parse(r io.Reader, _ Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no GeoJSON object", ErrEmptyFile)
	}

	features, keys, err := decodeFeatures(data)
	if err != nil {
		return nil, err
	}

	hasID := false
	for _, f := range features {
		if f.ID != nil {
			hasID = true
			break
		}
	}

	header := make([]string, 0, len(keys)+1)
	if hasID {
		header = append(header, "id")
	}
	header = append(header, keys...)

	rows := make([][]string, len(features))
	geoms := make([]orb.Geometry, len(features))
	for i, f := range features {
		row := make([]string, 0, len(header)+1)
		if hasID {
			row = append(row, formatValue(f.ID))
		}
		for _, k := range keys {
			row = append(row, formatValue(f.Properties[k]))
		}
		rows[i] = row
		geoms[i] = f.Geometry
	}

	return newGeoDataset(header, rows, geoms), nil
}

// decodeFeatures returns the features of a GeoJSON document together with the
// union of their property keys in document order.
func decodeFeatures(data []byte) ([]*geojson.Feature, []string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, nil, fmt.Errorf("invalid GeoJSON: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid feature collection: %w", err)
		}
		var raw struct {
			Features []struct {
				Properties json.RawMessage `json:"properties"`
			} `json:"features"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("invalid feature collection: %w", err)
		}
		order := newKeyOrder()
		for _, f := range raw.Features {
			if err := order.addObject(f.Properties); err != nil {
				return nil, nil, err
			}
		}
		return fc.Features, order.keys, nil

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid feature: %w", err)
		}
		var raw struct {
			Properties json.RawMessage `json:"properties"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, nil, fmt.Errorf("invalid feature: %w", err)
		}
		order := newKeyOrder()
		if err := order.addObject(raw.Properties); err != nil {
			return nil, nil, err
		}
		return []*geojson.Feature{f}, order.keys, nil

	case "":
		return nil, nil, fmt.Errorf("invalid GeoJSON: missing \"type\" member")

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid geometry: %w", err)
		}
		return []*geojson.Feature{geojson.NewFeature(g.Geometry())}, nil, nil
	}
}

// keyOrder accumulates object keys in first-seen order.
type keyOrder struct {
	keys []string
	seen map[string]bool
}

func newKeyOrder() *keyOrder {
	return &keyOrder{seen: make(map[string]bool)}
}

// addObject records the top-level keys of a JSON object; null and empty input are ignored.
func (o *keyOrder) addObject(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid properties: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("invalid properties: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}
		key, _ := tok.(string)
		if !o.seen[key] {
			o.seen[key] = true
			o.keys = append(o.keys, key)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}
	}
	return nil
}

// formatValue renders a decoded JSON scalar the way it appears in the preview.
func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
