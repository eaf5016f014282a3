package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"golang.org/x/net/html/charset"
)

// KML parses every Placemark in a KML document, at any folder depth. Columns
// are Name, Description, the ExtendedData field names in first-seen order,
// then the geometry column. Documents declaring a non-UTF-8 encoding are
// decoded by their label; the root element must be kml.
type KML struct{}

type kmlPlacemark struct {
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	ExtendedData kmlExtendedData `xml:"ExtendedData"`
	kmlGeometry
}

type kmlExtendedData struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
	SchemaData []struct {
		SimpleData []struct {
			Name  string `xml:"name,attr"`
			Value string `xml:",chardata"`
		} `xml:"SimpleData"`
	} `xml:"SchemaData"`
}

type kmlGeometry struct {
	Points      []kmlCoordinates `xml:"Point"`
	LineStrings []kmlCoordinates `xml:"LineString"`
	Polygons    []kmlPolygon     `xml:"Polygon"`
	Multi       []kmlGeometry    `xml:"MultiGeometry"`
}

type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer string   `xml:"outerBoundaryIs>LinearRing>coordinates"`
	Inner []string `xml:"innerBoundaryIs>LinearRing>coordinates"`
}

// Parse implements Parser. Options are ignored.
func (KML) Parse(r io.Reader, _ Options) (*Dataset, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var placemarks []kmlPlacemark
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid KML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if se.Name.Local != "kml" {
				return nil, fmt.Errorf("invalid KML: root element is <%s>, expected <kml>", se.Name.Local)
			}
			sawRoot = true
			continue
		}
		if se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, fmt.Errorf("invalid placemark: %w", err)
		}
		placemarks = append(placemarks, pm)
	}
	if !sawRoot {
		return nil, fmt.Errorf("%w: no KML document", ErrEmptyFile)
	}

	order := newKeyOrder()
	values := make([]map[string]string, len(placemarks))
	for i, pm := range placemarks {
		values[i] = pm.ExtendedData.fields(order)
	}

	header := append([]string{"Name", "Description"}, order.keys...)
	rows := make([][]string, len(placemarks))
	geoms := make([]orb.Geometry, len(placemarks))
	for i, pm := range placemarks {
		row := make([]string, 0, len(header)+1)
		row = append(row, strings.TrimSpace(pm.Name), strings.TrimSpace(pm.Description))
		for _, k := range order.keys {
			row = append(row, values[i][k])
		}
		rows[i] = row

		g, err := pm.kmlGeometry.geometry()
		if err != nil {
			return nil, fmt.Errorf("placemark %d: %w", i+1, err)
		}
		geoms[i] = g
	}

	return newGeoDataset(header, rows, geoms), nil
}

// fields flattens Data and SimpleData entries into a name->value map and
// records their names in order.
func (e kmlExtendedData) fields(order *keyOrder) map[string]string {
	out := make(map[string]string)
	add := func(name, value string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if !order.seen[name] {
			order.seen[name] = true
			order.keys = append(order.keys, name)
		}
		out[name] = strings.TrimSpace(value)
	}
	for _, d := range e.Data {
		add(d.Name, d.Value)
	}
	for _, sd := range e.SchemaData {
		for _, d := range sd.SimpleData {
			add(d.Name, d.Value)
		}
	}
	return out
}

// geometry collapses the parsed elements into a single orb geometry. A lone
// element stays as is; several of one type become the matching multi type;
// mixed types become a collection.
func (g kmlGeometry) geometry() (orb.Geometry, error) {
	var points []orb.Point
	var lines []orb.LineString
	var polygons []orb.Polygon
	if err := g.collect(&points, &lines, &polygons); err != nil {
		return nil, err
	}

	kinds := 0
	for _, n := range []int{len(points), len(lines), len(polygons)} {
		if n > 0 {
			kinds++
		}
	}

	switch {
	case kinds == 0:
		return nil, nil
	case kinds > 1:
		var c orb.Collection
		for _, p := range points {
			c = append(c, p)
		}
		for _, l := range lines {
			c = append(c, l)
		}
		for _, p := range polygons {
			c = append(c, p)
		}
		return c, nil
	case len(points) == 1:
		return points[0], nil
	case len(points) > 1:
		return orb.MultiPoint(points), nil
	case len(lines) == 1:
		return lines[0], nil
	case len(lines) > 1:
		return orb.MultiLineString(lines), nil
	case len(polygons) == 1:
		return polygons[0], nil
	default:
		return orb.MultiPolygon(polygons), nil
	}
}

func (g kmlGeometry) collect(points *[]orb.Point, lines *[]orb.LineString, polygons *[]orb.Polygon) error {
	for _, p := range g.Points {
		coords, err := parseCoordinates(p.Coordinates)
		if err != nil {
			return err
		}
		if len(coords) == 0 {
			continue
		}
		*points = append(*points, coords[0])
	}
	for _, l := range g.LineStrings {
		coords, err := parseCoordinates(l.Coordinates)
		if err != nil {
			return err
		}
		*lines = append(*lines, orb.LineString(coords))
	}
	for _, p := range g.Polygons {
		outer, err := parseCoordinates(p.Outer)
		if err != nil {
			return err
		}
		poly := orb.Polygon{orb.Ring(outer)}
		for _, inner := range p.Inner {
			ring, err := parseCoordinates(inner)
			if err != nil {
				return err
			}
			poly = append(poly, orb.Ring(ring))
		}
		*polygons = append(*polygons, poly)
	}
	for _, m := range g.Multi {
		if err := m.collect(points, lines, polygons); err != nil {
			return err
		}
	}
	return nil
}

// parseCoordinates reads a KML coordinate list: whitespace separated
// "lon,lat[,alt]" tuples. Altitude is dropped.
func parseCoordinates(s string) ([]orb.Point, error) {
	fields := strings.Fields(s)
	out := make([]orb.Point, 0, len(fields))
	for _, tuple := range fields {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
		}
		out = append(out, orb.Point{lon, lat})
	}
	return out, nil
}
