package district

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Polygon is one named district boundary in lon/lat.
type Polygon struct {
	Name     string
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
	bound    orb.Bound
}

func NewPolygon(name string, g orb.Geometry) Polygon {
	return Polygon{
		Name:     name,
		Geometry: g,
		bound:    g.Bound(),
	}
}

// Contains reports whether (lat, lon) lies inside the boundary. Points inside a hole are outside.
func (p Polygon) Contains(lat, lon float64) bool {
	pt := orb.Point{lon, lat}
	if !p.bound.Contains(pt) {
		return false
	}

	switch g := p.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// readBoundaryFile decodes a GeoJSON FeatureCollection into polygons, keeping file order.
// Features without an areal geometry are skipped.
func readBoundaryFile(path, nameProperty string) ([]Polygon, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, 0, err
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("decode geojson: %w", err)
	}

	polygons := make([]Polygon, 0, len(fc.Features))
	skipped := 0
	for _, feature := range fc.Features {
		switch feature.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			skipped++
			continue
		}

		name := feature.Properties.MustString(nameProperty, "")
		if name == "" {
			name = feature.Properties.MustString("name", "")
		}
		polygons = append(polygons, NewPolygon(name, feature.Geometry))
	}
	return polygons, skipped, nil
}
