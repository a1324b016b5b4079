package geofence

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/tmarini/skywatch/pkg/logger"
)

// Ring is a closed sequence of [lon, lat] vertices in GeoJSON axis order
type Ring [][2]float64

// Polygon is one outer ring plus optional hole rings
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Fence is an area-of-interest filter built from a GeoJSON file. A point is
// inside the fence when it falls inside any polygon's outer ring without
// falling inside one of that polygon's holes. A nil Fence accepts everything.
type Fence struct {
	polygons []Polygon
	logger   *logger.Logger
}

// geoJSON covers the subset of the format the loader accepts: a bare
// geometry, a Feature, or a FeatureCollection of Polygon and MultiPolygon
// geometries.
type geoJSON struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
	geometry
}

type feature struct {
	Type     string   `json:"type"`
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	GeomType    string          `json:"type,omitempty"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// Load reads a GeoJSON file and builds the fence. An empty path means no
// fence is configured and returns nil.
func Load(path string, log *logger.Logger) (*Fence, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geofence file: %w", err)
	}

	var doc geoJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse geofence file: %w", err)
	}

	var polygons []Polygon
	switch doc.Type {
	case "FeatureCollection":
		for i, f := range doc.Features {
			ps, err := parseGeometry(f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %w", i, err)
			}
			polygons = append(polygons, ps...)
		}
	case "Feature":
		var f feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse feature: %w", err)
		}
		ps, err := parseGeometry(f.Geometry)
		if err != nil {
			return nil, err
		}
		polygons = ps
	case "Polygon", "MultiPolygon":
		// The document itself is the geometry; its type field belongs to
		// the geometry, not a wrapper.
		doc.geometry.GeomType = doc.Type
		ps, err := parseGeometry(doc.geometry)
		if err != nil {
			return nil, err
		}
		polygons = ps
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type %q", doc.Type)
	}

	if len(polygons) == 0 {
		return nil, fmt.Errorf("geofence file contains no polygons")
	}

	log.Info("Geofence loaded",
		logger.String("path", path),
		logger.Int("polygons", len(polygons)),
	)

	return &Fence{polygons: polygons, logger: log.Named("geofence")}, nil
}

func parseGeometry(g geometry) ([]Polygon, error) {
	switch g.GeomType {
	case "Polygon":
		var rings []Ring
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("invalid Polygon coordinates: %w", err)
		}
		p, err := buildPolygon(rings)
		if err != nil {
			return nil, err
		}
		return []Polygon{p}, nil
	case "MultiPolygon":
		var multi [][]Ring
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("invalid MultiPolygon coordinates: %w", err)
		}
		var polygons []Polygon
		for _, rings := range multi {
			p, err := buildPolygon(rings)
			if err != nil {
				return nil, err
			}
			polygons = append(polygons, p)
		}
		return polygons, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.GeomType)
	}
}

func buildPolygon(rings []Ring) (Polygon, error) {
	if len(rings) == 0 || len(rings[0]) < 3 {
		return Polygon{}, fmt.Errorf("polygon needs an outer ring of at least 3 vertices")
	}
	return Polygon{Outer: rings[0], Holes: rings[1:]}, nil
}

// Contains reports whether the point is inside the fence. A nil fence
// accepts every point.
func (f *Fence) Contains(lat, lon float64) bool {
	if f == nil {
		return true
	}
	for _, p := range f.polygons {
		if !pointInRing(lat, lon, p.Outer) {
			continue
		}
		inHole := false
		for _, h := range p.Holes {
			if pointInRing(lat, lon, h) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// pointInRing is the even-odd ray casting test. Vertices are in GeoJSON
// [lon, lat] order.
func pointInRing(lat, lon float64, ring Ring) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > lat) != (yj > lat) &&
			lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
