package geofence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tmarini/skywatch/pkg/logger"
)

func writeFence(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fence.geojson")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write fence file: %v", err)
	}
	return path
}

const squareFeatureCollection = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"geometry": {
			"type": "Polygon",
			"coordinates": [[[9.0, 44.0], [10.0, 44.0], [10.0, 45.0], [9.0, 45.0], [9.0, 44.0]]]
		}
	}]
}`

func TestFenceContains(t *testing.T) {
	fence, err := Load(writeFence(t, squareFeatureCollection), logger.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 44.5, 9.5, true},
		{"north of the box", 45.5, 9.5, false},
		{"west of the box", 44.5, 8.5, false},
		{"well outside", 50.0, 20.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fence.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestFenceHole(t *testing.T) {
	data := `{
		"type": "Polygon",
		"coordinates": [
			[[9.0, 44.0], [10.0, 44.0], [10.0, 45.0], [9.0, 45.0], [9.0, 44.0]],
			[[9.4, 44.4], [9.6, 44.4], [9.6, 44.6], [9.4, 44.6], [9.4, 44.4]]
		]
	}`
	fence, err := Load(writeFence(t, data), logger.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if fence.Contains(44.5, 9.5) {
		t.Error("point inside the hole should be excluded")
	}
	if !fence.Contains(44.5, 9.8) {
		t.Error("point inside the ring but outside the hole should be included")
	}
}

func TestFenceMultiPolygon(t *testing.T) {
	data := `{
		"type": "MultiPolygon",
		"coordinates": [
			[[[9.0, 44.0], [9.5, 44.0], [9.5, 44.5], [9.0, 44.5], [9.0, 44.0]]],
			[[[11.0, 46.0], [11.5, 46.0], [11.5, 46.5], [11.0, 46.5], [11.0, 46.0]]]
		]
	}`
	fence, err := Load(writeFence(t, data), logger.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !fence.Contains(44.25, 9.25) {
		t.Error("point in the first polygon should be included")
	}
	if !fence.Contains(46.25, 11.25) {
		t.Error("point in the second polygon should be included")
	}
	if fence.Contains(45.0, 10.0) {
		t.Error("point between the polygons should be excluded")
	}
}

func TestNilFenceAcceptsEverything(t *testing.T) {
	fence, err := Load("", logger.Nop())
	if err != nil {
		t.Fatalf("Load with empty path: %v", err)
	}
	if fence != nil {
		t.Fatal("empty path should produce a nil fence")
	}
	if !fence.Contains(0, 0) {
		t.Error("nil fence should accept every point")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"unsupported type", `{"type": "Point", "coordinates": [9.0, 44.0]}`},
		{"no polygons", `{"type": "FeatureCollection", "features": []}`},
		{"degenerate ring", `{"type": "Polygon", "coordinates": [[[9.0, 44.0], [10.0, 44.0]]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFence(t, tt.data), logger.Nop()); err == nil {
				t.Error("Load succeeded, want error")
			}
		})
	}
}
