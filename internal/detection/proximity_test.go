package detection

import (
	"testing"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
)

func ip(v int) *int { return &v }

// proxState builds a positioned aircraft for proximity scenarios
func proxState(hex string, lat, lon float64, altFt int, gsKt float64) *adsb.AircraftState {
	return &adsb.AircraftState{
		Hex:           hex,
		Lat:           fp(lat),
		Lon:           fp(lon),
		AltBaroFt:     ip(altFt),
		GroundSpeedKt: fp(gsKt),
	}
}

func newProxClassifier() *ProximityClassifier {
	return NewProximityClassifier(config.DefaultConfig().Detection.Proximity)
}

func TestProximityPursuit(t *testing.T) {
	c := newProxClassifier()

	// Trailer two kilometers due west of the leader, both flying east
	lead := proxState("aaa111", 45.0, 9.0, 10000, 300)
	trail := proxState("bbb222", 45.0, 9.0-0.02544, 10100, 310)
	headings := map[string]float64{"aaa111": 90.0, "bbb222": 90.0}

	findings := c.Classify([]*adsb.AircraftState{lead, trail}, headings)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	f := findings[0]
	if f.Label != LabelPursuit {
		t.Errorf("label = %q, want %q", f.Label, LabelPursuit)
	}
	if f.DistanceKm < 1.5 || f.DistanceKm > 2.5 {
		t.Errorf("distance = %.2f km, want about 2", f.DistanceKm)
	}
}

func TestProximityCluster(t *testing.T) {
	c := newProxClassifier()

	// Side by side heading north: neither sits behind the other
	first := proxState("aaa111", 45.0, 9.0, 10000, 300)
	second := proxState("bbb222", 45.0, 9.0-0.02544, 10100, 310)
	headings := map[string]float64{"aaa111": 0.0, "bbb222": 0.0}

	findings := c.Classify([]*adsb.AircraftState{first, second}, headings)
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Label != LabelCluster {
		t.Errorf("label = %q, want %q", findings[0].Label, LabelCluster)
	}
}

func TestProximitySymmetric(t *testing.T) {
	c := newProxClassifier()

	a := proxState("aaa111", 45.0, 9.0, 10000, 300)
	b := proxState("bbb222", 45.0, 9.0-0.02544, 10100, 310)
	headings := map[string]float64{"aaa111": 90.0, "bbb222": 90.0}

	forward := c.Classify([]*adsb.AircraftState{a, b}, headings)
	reversed := c.Classify([]*adsb.AircraftState{b, a}, headings)
	if len(forward) != 1 || len(reversed) != 1 {
		t.Fatalf("findings = %d and %d, want 1 and 1", len(forward), len(reversed))
	}
	if forward[0].Label != reversed[0].Label {
		t.Errorf("label depends on input order: %q vs %q", forward[0].Label, reversed[0].Label)
	}
}

func TestProximityRejections(t *testing.T) {
	c := newProxClassifier()
	base := func() *adsb.AircraftState { return proxState("aaa111", 45.0, 9.0, 10000, 300) }
	near := func() *adsb.AircraftState { return proxState("bbb222", 45.0, 8.98, 10000, 300) }
	headings := map[string]float64{"aaa111": 90.0, "bbb222": 90.0}

	tests := []struct {
		name     string
		mutate   func(a, b *adsb.AircraftState)
		headings map[string]float64
	}{
		{
			name:     "too far apart",
			mutate:   func(a, b *adsb.AircraftState) { b.Lon = fp(8.90) },
			headings: headings,
		},
		{
			name:     "altitude split",
			mutate:   func(a, b *adsb.AircraftState) { b.AltBaroFt = ip(11000) },
			headings: headings,
		},
		{
			name:     "speed split",
			mutate:   func(a, b *adsb.AircraftState) { b.GroundSpeedKt = fp(400) },
			headings: headings,
		},
		{
			name:     "diverging headings",
			mutate:   func(a, b *adsb.AircraftState) {},
			headings: map[string]float64{"aaa111": 90.0, "bbb222": 180.0},
		},
		{
			name:     "missing altitude fails the check",
			mutate:   func(a, b *adsb.AircraftState) { b.AltBaroFt = nil },
			headings: headings,
		},
		{
			name:     "missing speed fails the check",
			mutate:   func(a, b *adsb.AircraftState) { a.GroundSpeedKt = nil },
			headings: headings,
		},
		{
			name:     "missing heading fails the check",
			mutate:   func(a, b *adsb.AircraftState) {},
			headings: map[string]float64{"aaa111": 90.0},
		},
		{
			name:     "missing position skips the pair",
			mutate:   func(a, b *adsb.AircraftState) { b.Lat = nil },
			headings: headings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := base(), near()
			tt.mutate(a, b)
			if findings := c.Classify([]*adsb.AircraftState{a, b}, tt.headings); len(findings) != 0 {
				t.Errorf("got %d findings, want 0", len(findings))
			}
		})
	}
}

func TestProximityThreeAircraftFormation(t *testing.T) {
	c := newProxClassifier()

	// Three aircraft abreast within radius of each other make three pairs
	states := []*adsb.AircraftState{
		proxState("aaa111", 45.00, 9.0, 10000, 300),
		proxState("bbb222", 45.01, 9.0, 10000, 300),
		proxState("ccc333", 45.02, 9.0, 10000, 300),
	}
	headings := map[string]float64{"aaa111": 90.0, "bbb222": 90.0, "ccc333": 90.0}

	findings := c.Classify(states, headings)
	if len(findings) != 3 {
		t.Fatalf("got %d findings, want 3", len(findings))
	}
}
