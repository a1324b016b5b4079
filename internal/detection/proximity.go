package detection

import (
	"math"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
)

// Proximity labels as they appear in events and notifications
const (
	LabelCluster = "CLUSTER"
	LabelPursuit = "INSEGUIMENTO"
)

// ProxFinding is one positive pairwise proximity match
type ProxFinding struct {
	First      *adsb.AircraftState
	Second     *adsb.AircraftState
	Label      string
	DistanceKm float64
}

// ProximityClassifier detects formation and pursuit relationships between
// pairs of aircraft in the current snapshot set. Any missing input
// (altitude, speed, heading) fails the corresponding check, so incomplete
// data never produces a false positive.
type ProximityClassifier struct {
	cfg config.ProximityConfig
}

// NewProximityClassifier creates a classifier with the given thresholds
func NewProximityClassifier(cfg config.ProximityConfig) *ProximityClassifier {
	return &ProximityClassifier{cfg: cfg}
}

// Classify compares every unordered pair of positioned aircraft. headings
// carries the current track-derived heading per hex; absent entries mean
// the heading is unknown. The check is symmetric: swapping the two
// aircraft yields the same label.
func (c *ProximityClassifier) Classify(states []*adsb.AircraftState, headings map[string]float64) []ProxFinding {
	var findings []ProxFinding

	for i, first := range states {
		if !first.HasPosition() {
			continue
		}
		for _, second := range states[i+1:] {
			if !second.HasPosition() || first.Hex == second.Hex {
				continue
			}

			dist := adsb.HaversineKm(*first.Lat, *first.Lon, *second.Lat, *second.Lon)
			if dist >= c.cfg.RadiusKm {
				continue
			}

			altOK := first.AltBaroFt != nil && second.AltBaroFt != nil &&
				math.Abs(float64(*first.AltBaroFt-*second.AltBaroFt)) <= c.cfg.AltDiffFt
			gsOK := first.GroundSpeedKt != nil && second.GroundSpeedKt != nil &&
				math.Abs(*first.GroundSpeedKt-*second.GroundSpeedKt) <= c.cfg.GSDiffKt

			h1, ok1 := headings[first.Hex]
			h2, ok2 := headings[second.Hex]
			dirOK := ok1 && ok2 && adsb.AngleDiff(h1, h2) <= c.cfg.AngleDeg

			if !altOK || !gsOK || !dirOK {
				continue
			}

			label := LabelCluster
			if c.approxFollowing(first, h1, second, h2) || c.approxFollowing(second, h2, first, h1) {
				label = LabelPursuit
			}

			findings = append(findings, ProxFinding{
				First:      first,
				Second:     second,
				Label:      label,
				DistanceKm: dist,
			})
		}
	}

	return findings
}

// approxFollowing reports whether trail sits behind lead along lead's line
// of travel: matching headings, and the bearing from lead to trail within
// tolerance of lead's reciprocal heading.
func (c *ProximityClassifier) approxFollowing(lead *adsb.AircraftState, leadHeading float64, trail *adsb.AircraftState, trailHeading float64) bool {
	if adsb.AngleDiff(leadHeading, trailHeading) > c.cfg.AngleDeg {
		return false
	}
	bearingToTrail, ok := adsb.Bearing(*lead.Lat, *lead.Lon, *trail.Lat, *trail.Lon)
	if !ok {
		return false
	}
	reciprocal := math.Mod(leadHeading+180.0, 360.0)
	return adsb.AngleDiff(reciprocal, bearingToTrail) <= c.cfg.AngleDeg
}
