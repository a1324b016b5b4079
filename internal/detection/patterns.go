package detection

import (
	"math"
	"sort"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
)

// Pattern labels as they appear in events and notifications
const (
	PatternLoop      = "LOOP/CERCHIO"
	PatternRacetrack = "RACETRACK"
	PatternLawnmower = "TAGLIAERBA"
	PatternMesh      = "MESH/RETICOLATO"
)

// minMinorSpanKm is the hard floor on the smaller bounding-box span for
// loop shapes; anything narrower is a line, not an orbit.
const minMinorSpanKm = 2.0

// PatternClassifier detects loiter/search geometries from a single
// aircraft's track. Detectors run in priority order (loop/racetrack,
// lawnmower, mesh) and the first positive match wins, so an aircraft is
// tagged with at most one pattern per cycle.
type PatternClassifier struct {
	loop config.LoopConfig
	lawn config.LawnmowerConfig
	mesh config.MeshConfig
}

// NewPatternClassifier creates a classifier with the given tunables
func NewPatternClassifier(cfg config.DetectionConfig) *PatternClassifier {
	return &PatternClassifier{
		loop: cfg.Loop,
		lawn: cfg.Lawnmower,
		mesh: cfg.Mesh,
	}
}

// Classify runs the detectors over the track and returns the first match
func (c *PatternClassifier) Classify(track []Position) (string, bool) {
	if shape, ok := c.detectLoopOrRacetrack(track); ok {
		return shape, true
	}
	if c.detectLawnmower(track) {
		return PatternLawnmower, true
	}
	if c.detectMesh(track) {
		return PatternMesh, true
	}
	return "", false
}

// detectLoopOrRacetrack detects closed orbiting tracks. The track must
// nearly close on itself, cover a minimum bounding-box span, and cross its
// own latitudinal midline often enough to prove repeated laps rather than
// a single out-and-back pass.
func (c *PatternClassifier) detectLoopOrRacetrack(track []Position) (string, bool) {
	if len(track) < c.loop.MinPoints {
		return "", false
	}

	first, last := track[0], track[len(track)-1]
	if adsb.HaversineKm(first.Lat, first.Lon, last.Lat, last.Lon) > c.loop.CloseKm {
		return "", false
	}

	minLat, maxLat, minLon, maxLon := boundingBox(track)
	spanLat := adsb.HaversineKm(minLat, minLon, maxLat, minLon)
	spanLon := adsb.HaversineKm(minLat, minLon, minLat, maxLon)

	major := math.Max(spanLat, spanLon)
	minor := math.Min(spanLat, spanLon)
	if major < c.loop.MinSpanKm || minor < minMinorSpanKm {
		return "", false
	}

	aspectRatio := major / (minor + 1e-6)
	shape := PatternLoop
	if aspectRatio >= 1.5 {
		shape = PatternRacetrack
	}

	// Count strict sign changes around the latitudinal midline; two per lap
	midLat := (maxLat + minLat) / 2
	crossings := 0
	for i := 0; i < len(track)-1; i++ {
		if (track[i].Lat-midLat)*(track[i+1].Lat-midLat) < 0 {
			crossings++
		}
	}
	if crossings < c.loop.MinLaps*2 {
		return "", false
	}

	return shape, true
}

// detectLawnmower detects boustrophedon survey sweeps: repeated antiparallel
// passes along one axis. Bearings folded onto [0,180) pick the dominant
// axis; the raw bearings then split into the two opposite directions, and
// the pass sequence must actually alternate between them.
func (c *PatternClassifier) detectLawnmower(track []Position) bool {
	if len(track) < c.lawn.MinPoints {
		return false
	}

	minLat, maxLat, minLon, maxLon := boundingBox(track)
	if adsb.HaversineKm(minLat, minLon, maxLat, maxLon) < c.lawn.MinSpanKm {
		return false
	}

	bearings := consecutiveBearings(track)
	if len(bearings) == 0 {
		return false
	}

	base := dominantAxis(bearings)
	tol := c.lawn.HeadingTolDeg

	var sequence []byte
	countA, countB := 0, 0
	for _, b := range bearings {
		switch {
		case adsb.AngleDiff(b, base) < tol:
			sequence = append(sequence, 'A')
			countA++
		case adsb.AngleDiff(b, base+180) < tol:
			sequence = append(sequence, 'B')
			countB++
		}
	}

	if countA < c.lawn.RequiredPasses || countB < c.lawn.RequiredPasses {
		return false
	}

	alternations := 0
	for i := 1; i < len(sequence); i++ {
		if sequence[i] != sequence[i-1] {
			alternations++
		}
	}

	return alternations >= c.lawn.RequiredPasses-1
}

// detectMesh detects cross-hatch sweeps: two mutually perpendicular bearing
// families, each holding a minimum share of the classified legs, with the
// track switching between families often enough to rule out an incidental
// perpendicular turn.
func (c *PatternClassifier) detectMesh(track []Position) bool {
	if len(track) < c.mesh.MinPoints {
		return false
	}

	// Round each leg bearing to 10 degrees, folded onto [0,180)
	var rounded []float64
	for _, b := range consecutiveBearings(track) {
		r := math.Mod(math.Round(b/10.0)*10.0, 180.0)
		rounded = append(rounded, r)
	}
	if len(rounded) == 0 {
		return false
	}

	axisA, axisB, ok := perpendicularPair(rounded, c.mesh.PerpTolDeg)
	if !ok {
		return false
	}

	tol := c.mesh.PerpTolDeg
	famA, famB := 0, 0
	crossings := 0
	var last byte
	for _, r := range rounded {
		da := axisDistance(r, axisA)
		db := axisDistance(r, axisB)

		var fam byte
		switch {
		case da <= tol && da <= db:
			fam = 'A'
			famA++
		case db <= tol:
			fam = 'B'
			famB++
		default:
			continue
		}

		if fam != last {
			crossings++
			last = fam
		}
	}

	total := famA + famB
	if total == 0 {
		return false
	}
	ratioA := float64(famA) / float64(total)
	ratioB := float64(famB) / float64(total)
	if ratioA < c.mesh.MinFamilyRatio || ratioB < c.mesh.MinFamilyRatio {
		return false
	}

	return crossings >= c.mesh.MinCrossings
}

// boundingBox returns the lat/lon extremes of a non-empty track
func boundingBox(track []Position) (minLat, maxLat, minLon, maxLon float64) {
	minLat, maxLat = track[0].Lat, track[0].Lat
	minLon, maxLon = track[0].Lon, track[0].Lon
	for _, p := range track[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}
	return
}

// consecutiveBearings returns the bearing of every consecutive point pair,
// skipping coincident points that have no direction.
func consecutiveBearings(track []Position) []float64 {
	var bearings []float64
	for i := 0; i < len(track)-1; i++ {
		if b, ok := adsb.Bearing(track[i].Lat, track[i].Lon, track[i+1].Lat, track[i+1].Lon); ok {
			bearings = append(bearings, b)
		}
	}
	return bearings
}

// axisDistance returns the angular distance between two bearings treated
// as undirected axes, in [0, 90].
func axisDistance(a, b float64) float64 {
	d := adsb.AngleDiff(a, b)
	if d > 90 {
		d = 180 - d
	}
	return d
}

// dominantAxis folds the bearings onto [0,180) and returns the one
// minimizing the total axis distance to all others.
func dominantAxis(bearings []float64) float64 {
	folded := make([]float64, len(bearings))
	for i, b := range bearings {
		folded[i] = math.Mod(b, 180.0)
	}

	best := folded[0]
	bestCost := math.Inf(1)
	for _, candidate := range folded {
		cost := 0.0
		for _, other := range folded {
			cost += axisDistance(candidate, other)
		}
		if cost < bestCost {
			bestCost = cost
			best = candidate
		}
	}
	return best
}

// perpendicularPair finds the first pair of distinct rounded axes that are
// mutually perpendicular within tol.
func perpendicularPair(rounded []float64, tol float64) (float64, float64, bool) {
	seen := make(map[float64]struct{})
	var uniq []float64
	for _, r := range rounded {
		if _, ok := seen[r]; !ok {
			seen[r] = struct{}{}
			uniq = append(uniq, r)
		}
	}
	sort.Float64s(uniq)

	for _, a := range uniq {
		for _, b := range uniq {
			if a == b {
				continue
			}
			if math.Abs(axisDistance(a, b)-90) <= tol {
				return a, b, true
			}
		}
	}
	return 0, 0, false
}
