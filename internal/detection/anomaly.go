package detection

import (
	"fmt"
	"sort"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
)

// emergencySquawks are the three reserved transponder codes:
// hijack, radio failure, general emergency.
var emergencySquawks = map[string]struct{}{
	"7500": {},
	"7600": {},
	"7700": {},
}

// AnomalyClassifier evaluates per-aircraft operational anomaly rules:
// emergency squawk, speed and altitude outliers, and cycle-to-cycle
// vertical-rate and speed-delta checks against the previous snapshot.
type AnomalyClassifier struct {
	cfg config.AnomalyConfig
}

// NewAnomalyClassifier creates a classifier with the given thresholds
func NewAnomalyClassifier(cfg config.AnomalyConfig) *AnomalyClassifier {
	return &AnomalyClassifier{cfg: cfg}
}

// Classify evaluates all rules for cur. prev is the previous cycle's state
// for the same aircraft (nil if unseen) and elapsedSecs the seconds between
// their timestamps; the delta checks need elapsedSecs > 0. Every matching
// rule is reported once, sorted for stable output.
func (c *AnomalyClassifier) Classify(cur, prev *adsb.AircraftState, elapsedSecs float64) []string {
	seen := make(map[string]struct{})
	grounded := cur.Grounded()

	if _, ok := emergencySquawks[cur.Squawk]; ok {
		seen[fmt.Sprintf("SQUAWK: #%s", cur.Squawk)] = struct{}{}
	}

	if cur.GroundSpeedKt != nil {
		gs := *cur.GroundSpeedKt
		if gs > c.cfg.MaxGSKt {
			seen[fmt.Sprintf("GS alta: %.0f kt", gs)] = struct{}{}
		} else if gs < c.cfg.MinGSKt && !grounded {
			// Taxiing aircraft are slow by definition
			seen[fmt.Sprintf("GS bassa: %.0f kt", gs)] = struct{}{}
		}
	}

	if cur.AltBaroFt != nil {
		alt := *cur.AltBaroFt
		if alt > c.cfg.MaxAltFt {
			seen[fmt.Sprintf("ALT alta: %d ft", alt)] = struct{}{}
		} else if alt < c.cfg.MinAltFt && !grounded && alt > 0 {
			seen[fmt.Sprintf("ALT bassa: %d ft", alt)] = struct{}{}
		}
	}

	if prev != nil && elapsedSecs > 0 {
		if cur.GroundSpeedKt != nil && prev.GroundSpeedKt != nil {
			dgs := *cur.GroundSpeedKt - *prev.GroundSpeedKt
			if dgs > c.cfg.MaxDGSKts || dgs < -c.cfg.MaxDGSKts {
				seen[fmt.Sprintf("ΔGS anomalo: %+.0f kt", dgs)] = struct{}{}
			}
		}
		if cur.AltBaroFt != nil && prev.AltBaroFt != nil {
			vsFpm := float64(*cur.AltBaroFt-*prev.AltBaroFt) / elapsedSecs * 60.0
			if vsFpm > c.cfg.MaxVSFpm || vsFpm < -c.cfg.MaxVSFpm {
				seen[fmt.Sprintf("VS anomala: %.0f fpm", vsFpm)] = struct{}{}
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	findings := make([]string, 0, len(seen))
	for f := range seen {
		findings = append(findings, f)
	}
	sort.Strings(findings)
	return findings
}
