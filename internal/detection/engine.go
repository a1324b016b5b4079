package detection

import (
	"fmt"
	"time"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Engine is the stateful detection core. It owns the track history, the
// previous-cycle state cache and the cooldown ledger, and drives one
// detection pass per polling cycle: update history, run the pattern,
// proximity and anomaly classifiers, dedupe through the ledger, and emit
// the surviving events.
//
// All state is mutated by a single goroutine; cycles never overlap.
type Engine struct {
	cfg       config.DetectionConfig
	cooldowns config.CooldownConfig

	history   *TrackStore
	prev      map[string]*adsb.AircraftState
	ledger    *CooldownLedger
	patterns  *PatternClassifier
	proximity *ProximityClassifier
	anomalies *AnomalyClassifier

	logger *logger.Logger
}

// NewEngine creates a detection engine with the given tunables
func NewEngine(cfg config.DetectionConfig, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		cooldowns: cfg.Cooldown,
		history:   NewTrackStore(),
		prev:      make(map[string]*adsb.AircraftState),
		ledger:    NewCooldownLedger(),
		patterns:  NewPatternClassifier(cfg),
		proximity: NewProximityClassifier(cfg.Proximity),
		anomalies: NewAnomalyClassifier(cfg.Anomaly),
		logger:    log.Named("engine"),
	}
}

// RunCycle runs one complete detection pass over the normalized snapshot
// set and returns the events that survived deduplication. The history
// update completes before any classifier runs, so the proximity pass
// observes a stable snapshot.
func (e *Engine) RunCycle(now time.Time, states []*adsb.AircraftState) []*Event {
	var events []*Event

	// Phase 1: history update
	for _, ac := range states {
		e.history.Append(ac.Hex, ac.Lat, ac.Lon)
	}

	// Phase 2: classification
	events = append(events, e.runPatterns(now, states)...)
	events = append(events, e.runProximity(now, states)...)
	events = append(events, e.runAnomalies(now, states)...)
	events = append(events, e.runMilitary(now, states)...)

	if len(events) > 0 {
		e.logger.Info("Detection cycle produced events",
			logger.Int("events", len(events)),
			logger.Int("aircraft", len(states)),
		)
	}

	return events
}

func (e *Engine) runPatterns(now time.Time, states []*adsb.AircraftState) []*Event {
	var events []*Event

	for _, ac := range states {
		if !ac.HasPosition() {
			continue
		}

		pattern, ok := e.patterns.Classify(e.history.Get(ac.Hex))
		if !ok {
			continue
		}
		if !e.ledger.CheckAndMark(patternKey(ac.Hex, pattern), now, e.cooldowns.PatternWindow()) {
			continue
		}

		e.logger.Info("Pattern detected",
			logger.String("hex", ac.Hex),
			logger.String("callsign", ac.Callsign),
			logger.String("pattern", pattern),
		)
		events = append(events, newEvent(EventPattern, ac, now, pattern))
	}

	return events
}

func (e *Engine) runProximity(now time.Time, states []*adsb.AircraftState) []*Event {
	var events []*Event

	findings := e.proximity.Classify(states, e.currentHeadings(states))
	for _, f := range findings {
		key := proximityKey(f.First.Hex, f.Second.Hex, f.Label)
		if !e.ledger.CheckAndMark(key, now, e.cooldowns.ProximityWindow()) {
			continue
		}

		e.logger.Info("Proximity detected",
			logger.String("hex", f.First.Hex),
			logger.String("peer", f.Second.Hex),
			logger.String("label", f.Label),
			logger.Float64("distance_km", f.DistanceKm),
		)

		// One event per aircraft in the pair, cross-referencing the peer
		first := newEvent(EventProx, f.First, now,
			fmt.Sprintf("%s; peer=%s; dist=%.1f km", f.Label, f.Second.Hex, f.DistanceKm))
		first.PeerHex = f.Second.Hex
		first.DistanceKm = f.DistanceKm

		second := newEvent(EventProx, f.Second, now,
			fmt.Sprintf("%s; peer=%s; dist=%.1f km", f.Label, f.First.Hex, f.DistanceKm))
		second.PeerHex = f.First.Hex
		second.DistanceKm = f.DistanceKm

		events = append(events, first, second)
	}

	return events
}

func (e *Engine) runAnomalies(now time.Time, states []*adsb.AircraftState) []*Event {
	var events []*Event

	for _, ac := range states {
		prev := e.prev[ac.Hex]
		findings := e.anomalies.Classify(ac, prev, elapsedSeconds(ac, prev))

		if len(findings) > 0 && e.ledger.CheckAndMark(anomalyKey(ac.Hex), now, e.cooldowns.AnomalyWindow()) {
			note := findings[0]
			for _, f := range findings[1:] {
				note += "; " + f
			}

			e.logger.Info("Anomaly detected",
				logger.String("hex", ac.Hex),
				logger.String("callsign", ac.Callsign),
				logger.String("findings", note),
			)
			events = append(events, newEvent(EventAnomaly, ac, now, note))
		}

		// The cache always advances, so next cycle's deltas compare
		// against this cycle regardless of findings.
		e.prev[ac.Hex] = ac
	}

	return events
}

func (e *Engine) runMilitary(now time.Time, states []*adsb.AircraftState) []*Event {
	var events []*Event

	for _, ac := range states {
		if !ac.IsMilitary {
			continue
		}
		if !e.ledger.CheckAndMark(militaryKey(ac.Hex), now, e.cooldowns.MilitaryWindow()) {
			continue
		}

		e.logger.Info("Military aircraft sighted",
			logger.String("hex", ac.Hex),
			logger.String("callsign", ac.Callsign),
		)
		events = append(events, newEvent(EventMilitary, ac, now, "MIL"))
	}

	return events
}

// currentHeadings derives each aircraft's heading from the last two points
// of its track history. Aircraft with fewer than two points, or whose last
// two points coincide, have no heading.
func (e *Engine) currentHeadings(states []*adsb.AircraftState) map[string]float64 {
	headings := make(map[string]float64, len(states))
	for _, ac := range states {
		track := e.history.Get(ac.Hex)
		if len(track) < 2 {
			continue
		}
		p1, p2 := track[len(track)-2], track[len(track)-1]
		if b, ok := adsb.Bearing(p1.Lat, p1.Lon, p2.Lat, p2.Lon); ok {
			headings[ac.Hex] = b
		}
	}
	return headings
}

// elapsedSeconds returns the positive elapsed time between the previous
// and current snapshot, or 0 when either timestamp is missing or the
// clock ran backwards.
func elapsedSeconds(cur, prev *adsb.AircraftState) float64 {
	if prev == nil || cur.Timestamp == nil || prev.Timestamp == nil {
		return 0
	}
	dt := *cur.Timestamp - *prev.Timestamp
	if dt < 0 {
		return 0
	}
	return dt
}
