package detection

import (
	"strings"
	"testing"
	"time"

	"github.com/tmarini/skywatch/internal/adsb"
	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/pkg/logger"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultConfig().Detection, logger.Nop())
}

func eventsOfType(events []*Event, et EventType) []*Event {
	var out []*Event
	for _, e := range events {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

func TestEngineMilitaryCooldown(t *testing.T) {
	e := newTestEngine()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mil := &adsb.AircraftState{Hex: "ae1234", Callsign: "DUKE01", IsMilitary: true}

	events := e.RunCycle(t0, []*adsb.AircraftState{mil})
	if got := eventsOfType(events, EventMilitary); len(got) != 1 {
		t.Fatalf("first cycle produced %d MIL events, want 1", len(got))
	} else if got[0].Note != "MIL" {
		t.Errorf("note = %q, want %q", got[0].Note, "MIL")
	}

	events = e.RunCycle(t0.Add(time.Minute), []*adsb.AircraftState{mil})
	if got := eventsOfType(events, EventMilitary); len(got) != 0 {
		t.Errorf("cycle inside the window produced %d MIL events, want 0", len(got))
	}

	events = e.RunCycle(t0.Add(30*time.Minute), []*adsb.AircraftState{mil})
	if got := eventsOfType(events, EventMilitary); len(got) != 1 {
		t.Errorf("cycle after the window produced %d MIL events, want 1", len(got))
	}
}

func TestEngineAnomalyEvent(t *testing.T) {
	e := newTestEngine()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	emergency := &adsb.AircraftState{
		Hex:           "abc123",
		Callsign:      "AZA123",
		AltBaroFt:     ip(35000),
		GroundSpeedKt: fp(450),
		Squawk:        "7700",
	}

	events := e.RunCycle(t0, []*adsb.AircraftState{emergency})
	anomalies := eventsOfType(events, EventAnomaly)
	if len(anomalies) != 1 {
		t.Fatalf("got %d ANOMALY events, want 1", len(anomalies))
	}
	if anomalies[0].Note != "SQUAWK: #7700" {
		t.Errorf("note = %q, want %q", anomalies[0].Note, "SQUAWK: #7700")
	}
	if anomalies[0].Hex != "abc123" || anomalies[0].Squawk != "7700" {
		t.Errorf("event snapshot mismatch: %+v", anomalies[0])
	}

	// Same condition next cycle is still inside the anomaly window
	events = e.RunCycle(t0.Add(time.Minute), []*adsb.AircraftState{emergency})
	if got := eventsOfType(events, EventAnomaly); len(got) != 0 {
		t.Errorf("got %d ANOMALY events inside the window, want 0", len(got))
	}
}

func TestEngineSpeedDeltaUsesPreviousCycle(t *testing.T) {
	e := newTestEngine()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	before := &adsb.AircraftState{
		Hex: "abc123", AltBaroFt: ip(10000), GroundSpeedKt: fp(100), Timestamp: fp(1000),
	}
	after := &adsb.AircraftState{
		Hex: "abc123", AltBaroFt: ip(10000), GroundSpeedKt: fp(400), Timestamp: fp(1060),
	}

	if events := e.RunCycle(t0, []*adsb.AircraftState{before}); len(events) != 0 {
		t.Fatalf("baseline cycle produced %d events, want 0", len(events))
	}

	events := e.RunCycle(t0.Add(time.Minute), []*adsb.AircraftState{after})
	anomalies := eventsOfType(events, EventAnomaly)
	if len(anomalies) != 1 {
		t.Fatalf("got %d ANOMALY events, want 1", len(anomalies))
	}
	if anomalies[0].Note != "ΔGS anomalo: +300 kt" {
		t.Errorf("note = %q, want delta finding", anomalies[0].Note)
	}
}

func TestEngineProximityPairEvents(t *testing.T) {
	e := newTestEngine()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cycle := func(lonOffset float64) []*adsb.AircraftState {
		return []*adsb.AircraftState{
			{
				Hex: "aaa111", Lat: fp(45.0), Lon: fp(9.0 + lonOffset),
				AltBaroFt: ip(10000), GroundSpeedKt: fp(300),
			},
			{
				Hex: "bbb222", Lat: fp(45.0), Lon: fp(8.98 + lonOffset),
				AltBaroFt: ip(10000), GroundSpeedKt: fp(310),
			},
		}
	}

	// First cycle seeds the tracks; no headings exist yet
	events := e.RunCycle(t0, cycle(0))
	if got := eventsOfType(events, EventProx); len(got) != 0 {
		t.Fatalf("first cycle produced %d PROX events, want 0", len(got))
	}

	// Second cycle: both moved east, track-derived headings now match
	events = e.RunCycle(t0.Add(time.Minute), cycle(0.01))
	prox := eventsOfType(events, EventProx)
	if len(prox) != 2 {
		t.Fatalf("got %d PROX events, want one per aircraft", len(prox))
	}

	byHex := map[string]*Event{prox[0].Hex: prox[0], prox[1].Hex: prox[1]}
	first, second := byHex["aaa111"], byHex["bbb222"]
	if first == nil || second == nil {
		t.Fatalf("events do not cover both aircraft: %+v", byHex)
	}
	if first.PeerHex != "bbb222" || second.PeerHex != "aaa111" {
		t.Errorf("peer cross-reference mismatch: %q / %q", first.PeerHex, second.PeerHex)
	}
	if !strings.Contains(first.Note, "peer=bbb222") || !strings.Contains(first.Note, "INSEGUIMENTO") {
		t.Errorf("note = %q, want pursuit label and peer reference", first.Note)
	}
	if first.DistanceKm <= 0 || first.DistanceKm >= 3 {
		t.Errorf("distance = %.2f km, want inside the radius", first.DistanceKm)
	}

	// Third cycle inside the proximity window is suppressed
	events = e.RunCycle(t0.Add(2*time.Minute), cycle(0.02))
	if got := eventsOfType(events, EventProx); len(got) != 0 {
		t.Errorf("cycle inside the window produced %d PROX events, want 0", len(got))
	}
}

func TestEnginePatternEvent(t *testing.T) {
	e := newTestEngine()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Feed the sweep one position per cycle; the pattern fires once the
	// track qualifies and stays quiet through the cooldown window afterwards.
	track := mowerTrack(5, 4)
	var patternEvents []*Event
	for i, p := range track {
		state := &adsb.AircraftState{
			Hex: "abc123", Lat: fp(p.Lat), Lon: fp(p.Lon),
			AltBaroFt: ip(3000), GroundSpeedKt: fp(120),
		}
		events := e.RunCycle(t0.Add(time.Duration(i)*time.Second), []*adsb.AircraftState{state})
		patternEvents = append(patternEvents, eventsOfType(events, EventPattern)...)
	}

	if len(patternEvents) != 1 {
		t.Fatalf("got %d PATTERN events over the sweep, want 1", len(patternEvents))
	}
	if patternEvents[0].Note != PatternLawnmower {
		t.Errorf("note = %q, want %q", patternEvents[0].Note, PatternLawnmower)
	}
}
