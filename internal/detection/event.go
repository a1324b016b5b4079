package detection

import (
	"time"

	"github.com/tmarini/skywatch/internal/adsb"
)

// EventType classifies a detection finding
type EventType string

// The four event classes
const (
	EventPattern  EventType = "PATTERN"
	EventProx     EventType = "PROX"
	EventAnomaly  EventType = "ANOMALY"
	EventMilitary EventType = "MIL"
)

// Event is one surviving detection finding: a classifier fired and the
// cooldown check passed. Immutable once created; consumed by persistence
// and notification collaborators.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	Hex          string
	Callsign     string
	Registration string
	ModelCode    string
	ModelDesc    string
	Lat          *float64
	Lon          *float64
	AltFt        *int
	GSKt         *float64
	Squawk       string
	Ground       *bool
	Note         string

	// PROX only: the other aircraft in the pair and the measured distance
	PeerHex    string
	DistanceKm float64
}

// newEvent snapshots the aircraft state into an event record
func newEvent(t EventType, ac *adsb.AircraftState, now time.Time, note string) *Event {
	return &Event{
		Timestamp:    now,
		Type:         t,
		Hex:          ac.Hex,
		Callsign:     ac.Callsign,
		Registration: ac.Registration,
		ModelCode:    ac.ModelCode,
		ModelDesc:    ac.ModelDesc,
		Lat:          ac.Lat,
		Lon:          ac.Lon,
		AltFt:        ac.AltBaroFt,
		GSKt:         ac.GroundSpeedKt,
		Squawk:       ac.Squawk,
		Ground:       ac.Ground,
		Note:         note,
	}
}

// FirstSeenUTC renders the event timestamp in the persisted row format
func (e *Event) FirstSeenUTC() string {
	return e.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")
}
