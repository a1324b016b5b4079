package adsb

import (
	"strings"

	"github.com/tmarini/skywatch/pkg/logger"
)

// Normalize converts one raw telemetry record into a validated
// AircraftState. Returns nil when the record carries no usable identity.
// Individual field coercion failures leave the field absent; they never
// abort the record, and a bad record never aborts the cycle.
func Normalize(raw *RawAircraft) *AircraftState {
	hex := strings.ToLower(strings.TrimSpace(raw.Hex))
	if hex == "" {
		return nil
	}

	state := &AircraftState{
		Hex:       hex,
		Callsign:  strings.TrimSpace(raw.Flight),
		ModelDesc: raw.Desc,
		ModelCode: raw.Type,
	}

	if lat, ok := raw.Lat.Float64(); ok {
		state.Lat = &lat
	}
	if lon, ok := raw.Lon.Float64(); ok {
		state.Lon = &lon
	}
	if alt, ok := raw.AltBaro.Int(); ok {
		state.AltBaroFt = &alt
	}
	if gs, ok := raw.GS.Float64(); ok {
		state.GroundSpeedKt = &gs
	}
	if ground, ok := raw.Ground.Bool(); ok {
		state.Ground = &ground
	}

	// Position timestamp is preferred over the generic one
	if ts, ok := raw.SeenPosTS.Float64(); ok {
		state.Timestamp = &ts
	} else if ts, ok := raw.SeenTS.Float64(); ok {
		state.Timestamp = &ts
	}

	reg := strings.TrimSpace(raw.Registration)
	if reg == "" {
		reg = strings.TrimSpace(raw.Reg)
	}
	state.Registration = reg

	if squawk, ok := raw.Squawk.String(); ok {
		state.Squawk = strings.TrimSpace(squawk)
	}

	state.IsMilitary = isMilitary(raw)

	return state
}

// isMilitary merges every military signal the source and the dedicated
// military feed can carry.
func isMilitary(raw *RawAircraft) bool {
	if raw.ForcedMilitary {
		return true
	}
	if raw.Military.Truthy() || raw.IsMil.Truthy() || raw.Mil.Truthy() {
		return true
	}
	if flags, ok := raw.DBFlags.String(); ok {
		return strings.Contains(strings.ToLower(flags), "military")
	}
	return false
}

// NormalizeAll converts a raw snapshot set, dropping unusable records.
func NormalizeAll(raws []RawAircraft, log *logger.Logger) []*AircraftState {
	states := make([]*AircraftState, 0, len(raws))
	dropped := 0
	for i := range raws {
		state := Normalize(&raws[i])
		if state == nil {
			dropped++
			continue
		}
		states = append(states, state)
	}
	if dropped > 0 {
		log.Debug("Dropped unusable telemetry records",
			logger.Int("dropped", dropped),
			logger.Int("kept", len(states)),
		)
	}
	return states
}
