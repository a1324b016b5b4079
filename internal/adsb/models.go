package adsb

import (
	"fmt"
	"strconv"
	"strings"
)

// Numeric is a tolerant JSON scalar. Telemetry sources mix numbers and
// strings in the same field (alt_baro is famously "ground" for taxiing
// aircraft), so decoding never fails: anything that cannot be coerced to a
// number is simply absent.
type Numeric struct {
	val float64
	ok  bool
}

// UnmarshalJSON accepts a JSON number or a numeric string. Everything else
// leaves the value unset without returning an error.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	n.val = f
	n.ok = true
	return nil
}

// Float64 returns the value and whether it was present and coercible
func (n Numeric) Float64() (float64, bool) {
	return n.val, n.ok
}

// Int returns the value truncated to int and whether it was present
func (n Numeric) Int() (int, bool) {
	if !n.ok {
		return 0, false
	}
	return int(n.val), true
}

// Flag is a tolerant JSON boolean accepting true/false, "true"/"false",
// "yes"/"no", "1"/"0" and the numbers 1/0.
type Flag struct {
	val bool
	ok  bool
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = unquoted
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		f.val, f.ok = true, true
	case "false", "0", "no":
		f.val, f.ok = false, true
	}
	return nil
}

// Bool returns the value and whether it was present and coercible
func (f Flag) Bool() (bool, bool) {
	return f.val, f.ok
}

// Truthy reports whether the flag was present and set
func (f Flag) Truthy() bool {
	return f.ok && f.val
}

// Text is a tolerant JSON string that also stringifies numbers, used for
// fields like squawk and dbFlags that sources encode either way.
type Text struct {
	val string
	ok  bool
}

func (t *Text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		t.val, t.ok = unquoted, true
		return nil
	}
	t.val, t.ok = s, true
	return nil
}

// String returns the value and whether it was present
func (t Text) String() (string, bool) {
	return t.val, t.ok
}

// RawAircraftData represents one raw snapshot response from the source
type RawAircraftData struct {
	Now      float64       `json:"now"`
	Messages int           `json:"messages"`
	Aircraft []RawAircraft `json:"aircraft"`
}

// RawAircraft is a single loosely-typed aircraft record as delivered by the
// telemetry source. Field coercion happens during JSON decoding; anything
// the source omits or garbles is absent, never an error.
type RawAircraft struct {
	Hex          string  `json:"hex"`
	Flight       string  `json:"flight"`
	Lat          Numeric `json:"lat"`
	Lon          Numeric `json:"lon"`
	AltBaro      Numeric `json:"alt_baro"`
	GS           Numeric `json:"gs"`
	Squawk       Text    `json:"squawk"`
	Ground       Flag    `json:"ground"`
	SeenPosTS    Numeric `json:"seen_pos_timestamp"`
	SeenTS       Numeric `json:"seen_timestamp"`
	Registration string  `json:"r"`
	Reg          string  `json:"reg"`
	Desc         string  `json:"desc"`
	Type         string  `json:"t"`
	Military     Flag    `json:"military"`
	IsMil        Flag    `json:"isMil"`
	Mil          Flag    `json:"mil"`
	DBFlags      Text    `json:"dbFlags"`

	// Set by the client for records delivered on the dedicated military
	// feed, never by the source itself.
	ForcedMilitary bool `json:"-"`
}

// AircraftState is one validated per-aircraft snapshot for a single cycle.
// It is created by the normalizer, never mutated afterwards, and superseded
// by the next cycle's record for the same hex.
type AircraftState struct {
	Hex           string
	Callsign      string
	Registration  string
	Lat           *float64
	Lon           *float64
	AltBaroFt     *int
	GroundSpeedKt *float64
	Squawk        string
	Ground        *bool
	Timestamp     *float64
	ModelDesc     string
	ModelCode     string
	IsMilitary    bool
}

// HasPosition reports whether both coordinates are known
func (s *AircraftState) HasPosition() bool {
	return s.Lat != nil && s.Lon != nil
}

// Grounded derives the tri-state ground signal, first match wins:
// explicit flag, then low-altitude-low-speed, then non-positive altitude.
func (s *AircraftState) Grounded() bool {
	if s.Ground != nil {
		return *s.Ground
	}
	if s.AltBaroFt != nil && *s.AltBaroFt <= 100 &&
		(s.GroundSpeedKt == nil || *s.GroundSpeedKt < 60) {
		return true
	}
	if s.AltBaroFt != nil && *s.AltBaroFt <= 0 {
		return true
	}
	return false
}

// ModelLine renders the notification MODEL line, or "" when the source
// provided no type information.
func (s *AircraftState) ModelLine() string {
	if s.ModelDesc != "" {
		return fmt.Sprintf("MODEL: %s", s.ModelDesc)
	}
	if s.ModelCode != "" {
		return fmt.Sprintf("MODEL: %s", s.ModelCode)
	}
	return ""
}
