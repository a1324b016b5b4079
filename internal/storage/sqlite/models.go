package sqlite

// EventRecord is one persisted detection event row. Nullable columns mirror
// the telemetry fields that may be absent at detection time.
type EventRecord struct {
	ID           int64    `json:"id"`
	FirstSeenUTC string   `json:"first_seen_utc"`
	Hex          string   `json:"hex"`
	Callsign     string   `json:"callsign,omitempty"`
	Registration string   `json:"reg,omitempty"`
	Model        string   `json:"model,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	AltFt        *int     `json:"alt_ft,omitempty"`
	GSKt         *float64 `json:"gs_kt,omitempty"`
	Squawk       string   `json:"squawk,omitempty"`
	Ground       *bool    `json:"ground,omitempty"`
	EventType    string   `json:"event_type"`
	Note         string   `json:"note"`
}
