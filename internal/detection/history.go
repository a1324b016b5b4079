package detection

// Position is one recorded track point
type Position struct {
	Lat float64
	Lon float64
}

// trackHistoryBound caps the number of positions kept per aircraft
const trackHistoryBound = 120

// TrackStore keeps a bounded per-aircraft position history for the pattern
// detectors. Entries are kept in insertion order; the oldest is evicted on
// overflow. Keys are never proactively purged: aircraft that leave coverage
// keep their last track for the process lifetime.
//
// The store is mutated only by the single detection goroutine within a
// cycle and is not safe for concurrent mutation of the same key.
type TrackStore struct {
	bound  int
	tracks map[string][]Position
}

// NewTrackStore creates an empty track store with the default bound
func NewTrackStore() *TrackStore {
	return &TrackStore{
		bound:  trackHistoryBound,
		tracks: make(map[string][]Position),
	}
}

// Append records a position for hex. A missing coordinate makes it a no-op.
func (s *TrackStore) Append(hex string, lat, lon *float64) {
	if lat == nil || lon == nil {
		return
	}

	track := s.tracks[hex]
	if len(track) >= s.bound {
		copy(track, track[1:])
		track[len(track)-1] = Position{Lat: *lat, Lon: *lon}
	} else {
		track = append(track, Position{Lat: *lat, Lon: *lon})
	}
	s.tracks[hex] = track
}

// Get returns the current ordered track for hex, possibly empty. The
// returned slice is owned by the store; callers must not mutate it.
func (s *TrackStore) Get(hex string) []Position {
	return s.tracks[hex]
}

// Len returns the number of recorded positions for hex
func (s *TrackStore) Len(hex string) int {
	return len(s.tracks[hex])
}
