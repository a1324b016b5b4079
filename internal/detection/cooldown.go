package detection

import (
	"sort"
	"strings"
	"time"
)

// CooldownLedger suppresses repeated alerts per composite key. Each event
// class carries its own window, and keys are independent: a PATTERN alert
// never suppresses an ANOMALY alert for the same aircraft.
type CooldownLedger struct {
	last map[string]time.Time
}

// NewCooldownLedger creates an empty ledger
func NewCooldownLedger() *CooldownLedger {
	return &CooldownLedger{
		last: make(map[string]time.Time),
	}
}

// CheckAndMark reports whether an alert for key is allowed at now, and
// records now as the last alert time only when it is. A suppressed check
// does not reset the window: it stays anchored to the last successful alert.
func (l *CooldownLedger) CheckAndMark(key string, now time.Time, window time.Duration) bool {
	if last, ok := l.last[key]; ok && now.Sub(last) < window {
		return false
	}
	l.last[key] = now
	return true
}

// Len returns the number of tracked keys
func (l *CooldownLedger) Len() int {
	return len(l.last)
}

// Key builders. Keeping the class name inside the key makes every class
// independent of the others for the same aircraft.

func patternKey(hex, pattern string) string {
	return strings.Join([]string{"pattern", hex, pattern}, "|")
}

func proximityKey(hex1, hex2, label string) string {
	pair := []string{hex1, hex2}
	sort.Strings(pair)
	return strings.Join([]string{"prox", pair[0], pair[1], label}, "|")
}

func anomalyKey(hex string) string {
	return "anomaly|" + hex
}

func militaryKey(hex string) string {
	return "mil|" + hex
}
