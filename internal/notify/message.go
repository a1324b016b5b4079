package notify

import (
	"fmt"
	"strings"

	"github.com/tmarini/skywatch/internal/detection"
)

// BuildMessage renders the Markdown notification body for one event. The
// layout is the classic alert card: event class header, identity lines,
// class-specific detail, then tracking and photo links.
func BuildMessage(event *detection.Event) string {
	lines := []string{string(event.Type)}

	switch event.Type {
	case detection.EventPattern:
		lines = append(lines, event.Note)
	case detection.EventProx:
		lines = append(lines, proxLabel(event.Note))
	}

	lines = append(lines, fmt.Sprintf("HEX: #%s", event.Hex))
	lines = append(lines, fmt.Sprintf("FLT: #%s", orDash(event.Callsign)))
	if event.Registration != "" {
		lines = append(lines, fmt.Sprintf("REG: #%s", event.Registration))
	}
	if ml := modelLine(event); ml != "" {
		lines = append(lines, ml)
	}

	switch event.Type {
	case detection.EventProx:
		verb := "Vicino a"
		if proxLabel(event.Note) == detection.LabelPursuit {
			verb = "Inseguendo"
		}
		lines = append(lines, fmt.Sprintf("%s: #%s (%.1f km)", verb, event.PeerHex, event.DistanceKm))
	case detection.EventAnomaly:
		for _, finding := range strings.Split(event.Note, "; ") {
			lines = append(lines, finding)
		}
	case detection.EventMilitary:
		lines = append(lines, "Flag: military")
	}

	if links := makeLinks(event); len(links) > 0 {
		lines = append(lines, "")
		lines = append(lines, links...)
	}

	return strings.Join(lines, "\n")
}

// makeLinks builds the Markdown tracker and photo links for the airframe
func makeLinks(event *detection.Event) []string {
	var links []string
	if event.Hex != "" {
		links = append(links,
			fmt.Sprintf("[ADSB.fi](https://globe.adsb.fi/?icao=%s)", event.Hex),
			fmt.Sprintf("[ADSB Exchange](https://globe.adsbexchange.com/?icao=%s)", event.Hex),
			fmt.Sprintf("[Planespotters](https://www.planespotters.net/hex/%s)", event.Hex),
		)
	}
	if event.Callsign != "" {
		links = append(links,
			fmt.Sprintf("[FlightAware](https://www.flightaware.com/it-IT/flight/%s)", event.Callsign),
		)
	}
	if event.Registration != "" {
		links = append(links,
			fmt.Sprintf("[AirHistory](https://www.airhistory.net/marks-all/%s)", event.Registration),
			fmt.Sprintf("[JetPhotos](https://www.jetphotos.com/registration/%s)", event.Registration),
		)
	}
	return links
}

// proxLabel extracts the classification label from a proximity note
func proxLabel(note string) string {
	if i := strings.Index(note, ";"); i >= 0 {
		return note[:i]
	}
	return note
}

func modelLine(event *detection.Event) string {
	if event.ModelDesc != "" {
		return fmt.Sprintf("MODEL: %s", event.ModelDesc)
	}
	if event.ModelCode != "" {
		return fmt.Sprintf("MODEL: %s", event.ModelCode)
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
