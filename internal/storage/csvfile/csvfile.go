package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tmarini/skywatch/internal/detection"
	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Header is the canonical column order of the event CSV files
var Header = []string{
	"first_seen_utc", "hex", "callsign", "reg", "model",
	"lat", "lon", "alt_ft", "gs_kt", "squawk", "ground",
	"event_type", "note",
}

// Sink appends detection events to a CSV file, writing the header when the
// file is created. Rows are flushed per append so a crash loses at most the
// event being written.
type Sink struct {
	path   string
	logger *logger.Logger
}

// NewSink creates a CSV sink for path
func NewSink(path string, log *logger.Logger) *Sink {
	return &Sink{path: path, logger: log.Named("csv")}
}

// Append writes one event row
func (s *Sink) Append(event *detection.Event) error {
	info, err := os.Stat(s.path)
	needHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	if err := w.Write(eventRow(event)); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func eventRow(e *detection.Event) []string {
	model := e.ModelDesc
	if model == "" {
		model = e.ModelCode
	}
	return []string{
		e.FirstSeenUTC(),
		e.Hex,
		e.Callsign,
		e.Registration,
		model,
		formatFloat(e.Lat),
		formatFloat(e.Lon),
		formatInt(e.AltFt),
		formatFloat(e.GSKt),
		e.Squawk,
		formatBool(e.Ground),
		string(e.Type),
		e.Note,
	}
}

// RecordRow renders a stored event row in the canonical column order,
// used by the exporter.
func RecordRow(r *sqlite.EventRecord) []string {
	return []string{
		r.FirstSeenUTC,
		r.Hex,
		r.Callsign,
		r.Registration,
		r.Model,
		formatFloat(r.Lat),
		formatFloat(r.Lon),
		formatInt(r.AltFt),
		formatFloat(r.GSKt),
		r.Squawk,
		formatBool(r.Ground),
		r.EventType,
		r.Note,
	}
}

// WriteAll writes a complete CSV file with header from stored records
func WriteAll(w io.Writer, records []*sqlite.EventRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(RecordRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadAll parses an event CSV file back into records. The header row is
// required and validated by column count only, so files with reordered
// columns are rejected by the strict field count rather than silently
// misread.
func ReadAll(r io.Reader) ([]*sqlite.EventRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	records := make([]*sqlite.EventRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, &sqlite.EventRecord{
			FirstSeenUTC: row[0],
			Hex:          row[1],
			Callsign:     row[2],
			Registration: row[3],
			Model:        row[4],
			Lat:          parseFloat(row[5]),
			Lon:          parseFloat(row[6]),
			AltFt:        parseInt(row[7]),
			GSKt:         parseFloat(row[8]),
			Squawk:       row[9],
			Ground:       parseBool(row[10]),
			EventType:    row[11],
			Note:         row[12],
		})
	}
	return records, nil
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func formatInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func formatBool(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}
