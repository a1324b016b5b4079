package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tmarini/skywatch/internal/detection"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Open opens (or creates) the SQLite database at path
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The detection service is the only writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// EventStorage handles storage of detection event records
type EventStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewEventStorage creates a new SQLite event storage
func NewEventStorage(db *sql.DB, log *logger.Logger) (*EventStorage, error) {
	storage := &EventStorage{
		db:     db,
		logger: log.Named("sqlite-events"),
	}

	if err := storage.initDB(); err != nil {
		return nil, fmt.Errorf("failed to initialize event storage: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *EventStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_seen_utc TEXT NOT NULL,
			hex TEXT NOT NULL,
			callsign TEXT,
			reg TEXT,
			model TEXT,
			lat REAL,
			lon REAL,
			alt_ft INTEGER,
			gs_kt REAL,
			squawk TEXT,
			ground INTEGER,
			event_type TEXT NOT NULL,
			note TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_hex ON events(hex)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_first_seen ON events(first_seen_utc)`,
	}
	for _, indexSQL := range indexes {
		if _, err = s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create event index: %w", err)
		}
	}

	return nil
}

// StoreEvent persists one detection event
func (s *EventStorage) StoreEvent(event *detection.Event) (int64, error) {
	model := event.ModelDesc
	if model == "" {
		model = event.ModelCode
	}

	var ground interface{}
	if event.Ground != nil {
		ground = *event.Ground
	}

	result, err := s.db.Exec(
		`INSERT INTO events
		(first_seen_utc, hex, callsign, reg, model, lat, lon, alt_ft, gs_kt, squawk, ground, event_type, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.FirstSeenUTC(),
		event.Hex,
		event.Callsign,
		event.Registration,
		model,
		deref(event.Lat),
		deref(event.Lon),
		deref(event.AltFt),
		deref(event.GSKt),
		event.Squawk,
		ground,
		string(event.Type),
		event.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return id, nil
}

// StoreRecord persists one pre-built event row, used by the CSV importer
func (s *EventStorage) StoreRecord(record *EventRecord) (int64, error) {
	var ground interface{}
	if record.Ground != nil {
		ground = *record.Ground
	}

	result, err := s.db.Exec(
		`INSERT INTO events
		(first_seen_utc, hex, callsign, reg, model, lat, lon, alt_ft, gs_kt, squawk, ground, event_type, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.FirstSeenUTC,
		record.Hex,
		record.Callsign,
		record.Registration,
		record.Model,
		deref(record.Lat),
		deref(record.Lon),
		deref(record.AltFt),
		deref(record.GSKt),
		record.Squawk,
		ground,
		record.EventType,
		record.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event record: %w", err)
	}

	return result.LastInsertId()
}

const eventColumns = `id, first_seen_utc, hex, callsign, reg, model, lat, lon, alt_ft, gs_kt, squawk, ground, event_type, note`

// GetRecentEvents returns recent events across all aircraft
func (s *EventStorage) GetRecentEvents(limit int) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// GetEventsByType returns events of a specific type
func (s *EventStorage) GetEventsByType(eventType string, limit int) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events WHERE event_type = ? ORDER BY id DESC LIMIT ?`,
		eventType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// GetEventsByHex returns events for a specific airframe
func (s *EventStorage) GetEventsByHex(hex string, limit int) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events WHERE hex = ? ORDER BY id DESC LIMIT ?`,
		hex, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by hex: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// GetEventsByTimeRange returns events whose first_seen_utc falls inside the
// range. The stored format is fixed width, so string comparison orders
// correctly.
func (s *EventStorage) GetEventsByTimeRange(start, end time.Time) ([]*EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM events WHERE first_seen_utc BETWEEN ? AND ? ORDER BY first_seen_utc DESC`,
		formatTimestamp(start), formatTimestamp(end),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by time range: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// GetAllEvents returns every stored event in insertion order, used by the
// CSV exporter.
func (s *EventStorage) GetAllEvents() ([]*EventRecord, error) {
	rows, err := s.db.Query(`SELECT ` + eventColumns + ` FROM events ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all events: %w", err)
	}
	defer rows.Close()

	return s.scanEventRows(rows)
}

// CountEvents returns the total number of stored events
func (s *EventStorage) CountEvents() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// scanEventRows scans database rows into EventRecord structs
func (s *EventStorage) scanEventRows(rows *sql.Rows) ([]*EventRecord, error) {
	var records []*EventRecord
	for rows.Next() {
		var record EventRecord
		var callsign, reg, model, squawk sql.NullString
		var lat, lon, gsKt sql.NullFloat64
		var altFt sql.NullInt64
		var ground sql.NullBool

		if err := rows.Scan(
			&record.ID,
			&record.FirstSeenUTC,
			&record.Hex,
			&callsign,
			&reg,
			&model,
			&lat,
			&lon,
			&altFt,
			&gsKt,
			&squawk,
			&ground,
			&record.EventType,
			&record.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		record.Callsign = callsign.String
		record.Registration = reg.String
		record.Model = model.String
		record.Squawk = squawk.String
		if lat.Valid {
			record.Lat = &lat.Float64
		}
		if lon.Valid {
			record.Lon = &lon.Float64
		}
		if altFt.Valid {
			v := int(altFt.Int64)
			record.AltFt = &v
		}
		if gsKt.Valid {
			record.GSKt = &gsKt.Float64
		}
		if ground.Valid {
			record.Ground = &ground.Bool
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// deref unwraps a nullable field into a driver-compatible value
func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
