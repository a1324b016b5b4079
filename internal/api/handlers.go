package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/tmarini/skywatch/internal/storage/sqlite"
	"github.com/tmarini/skywatch/pkg/logger"
)

const defaultEventLimit = 100

// Handler serves the read-only event API backed by the SQLite store
type Handler struct {
	events  *sqlite.EventStorage
	logger  *logger.Logger
	started time.Time
}

// NewHandler creates a new API handler
func NewHandler(events *sqlite.EventStorage, log *logger.Logger) *Handler {
	return &Handler{
		events:  events,
		logger:  log.Named("api-handler"),
		started: time.Now(),
	}
}

// GetEvents returns recent events, optionally filtered by type or hex
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			h.respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = parsed
	}

	var (
		records []*sqlite.EventRecord
		err     error
	)
	switch {
	case r.URL.Query().Get("type") != "":
		records, err = h.events.GetEventsByType(r.URL.Query().Get("type"), limit)
	case r.URL.Query().Get("hex") != "":
		records, err = h.events.GetEventsByHex(r.URL.Query().Get("hex"), limit)
	default:
		records, err = h.events.GetRecentEvents(limit)
	}
	if err != nil {
		h.logger.Error("Failed to query events", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	if records == nil {
		records = []*sqlite.EventRecord{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(records),
		"events": records,
	})
}

// GetEventsByHex returns events for the airframe in the URL path
func (h *Handler) GetEventsByHex(w http.ResponseWriter, r *http.Request) {
	hex := chi.URLParam(r, "hex")
	records, err := h.events.GetEventsByHex(hex, defaultEventLimit)
	if err != nil {
		h.logger.Error("Failed to query events by hex", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	if records == nil {
		records = []*sqlite.EventRecord{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"hex":    hex,
		"count":  len(records),
		"events": records,
	})
}

// GetHealth returns service liveness and the stored event count
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.events.CountEvents()
	if err != nil {
		h.logger.Error("Failed to count events", logger.Error(err))
		h.respondError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"events":       count,
		"uptime_secs":  int(time.Since(h.started).Seconds()),
		"current_time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
