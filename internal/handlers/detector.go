package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Lolo20020803/ProyectoSBC/internal/dto"
	"github.com/Lolo20020803/ProyectoSBC/internal/models"
	"github.com/Lolo20020803/ProyectoSBC/internal/repository"
	"github.com/Lolo20020803/ProyectoSBC/internal/services/motion"
)

// Detector exposes the processing loop to the HTTP API.
type Detector interface {
	Stats() motion.Stats
	Gate() *motion.Gate
}

// EventsResponse is the payload of GET /api/events.
type EventsResponse struct {
	Events []models.MotionEvent    `json:"events"`
	Counts []models.DirectionCount `json:"counts"`
}

// EventsHandler lists stored motion events, newest first. Query parameters:
// limit, offset, direction, camera, since (RFC 3339).
func EventsHandler(events repository.MotionEventRepository, logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", logger)
			return
		}

		q := r.URL.Query()
		filter := &models.EventFilter{
			Camera:    q.Get("camera"),
			Direction: q.Get("direction"),
			Limit:     atoiDefault(q.Get("limit"), 50),
			Offset:    atoiDefault(q.Get("offset"), 0),
		}
		if since := q.Get("since"); since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid since: "+err.Error(), logger)
				return
			}
			filter.Since = t
		}

		list, err := events.List(filter)
		if err != nil {
			logger.Error("Failed to list motion events: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list events", logger)
			return
		}
		counts, err := events.CountByDirection(filter.Since)
		if err != nil {
			logger.Error("Failed to count motion events: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to count events", logger)
			return
		}

		writeJSON(w, http.StatusOK, EventsResponse{Events: list, Counts: counts}, logger)
	}
}

// StatsResponse is the payload of GET /api/stats.
type StatsResponse struct {
	Pipeline motion.Stats `json:"pipeline"`
	Viewers  int          `json:"viewers"`
	MQTT     *MQTTStats   `json:"mqtt,omitempty"`
}

// MQTTStats are the broker publish counters.
type MQTTStats struct {
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

// StatsHandler reports the processor counters, the number of viewers and,
// when mqtt is set, the broker publish counters.
func StatsHandler(detector Detector, viewers func() int, mqtt func() (published, errors uint64), logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{Pipeline: detector.Stats()}
		if viewers != nil {
			resp.Viewers = viewers()
		}
		if mqtt != nil {
			published, errs := mqtt()
			resp.MQTT = &MQTTStats{Published: published, Errors: errs}
		}
		writeJSON(w, http.StatusOK, resp, logger)
	}
}

// GateHandler reports the gate on GET and changes it on POST by offering
// the new value to the control queue.
func GateHandler(detector Detector, control chan bool, logger Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, dto.GateResponse{Enabled: detector.Gate().IsOpen()}, logger)

		case http.MethodPost:
			var req dto.GateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
				writeError(w, http.StatusBadRequest, `body must be {"enabled": bool}`, logger)
				return
			}
			if control != nil {
				motion.OfferLatest(control, *req.Enabled)
			} else {
				detector.Gate().Set(*req.Enabled)
			}
			logger.Info("Gate set to %t over HTTP", *req.Enabled)
			writeJSON(w, http.StatusAccepted, dto.GateResponse{Enabled: *req.Enabled}, logger)

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed", logger)
		}
	}
}

// HealthHandler always answers 200.
func HealthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": service})
	}
}
