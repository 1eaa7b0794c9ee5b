package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/export"
	"github.com/findosh/tradeimport/internal/services/lots"
	"github.com/findosh/tradeimport/internal/storage"
	"github.com/go-chi/chi/v5"
)

// RealizedRequest is the body of a realized P&L request
type RealizedRequest struct {
	Opens  map[string][]lots.Lot `json:"opens,omitempty"`
	Trades []models.Trade        `json:"trades"`
}

// Realized computes FIFO realized P&L per ticker
func (h *Handler) Realized(w http.ResponseWriter, r *http.Request) {
	var req RealizedRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": lots.FromTrades(req.Opens, req.Trades),
	})
}

// ExportRequest is the body of an export request
type ExportRequest struct {
	Trades []models.Trade `json:"trades"`
}

// Export renders trades as a tax software CSV
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	var req ExportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var buf bytes.Buffer
	if _, err := export.Write(&buf, format, req.Trades); err != nil {
		h.log.Error().Err(err).Str("format", string(format)).Msg("Export failed")
		h.jsonError(w, "Export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename()))
	w.Write(buf.Bytes())
}

// TelemetryStats summarizes parse results per broker
func (h *Handler) TelemetryStats(w http.ResponseWriter, r *http.Request) {
	if h.eventRepo == nil {
		h.jsonError(w, "Telemetry storage not available", http.StatusServiceUnavailable)
		return
	}

	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			h.jsonError(w, "Invalid window", http.StatusBadRequest)
			return
		}
		window = d
	}

	stats, err := h.eventRepo.Stats(r.Context(), time.Now().Add(-window))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load telemetry stats")
		h.jsonError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []storage.BrokerStats{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"brokers": stats})
}

// decodeJSON reads a JSON body, writing the error response on failure
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if !hasJSONBody(r) {
		h.jsonError(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxUploadBytes))
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return false
		}
		h.jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
