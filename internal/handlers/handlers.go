// Package handlers provides HTTP request handlers
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/findosh/tradeimport/internal/config"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/findosh/tradeimport/internal/storage"
	"github.com/rs/zerolog"
)

// Handler contains all HTTP handlers and dependencies
type Handler struct {
	cfg       *config.Config
	importer  *importer.Service
	eventRepo *storage.EventRepository
	log       zerolog.Logger
}

// New creates a new handler with all dependencies. eventRepo may be nil when
// telemetry storage is disabled.
func New(
	cfg *config.Config,
	importService *importer.Service,
	eventRepo *storage.EventRepository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:       cfg,
		importer:  importService,
		eventRepo: eventRepo,
		log:       log.With().Str("component", "handlers").Logger(),
	}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// jsonError writes a JSON error response
func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// importError maps an import failure to a status code
func (h *Handler) importError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importer.ErrUnsupportedFormat):
		h.jsonError(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, importer.ErrEmptyFile), errors.Is(err, importer.ErrIncompleteMapping):
		h.jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, context.DeadlineExceeded):
		h.jsonError(w, "Import timed out", http.StatusGatewayTimeout)
	default:
		h.log.Error().Err(err).Msg("Import failed")
		h.jsonError(w, "Could not read file", http.StatusBadRequest)
	}
}

// withTimeout bounds one import by the configured timeout
func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.cfg.ImportTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.cfg.ImportTimeout)
}
