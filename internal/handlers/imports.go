package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/importer"
)

// Import detects the broker of an uploaded file and parses it
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	file := h.readUpload(w, r)
	if file == nil {
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	result, err := h.importer.Import(ctx, file, r.FormValue("locale"))
	if err != nil {
		h.importError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// ImportMapped parses an uploaded file with a caller-confirmed mapping
func (h *Handler) ImportMapped(w http.ResponseWriter, r *http.Request) {
	file := h.readUpload(w, r)
	if file == nil {
		return
	}

	var mapping models.Mapping
	if err := json.Unmarshal([]byte(r.FormValue("mapping")), &mapping); err != nil {
		h.jsonError(w, "Invalid mapping", http.StatusBadRequest)
		return
	}

	locale := r.FormValue("locale")
	if locale == "" {
		locale = h.cfg.DefaultLocale
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	result, err := h.importer.ImportMapped(ctx, file, mapping, locale)
	if err != nil {
		h.importError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// Detect reports the broker and header of an uploaded file
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	file := h.readUpload(w, r)
	if file == nil {
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	text, err := importer.Ingest(ctx, file)
	if err != nil {
		h.importError(w, err)
		return
	}
	detection, err := h.importer.Inspect(text)
	if err != nil {
		h.importError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, detection)
}

// Validate checks every row of an uploaded file and returns the line errors
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	file := h.readUpload(w, r)
	if file == nil {
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	report, err := h.importer.Validate(ctx, file, r.FormValue("locale"))
	if err != nil {
		h.importError(w, err)
		return
	}

	errs := report.Errors
	if errs == nil {
		errs = []*importer.LineError{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"broker":  report.Broker,
		"rows":    report.Rows,
		"valid":   report.Valid,
		"skipped": report.Skipped,
		"errors":  errs,
	})
}

// MappingRequest is the body of a mapping suggestion request
type MappingRequest struct {
	Headers    []string            `json:"headers"`
	SampleRows []map[string]string `json:"sampleRows,omitempty"`
}

// Mapping suggests a header mapping for an unrecognised file
func (h *Handler) Mapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Headers) == 0 {
		h.jsonError(w, "headers are required", http.StatusBadRequest)
		return
	}

	mapping := h.importer.SuggestMapping(req.Headers)
	missing := mapping.Missing()
	if missing == nil {
		missing = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"mapping": mapping,
		"missing": missing,
	})
}

// Brokers lists adapter ids in detection priority order
func (h *Handler) Brokers(w http.ResponseWriter, r *http.Request) {
	adapters := h.importer.Adapters()
	ids := make([]string, 0, len(adapters))
	for _, a := range adapters {
		ids = append(ids, a.Name())
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"brokers": ids})
}

// hasJSONBody reports whether the request declares a JSON payload
func hasJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
