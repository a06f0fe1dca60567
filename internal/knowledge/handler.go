package knowledge

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bdafahim/OmniAssist/internal/observability/metrics"
	"github.com/bdafahim/OmniAssist/pkg/logging"
)

// Handler exposes the knowledge base over HTTP for query and admin updates.
// The classify function maps free text to a topic key; it is injected to
// keep this package independent of the dialogue engine.
type Handler struct {
	store    *Store
	classify func(string) string
	metrics  *metrics.DialogueMetrics
	logger   *logging.Logger
}

// NewHandler creates a knowledge HTTP handler. m may be nil.
func NewHandler(store *Store, classify func(string) string, m *metrics.DialogueMetrics, logger *logging.Logger) *Handler {
	if store == nil {
		panic("knowledge: store cannot be nil")
	}
	if classify == nil {
		panic("knowledge: classify function cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, classify: classify, metrics: m, logger: logger.Component("knowledge")}
}

type queryResponse struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Query handles GET /knowledge/query?q=... by classifying the text and
// returning the matching document value.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	topic := h.classify(q)
	resp := queryResponse{Type: topic}
	if topic == "unknown" {
		resp.Data = NotAvailableText
	} else {
		resp.Data = h.store.Query(r.Context(), topic)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update handles PUT /knowledge with a partial document body. A persistence
// failure still applies the update in memory; the response says so.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var partial Document
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(partial) == 0 {
		http.Error(w, "empty update", http.StatusBadRequest)
		return
	}

	if err := h.store.Update(r.Context(), partial); err != nil {
		h.logger.Error("knowledge update not persisted", "error", err)
		h.metrics.ObserveKnowledgeUpdate("applied_in_memory")
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"status": "applied_in_memory",
			"error":  "durable write failed",
		})
		return
	}

	h.metrics.ObserveKnowledgeUpdate("ok")
	h.logger.Info("knowledge base updated", "keys", len(partial))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Dump handles GET /knowledge, returning the full document for admin reads.
func (h *Handler) Dump(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// BusinessType handles GET /knowledge/business-type.
func (h *Handler) BusinessType(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"business_type": h.store.BusinessType()})
}

// Menu handles GET /knowledge/menu, restaurant deployments only.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	if h.store.BusinessType() != "restaurant" {
		http.Error(w, "This endpoint is only available for restaurant business type", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Type: "menu", Data: h.store.Query(r.Context(), "menu")})
}

// Properties handles GET /knowledge/properties, real estate deployments only.
func (h *Handler) Properties(w http.ResponseWriter, r *http.Request) {
	if h.store.BusinessType() != "real_estate" {
		http.Error(w, "This endpoint is only available for real estate business type", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Type: "properties", Data: h.store.Query(r.Context(), "properties")})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
