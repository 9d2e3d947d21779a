package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/recognition"
)

// PatternHandler exposes the live recognition libraries.
type PatternHandler struct {
	engine *recognition.Engine
}

// NewPatternHandler creates a PatternHandler.
func NewPatternHandler(engine *recognition.Engine) *PatternHandler {
	return &PatternHandler{engine: engine}
}

// Register mounts the pattern endpoints on the router.
func (h *PatternHandler) Register(r chi.Router) {
	r.Get("/api/patterns", h.list)
	r.Get("/api/emotions", h.emotions)
}

type listPatternsResponse struct {
	Patterns []handshape.Pattern `json:"patterns"`
}

// list handles GET /api/patterns, optionally filtered by ?kind=.
func (h *PatternHandler) list(w http.ResponseWriter, r *http.Request) {
	patterns := h.engine.Patterns()
	if kind := r.URL.Query().Get("kind"); kind != "" {
		patterns = handshape.Filter(patterns, handshape.Kind(kind))
	}
	if patterns == nil {
		patterns = []handshape.Pattern{}
	}
	writeJSON(w, http.StatusOK, listPatternsResponse{Patterns: patterns})
}

// emotions handles GET /api/emotions.
func (h *PatternHandler) emotions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"emotions": h.engine.Emotions()})
}
