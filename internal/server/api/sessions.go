package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/practice"
)

// SessionHandler serves practice sessions. Clients post landmark frames and
// receive the session outcome for each one.
type SessionHandler struct {
	sessions *practice.Registry
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *practice.Registry, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Register mounts the session endpoints on the router.
func (h *SessionHandler) Register(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.delete)
			r.Post("/frames", h.submit)
			r.Post("/reset", h.reset)
			r.Put("/mode", h.setMode)
			r.Get("/ws", h.socket)
		})
	})
}

type createSessionRequest struct {
	Type     practice.SessionType `json:"type"`
	Category string               `json:"category"`
	Mode     string               `json:"mode"`
	Range    string               `json:"range"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

type listSessionsResponse struct {
	Sessions []practice.Snapshot `json:"sessions"`
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: h.sessions.List()})
}

// create handles POST /api/sessions.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var s practice.Session
	switch req.Type {
	case "", practice.TypeHand:
		category, err := practice.ParseCategory(req.Category)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode, err := practice.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		hs, err := h.sessions.CreateHand(practice.HandOptions{Category: category, Mode: mode, Range: req.Range})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s = hs
	case practice.TypeEmotion:
		s = h.sessions.CreateEmotion()
	default:
		writeError(w, http.StatusBadRequest, "Invalid session type")
		return
	}

	h.logger.InfoContext(r.Context(), "session opened",
		slog.String("session_id", s.ID()), slog.String("type", string(s.Type())))
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submit handles POST /api/sessions/{id}/frames.
func (h *SessionHandler) submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	frame, ok := decodeFrame(w, r)
	if !ok {
		return
	}

	out, err := practice.SubmitFrame(s, frame)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "submit frame failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to score frame")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// reset handles POST /api/sessions/{id}/reset.
func (h *SessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.Reset()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// setMode handles PUT /api/sessions/{id}/mode on hand sessions.
func (h *SessionHandler) setMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hs, isHand := s.(*practice.HandSession)
	if !isHand {
		writeError(w, http.StatusBadRequest, "Only hand sessions have a mode")
		return
	}

	var req setModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	mode, err := practice.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hs.SetMode(mode)
	writeJSON(w, http.StatusOK, hs.Snapshot())
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (practice.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, practice.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return nil, false
	}
	return s, true
}
