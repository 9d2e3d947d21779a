package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/expression"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/recognition"
)

// ClassifyHandler classifies single landmark frames without a session.
// It keeps no gate, so every call is an independent snapshot.
type ClassifyHandler struct {
	engine *recognition.Engine
	logger *slog.Logger
}

// NewClassifyHandler creates a ClassifyHandler.
func NewClassifyHandler(engine *recognition.Engine, logger *slog.Logger) *ClassifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyHandler{engine: engine, logger: logger}
}

// Register mounts the classification endpoints on the router.
func (h *ClassifyHandler) Register(r chi.Router) {
	r.Post("/api/classify/hand", h.hand)
	r.Post("/api/classify/emotion", h.emotion)
}

type handResponse struct {
	Detected   bool              `json:"detected"`
	Label      string            `json:"label,omitempty"`
	Confidence float64           `json:"confidence"`
	Matches    []handshape.Match `json:"matches,omitempty"`
}

// hand handles POST /api/classify/hand. The optional kind query parameter
// restricts matching to one pattern kind; top returns the best matches.
func (h *ClassifyHandler) hand(w http.ResponseWriter, r *http.Request) {
	frame, ok := decodeFrame(w, r)
	if !ok {
		return
	}

	top := 0
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid top")
			return
		}
		top = n
	}

	hand := frame.FirstHand()
	var (
		res      handshape.Result
		detected bool
	)
	switch kind := handshape.Kind(r.URL.Query().Get("kind")); kind {
	case "":
		res, detected = h.engine.ClassifyHand(hand)
	case handshape.KindLetter, handshape.KindDigit, handshape.KindCustom:
		res, detected = h.engine.ClassifyHandAs(kind, hand)
	default:
		writeError(w, http.StatusBadRequest, "Invalid kind")
		return
	}

	resp := handResponse{Detected: detected, Label: res.Label, Confidence: res.Confidence}
	if top > 0 {
		matches := h.engine.RankHand(hand)
		resp.Matches = matches[:min(top, len(matches))]
	}
	writeJSON(w, http.StatusOK, resp)
}

// emotion handles POST /api/classify/emotion.
func (h *ClassifyHandler) emotion(w http.ResponseWriter, r *http.Request) {
	frame, ok := decodeFrame(w, r)
	if !ok {
		return
	}

	res, ok := h.engine.ClassifyEmotion(frame.Poses, frame.Faces)
	if !ok {
		res = expression.Result{Feedback: "Classification failed; please try again"}
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// decodeFrame reads and validates a landmark frame body.
func decodeFrame(w http.ResponseWriter, r *http.Request) (landmark.Frame, bool) {
	var raw landmark.RawFrame
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return landmark.Frame{}, false
	}
	frame, err := raw.Decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return landmark.Frame{}, false
	}
	return frame, true
}
