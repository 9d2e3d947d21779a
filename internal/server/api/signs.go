package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/store"
)

// Reloader rebuilds the live pattern library after the stored signs change.
type Reloader interface {
	Reload() error
}

// SignHandler serves custom signs, their recorded samples and calibration.
type SignHandler struct {
	store   *store.Store
	library Reloader
	trainer *handshape.Trainer
	logger  *slog.Logger
}

// NewSignHandler creates a SignHandler. library may be nil when nothing
// classifies against the store.
func NewSignHandler(s *store.Store, library Reloader, trainer *handshape.Trainer, logger *slog.Logger) *SignHandler {
	if trainer == nil {
		trainer = handshape.NewTrainer(handshape.DefaultConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SignHandler{store: s, library: library, trainer: trainer, logger: logger}
}

// Register mounts the sign endpoints on the router.
func (h *SignHandler) Register(r chi.Router) {
	r.Route("/api/signs", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Get("/samples", h.listSamples)
			r.Post("/samples", h.createSamples)
			r.Post("/calibrate", h.calibrate)
		})
	})
}

type signRequest struct {
	Label  string         `json:"label"`
	Kind   handshape.Kind `json:"kind"`
	Joints [][3]float64   `json:"joints"`
}

type signResponse struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Kind       handshape.Kind `json:"kind"`
	Joints     [][3]float64   `json:"joints,omitempty"`
	Calibrated bool           `json:"calibrated"`
	Samples    int            `json:"samples"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type listSignsResponse struct {
	Signs []signResponse `json:"signs"`
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	SignID      string          `json:"sign_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

func toSignResponse(s *store.Sign) signResponse {
	return signResponse{
		ID:         s.ID,
		Label:      s.Label,
		Kind:       s.Kind,
		Joints:     s.Joints,
		Calibrated: len(s.Joints) > 0,
		Samples:    s.Samples,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
}

func validKind(k handshape.Kind) bool {
	switch k {
	case handshape.KindLetter, handshape.KindDigit, handshape.KindCustom:
		return true
	}
	return false
}

// list handles GET /api/signs.
func (h *SignHandler) list(w http.ResponseWriter, r *http.Request) {
	signs, err := h.store.Signs().List()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list signs failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to list signs")
		return
	}

	response := listSignsResponse{Signs: make([]signResponse, 0, len(signs))}
	for _, s := range signs {
		response.Signs = append(response.Signs, toSignResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/signs/{id}.
func (h *SignHandler) get(w http.ResponseWriter, r *http.Request) {
	sign, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSignResponse(sign))
}

// create handles POST /api/signs.
func (h *SignHandler) create(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	sign := &store.Sign{
		ID:    uuid.NewString(),
		Label: strings.ToUpper(strings.TrimSpace(req.Label)),
		Kind:  req.Kind,
	}
	if sign.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required")
		return
	}
	if sign.Kind == "" {
		sign.Kind = handshape.KindCustom
	}
	if !validKind(sign.Kind) {
		writeError(w, http.StatusBadRequest, "Invalid sign kind")
		return
	}
	if len(req.Joints) > 0 {
		sign.Joints = req.Joints
		if err := sign.Pattern().Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.store.Signs().Create(sign); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Sign label already exists")
			return
		}
		h.logger.ErrorContext(r.Context(), "create sign failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to create sign")
		return
	}

	if sign.Joints != nil {
		h.reload(r)
	}
	writeJSON(w, http.StatusCreated, toSignResponse(sign))
}

// update handles PUT /api/signs/{id}. Empty fields keep their stored value.
func (h *SignHandler) update(w http.ResponseWriter, r *http.Request) {
	sign, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req signRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if label := strings.ToUpper(strings.TrimSpace(req.Label)); label != "" {
		sign.Label = label
	}
	if req.Kind != "" {
		if !validKind(req.Kind) {
			writeError(w, http.StatusBadRequest, "Invalid sign kind")
			return
		}
		sign.Kind = req.Kind
	}
	if len(req.Joints) > 0 {
		sign.Joints = req.Joints
		if err := sign.Pattern().Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if !h.save(w, r, sign) {
		return
	}
	writeJSON(w, http.StatusOK, toSignResponse(sign))
}

// delete handles DELETE /api/signs/{id}.
func (h *SignHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Signs().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "delete sign failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to delete sign")
		return
	}

	h.reload(r)
	w.WriteHeader(http.StatusNoContent)
}

// listSamples handles GET /api/signs/{id}/samples.
func (h *SignHandler) listSamples(w http.ResponseWriter, r *http.Request) {
	sign, ok := h.lookup(w, r)
	if !ok {
		return
	}

	samples, err := h.store.Samples().GetBySignID(sign.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list samples failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			SignID:      s.SignID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// createSamples handles POST /api/signs/{id}/samples. The new recording
// replaces any earlier one.
func (h *SignHandler) createSamples(w http.ResponseWriter, r *http.Request) {
	var req createSamplesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.Samples().Replace(id, req.Samples); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "save samples failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sign_id": id,
		"count":   len(req.Samples),
	})
}

// calibrate handles POST /api/signs/{id}/calibrate: it trains the sign's
// pattern from its recorded samples and reloads the live library.
func (h *SignHandler) calibrate(w http.ResponseWriter, r *http.Request) {
	sign, ok := h.lookup(w, r)
	if !ok {
		return
	}

	raw, err := h.store.Samples().Raw(sign.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "load samples failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "No samples recorded for this sign")
		return
	}

	pattern, err := h.trainer.TrainPattern(sign.Label, sign.Kind, raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sign.Joints = pattern.Joints

	if !h.save(w, r, sign) {
		return
	}
	h.logger.InfoContext(r.Context(), "sign calibrated",
		slog.String("label", sign.Label), slog.Int("samples", len(raw)))
	writeJSON(w, http.StatusOK, toSignResponse(sign))
}

func (h *SignHandler) lookup(w http.ResponseWriter, r *http.Request) (*store.Sign, bool) {
	sign, err := h.store.Signs().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "get sign failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to get sign")
		return nil, false
	}
	return sign, true
}

func (h *SignHandler) save(w http.ResponseWriter, r *http.Request, sign *store.Sign) bool {
	if err := h.store.Signs().Update(sign); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "Sign label already exists")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Sign not found")
		default:
			h.logger.ErrorContext(r.Context(), "update sign failed", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Failed to update sign")
		}
		return false
	}
	h.reload(r)
	return true
}

// reload refreshes the live library. A failure leaves the previous library
// in place, so it is logged rather than returned to the client.
func (h *SignHandler) reload(r *http.Request) {
	if h.library == nil {
		return
	}
	if err := h.library.Reload(); err != nil {
		h.logger.ErrorContext(r.Context(), "reload pattern library failed", slog.Any("error", err))
	}
}
