package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/practice"
)

const (
	socketReadLimit = maxBodyBytes
	socketWriteWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// socket handles GET /api/sessions/{id}/ws. Every text message is a landmark
// frame; the reply is the outcome, or an error object when the frame is bad.
// The connection ends when the client leaves or the session is deleted.
func (h *SessionHandler) socket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(socketReadLimit)

	logger := h.logger.With(slog.String("session_id", s.ID()))
	logger.Debug("websocket connected")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}

		if _, err := h.sessions.Get(s.ID()); err != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(socketWriteWait))
			return
		}

		reply := h.score(s, msg)
		conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", slog.Any("error", err))
			return
		}
	}
}

func (h *SessionHandler) score(s practice.Session, msg []byte) any {
	var raw landmark.RawFrame
	if err := json.Unmarshal(msg, &raw); err != nil {
		return errorResponse{Error: "Invalid JSON"}
	}
	frame, err := raw.Decode()
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	out, err := practice.SubmitFrame(s, frame)
	if err != nil {
		return errorResponse{Error: err.Error()}
	}
	return out
}
