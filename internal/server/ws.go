package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/recognition"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// landmarkMessage is one broadcast frame of the live feed.
type landmarkMessage struct {
	Frame     landmark.Frame    `json:"frame"`
	Hand      *handshape.Result `json:"hand,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// LandmarksHandler broadcasts the landmarks detected on the server camera,
// with a snapshot classification of the first hand, over WebSocket. The
// camera is only read while at least one client is connected.
type LandmarksHandler struct {
	detector detector.Detector
	camera   capture.Camera
	engine   *recognition.Engine
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	stop    context.CancelFunc
	// done is closed when the most recent broadcast loop has returned.
	done chan struct{}
}

// NewLandmarksHandler creates a new LandmarksHandler.
func NewLandmarksHandler(d detector.Detector, c capture.Camera, e *recognition.Engine, logger *slog.Logger) *LandmarksHandler {
	return &LandmarksHandler{
		detector: d,
		camera:   c,
		engine:   e,
		logger:   logger,
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	h.join(conn)
	defer h.leave(conn)

	// Drain client messages until it goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *LandmarksHandler) join(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = struct{}{}
	if h.stop != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev, done := h.done, make(chan struct{})
	h.stop, h.done = cancel, done
	go func() {
		defer close(done)
		// A cancelled loop may still be reading the camera.
		if prev != nil {
			<-prev
		}
		h.broadcast(ctx)
	}()
}

func (h *LandmarksHandler) leave(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, conn)
	if len(h.clients) == 0 && h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// broadcast detects landmarks at the camera frame rate and sends them to
// every client until ctx is cancelled.
func (h *LandmarksHandler) broadcast(ctx context.Context) {
	ticker := time.NewTicker(frameInterval(h.camera.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		msg, err := h.detect(ctx)
		if err != nil {
			h.logger.Debug("live landmarks skipped", slog.Any("error", err))
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("live landmarks write failed", slog.Any("error", err))
			}
		}
		h.mu.Unlock()
	}
}

func (h *LandmarksHandler) detect(ctx context.Context) (landmarkMessage, error) {
	frame, err := h.camera.ReadFrame()
	if err != nil {
		return landmarkMessage{}, err
	}
	defer frame.Close()

	lm, err := h.detector.Detect(ctx, frame)
	if err != nil {
		return landmarkMessage{}, err
	}

	msg := landmarkMessage{Frame: lm, Timestamp: time.Now().UnixMilli()}
	if res, ok := h.engine.ClassifyHand(lm.FirstHand()); ok {
		msg.Hand = &res
	}
	return msg, nil
}
