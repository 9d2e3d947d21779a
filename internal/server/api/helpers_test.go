package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/recognition"
	"github.com/ayusman/signcoach/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func newEngine(t *testing.T) *recognition.Engine {
	t.Helper()

	e, err := recognition.New(recognition.Options{})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

// do sends body (marshalled unless it is already a string) to the handler.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func rockPattern() handshape.Pattern {
	return handshape.Pattern{
		Label:  "ROCK",
		Kind:   handshape.KindCustom,
		Joints: [][3]float64{{1, 1, 0}, {1, 1, 0}, {0, 0, 0}, {0, 0, 0}, {1, 1, 0}},
	}
}

func builtin(t *testing.T, label string) handshape.Pattern {
	t.Helper()
	for _, p := range handshape.DefaultPatterns() {
		if p.Label == label {
			return p
		}
	}
	t.Fatalf("no pattern %s", label)
	return handshape.Pattern{}
}

func handFrame(p handshape.Pattern) landmark.RawFrame {
	h := handshape.Synthesize(p, landmark.Point3D{X: 320, Y: 420}, 200)
	return landmark.RawFrame{Hands: []landmark.RawHand{{Points: h.Points[:], Handedness: "Right", Score: 0.9}}}
}

func samplesFor(p handshape.Pattern, n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		h := handshape.Synthesize(p, landmark.Point3D{X: 300 + float64(i)*5, Y: 400}, 180)
		data, _ := json.Marshal(handshape.Sample{Landmarks: h.Points[:], Timestamp: int64(i)})
		out[i] = data
	}
	return out
}

// handRows encodes p's synthesized hand in the [[x, y, z], ...] layout.
func handRows(t *testing.T, p handshape.Pattern) string {
	t.Helper()
	h := handshape.Synthesize(p, landmark.Point3D{X: 320, Y: 420}, 200)
	rows := make([][3]float64, len(h.Points))
	for i, pt := range h.Points {
		rows[i] = [3]float64{pt.X, pt.Y, pt.Z}
	}
	body, err := json.Marshal(map[string]any{"hands": []map[string]any{{"points": rows}}})
	if err != nil {
		t.Fatalf("failed to marshal frame: %v", err)
	}
	return string(body)
}
