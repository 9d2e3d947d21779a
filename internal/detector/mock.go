package detector

import (
	"context"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
)

// MockDetector is a test implementation of the Detector interface.
// Queued frames are returned in order; once the queue is drained the last
// frame repeats.
type MockDetector struct {
	mu     sync.Mutex
	frames []landmark.Frame
	last   landmark.Frame
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands replaces the queue with a single frame holding hands.
func (m *MockDetector) SetHands(hands ...landmark.HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = nil
	m.last = landmark.Frame{Hands: hands}
}

// Queue appends frames to be returned by subsequent Detect calls.
func (m *MockDetector) Queue(frames ...landmark.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, frames...)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued frame or error.
func (m *MockDetector) Detect(ctx context.Context, frame *gocv.Mat) (landmark.Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if err := ctx.Err(); err != nil {
		return landmark.Frame{}, err
	}
	if m.err != nil {
		return landmark.Frame{}, m.err
	}
	if len(m.frames) > 0 {
		m.last = m.frames[0]
		m.frames = m.frames[1:]
	}
	return m.last, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SignHand returns a right hand forming the built-in pattern label, placed
// in the middle of a 640x480 frame. It panics on an unknown label.
func SignHand(label string) landmark.HandLandmarks {
	for _, p := range handshape.DefaultPatterns() {
		if p.Label == label {
			h := handshape.Synthesize(p, landmark.Point3D{X: 320, Y: 400}, 180)
			h.Handedness = "Right"
			h.Score = 0.95
			return h
		}
	}
	panic("detector: no built-in pattern " + label)
}
