// Package detector runs the perception models that turn camera frames into
// hand, body and face landmarks.
package detector

import (
	"context"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signcoach/internal/landmark"
)

// Detector defines the interface for landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame. An empty Frame means nothing was found.
	Detect(ctx context.Context, frame *gocv.Mat) (landmark.Frame, error)

	// Close releases any resources held by the detector.
	Close() error
}

// DefaultIdleTimeout is how long the MediaPipe service may sit unused before
// it is shut down.
const DefaultIdleTimeout = 30 * time.Second

// Config holds configuration options for landmark detection.
type Config struct {
	// ScriptPath is the MediaPipe service script. Empty searches the usual
	// install locations.
	ScriptPath string

	// Python is the interpreter. Empty prefers a local venv, then python3.
	Python string

	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// WithFace also runs the pose and face mesh models, which emotion
	// practice needs.
	WithFace bool

	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		IdleTimeout:   DefaultIdleTimeout,
	}
}
