// Package app runs the local practice loop: camera frames go through the
// landmark detector into a practice session, and each outcome is reported.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/detector"
	"github.com/ayusman/signcoach/internal/practice"
)

// Frame rates for the two loop modes.
const (
	// ActiveFPS is the frame rate while the learner is moving.
	ActiveFPS = 15
	// IdleFPS is the frame rate when nothing has moved for a while.
	IdleFPS = 5
)

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("practice loop already running")

// OutcomeFunc receives every outcome the session produces.
type OutcomeFunc func(practice.Outcome)

// Config holds configuration options for the practice loop.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Session is a *practice.HandSession or *practice.EmotionSession.
	Session practice.Session

	ActiveFPS int
	IdleFPS   int

	// Activity gates detection on learner movement. Nil classifies every
	// frame.
	Activity *capture.Activity

	OnOutcome OutcomeFunc
	Logger    *slog.Logger
}

// Stats counts what the loop has done so far.
type Stats struct {
	Frames    int `json:"frames"`
	Skipped   int `json:"skipped"`
	Detected  int `json:"detected"`
	Correct   int `json:"correct"`
	Errors    int `json:"errors"`
	LastScore int `json:"last_score"`
}

// App is the practice loop.
type App struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stats   Stats
}

// New validates the config and creates the loop.
func New(config Config) (*App, error) {
	if config.Camera == nil {
		return nil, fmt.Errorf("app: camera is required")
	}
	if config.Detector == nil {
		return nil, fmt.Errorf("app: detector is required")
	}
	switch config.Session.(type) {
	case *practice.HandSession, *practice.EmotionSession:
	default:
		return nil, fmt.Errorf("app: unsupported session %T", config.Session)
	}

	if config.ActiveFPS <= 0 {
		config.ActiveFPS = ActiveFPS
	}
	if config.IdleFPS <= 0 || config.IdleFPS > config.ActiveFPS {
		config.IdleFPS = min(IdleFPS, config.ActiveFPS)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		config: config,
		logger: logger.With(slog.String("session", config.Session.ID())),
	}, nil
}

// Session returns the session the loop feeds.
func (a *App) Session() practice.Session {
	return a.config.Session
}

// Stats returns a copy of the loop counters.
func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Run opens the camera and processes frames until ctx is done. It returns
// nil on cancellation.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunning
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.config.Camera.Close(); err != nil {
			a.logger.Warn("close camera", slog.Any("error", err))
		}
	}()

	a.logger.Info("practice loop started", slog.String("target", a.config.Session.Snapshot().Target))
	err := a.loop(ctx)
	a.logger.Info("practice loop stopped", slog.Any("stats", a.Stats()))
	return err
}

func (a *App) count(f func(*Stats)) {
	a.mu.Lock()
	f(&a.stats)
	a.mu.Unlock()
}
