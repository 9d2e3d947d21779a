package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ayusman/signcoach/internal/capture"
	"github.com/ayusman/signcoach/internal/practice"
)

// loop ticks at the active or idle frame rate and feeds each frame through
// Step. Read and detection errors are logged and the loop carries on.
func (a *App) loop(ctx context.Context) error {
	active := true
	interval := time.Second / time.Duration(a.config.ActiveFPS)
	a.config.Camera.SetFPS(a.config.ActiveFPS)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			out, moving, err := a.Step(ctx, now)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil
			case errors.Is(err, capture.ErrNoFrame):
				a.logger.Debug("no frame")
			case err != nil:
				a.logger.Warn("practice step failed", slog.Any("error", err))
			case out != nil && a.config.OnOutcome != nil:
				a.config.OnOutcome(*out)
			}

			if moving != active {
				active = moving
				fps := a.config.IdleFPS
				if active {
					fps = a.config.ActiveFPS
				}
				a.config.Camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				a.logger.Debug("frame rate changed", slog.Int("fps", fps))
			}
		}
	}
}

// Step processes one frame. It returns the session outcome, or nil when the
// frame was skipped because the learner was idle, and whether the learner
// is active.
func (a *App) Step(ctx context.Context, now time.Time) (*practice.Outcome, bool, error) {
	a.count(func(s *Stats) { s.Frames++ })

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		a.count(func(s *Stats) { s.Errors++ })
		return nil, true, err
	}
	defer frame.Close()

	active := true
	if a.config.Activity != nil {
		active, _ = a.config.Activity.Observe(frame, now)
	}
	if !active {
		a.count(func(s *Stats) { s.Skipped++ })
		return nil, false, nil
	}

	lm, err := a.config.Detector.Detect(ctx, frame)
	if err != nil {
		a.count(func(s *Stats) { s.Errors++ })
		return nil, true, err
	}

	out, err := practice.SubmitFrame(a.config.Session, lm)
	if err != nil {
		return nil, true, err
	}

	a.count(func(s *Stats) {
		if out.Detected != "" {
			s.Detected++
		}
		if out.Kind == practice.OutcomeCorrect {
			s.Correct++
		}
		s.LastScore = out.Score
	})
	if out.Kind == practice.OutcomeCorrect {
		a.logger.Info("target completed",
			slog.String("target", out.Target),
			slog.String("next", out.Next),
			slog.Int("score", out.Score))
	}
	return &out, true, nil
}
