package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffThreshold = 25
)

// Activity defaults.
const (
	// DefaultMotionPercent is the share of pixels (0-100) that must change
	// between frames to count as movement.
	DefaultMotionPercent = 1.0
	// DefaultIdleAfter is how long without movement before the learner is
	// considered idle.
	DefaultIdleAfter = 2 * time.Second
)

// ActivityConfig tunes an Activity monitor.
type ActivityConfig struct {
	MotionPercent float64
	IdleAfter     time.Duration
}

// Activity watches consecutive frames and reports whether the learner is
// active. A learner stays active for IdleAfter after the last movement, so a
// held sign keeps being classified.
type Activity struct {
	mu         sync.Mutex
	cfg        ActivityConfig
	prev       gocv.Mat
	hasPrev    bool
	lastMotion time.Time
}

// NewActivity creates a monitor. Zero config fields take the defaults.
func NewActivity(cfg ActivityConfig) *Activity {
	if cfg.MotionPercent <= 0 {
		cfg.MotionPercent = DefaultMotionPercent
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = DefaultIdleAfter
	}
	return &Activity{cfg: cfg, prev: gocv.NewMat()}
}

// Observe compares frame with the previous one. It returns whether the
// learner is active at now and the percentage of pixels that changed. The
// first frame only sets the baseline.
func (a *Activity) Observe(frame *gocv.Mat, now time.Time) (active bool, changed float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if frame == nil || frame.Empty() {
		return a.activeAt(now), 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)

	if !a.hasPrev || a.prev.Rows() != gray.Rows() || a.prev.Cols() != gray.Cols() {
		gray.CopyTo(&a.prev)
		a.hasPrev = true
		return a.activeAt(now), 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, a.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	changed = float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&a.prev)

	if changed > a.cfg.MotionPercent {
		a.lastMotion = now
	}
	return a.activeAt(now), changed
}

func (a *Activity) activeAt(now time.Time) bool {
	return !a.lastMotion.IsZero() && now.Sub(a.lastMotion) <= a.cfg.IdleAfter
}

// Reset forgets the baseline frame and the last movement.
func (a *Activity) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hasPrev = false
	a.lastMotion = time.Time{}
}

// Close releases the baseline frame. Observe may still be called and starts
// from a fresh baseline.
func (a *Activity) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prev.Close()
	a.prev = gocv.NewMat()
	a.hasPrev = false
}
