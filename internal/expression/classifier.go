package expression

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mdobak/go-xerrors"

	"github.com/ayusman/signcoach/internal/landmark"
)

// Missing-feature markers for the sentinel results.
const (
	MissingVisibility Feature = "visibility"
	MissingExpression Feature = "expression"
)

// Sentinel feedback messages.
const (
	FeedbackNotVisible = "Move closer to the camera and ensure your face and upper body are visible"
	FeedbackUnclear    = "Try to express your emotion more clearly. Make sure your face and upper body are visible."
)

// Config holds the fusion weights and decision thresholds.
type Config struct {
	BodyWeight float64
	FaceWeight float64
	// SuccessThreshold is the fused confidence above which the pattern's
	// success message is given instead of tips.
	SuccessThreshold float64
	// MinConfidence is the fused confidence the best pattern must exceed to
	// be reported at all.
	MinConfidence float64
}

// DefaultConfig returns the standard weights: face features dominate.
func DefaultConfig() Config {
	return Config{
		BodyWeight:       0.3,
		FaceWeight:       0.7,
		SuccessThreshold: 0.35,
		MinConfidence:    0.2,
	}
}

// Result is the emotion read from one frame.
type Result struct {
	Emotion         string    `json:"emotion"`
	Confidence      float64   `json:"confidence"`
	Feedback        string    `json:"feedback"`
	MissingFeatures []Feature `json:"missingFeatures"`
}

// Classifier scores frames against emotion patterns. It is stateless and
// safe for concurrent use.
type Classifier struct {
	patterns   []Pattern
	thresholds Thresholds
	cfg        Config
	logger     *slog.Logger

	extract func(*landmark.PoseLandmarks, *landmark.FaceLandmarks, Thresholds) Features
}

// NewClassifier creates a classifier. A nil logger uses slog.Default().
func NewClassifier(patterns []Pattern, th Thresholds, cfg Config, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	owned := make([]Pattern, len(patterns))
	copy(owned, patterns)
	return &Classifier{
		patterns:   owned,
		thresholds: th,
		cfg:        cfg,
		logger:     logger,
		extract:    Extract,
	}
}

// Patterns returns the patterns in evaluation order.
func (c *Classifier) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Classify reads the first pose and first face. Missing input and unclear
// expressions yield sentinel results with an empty emotion. The second
// return value is false only when the analysis itself failed.
func (c *Classifier) Classify(poses []landmark.PoseLandmarks, faces []landmark.FaceLandmarks) (res Result, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := xerrors.New(fmt.Sprintf("emotion analysis: %v", r))
			c.logger.ErrorContext(context.Background(), "emotion classification failed", slog.Any("error", err))
			res, ok = Result{}, false
		}
	}()

	if len(poses) == 0 || len(faces) == 0 {
		return notVisible(), true
	}

	features := c.extract(&poses[0], &faces[0], c.thresholds)

	var best Result
	for _, p := range c.patterns {
		bodyConf, bodyMissing := score(features, p.Body)
		faceConf, faceMissing := score(features, p.Face)
		conf := FuseConfidence(bodyConf, faceConf, c.cfg)

		if conf <= best.Confidence {
			continue
		}

		missing := make([]Feature, 0, len(bodyMissing)+len(faceMissing))
		missing = append(append(missing, bodyMissing...), faceMissing...)
		best = Result{
			Emotion:         p.Emotion,
			Confidence:      conf,
			Feedback:        c.feedback(p, conf, missing),
			MissingFeatures: missing,
		}
	}

	if best.Confidence > c.cfg.MinConfidence {
		return best, true
	}
	return unclear(), true
}

// FuseConfidence combines body and face match ratios.
func FuseConfidence(body, face float64, cfg Config) float64 {
	return body*cfg.BodyWeight + face*cfg.FaceWeight
}

func (c *Classifier) feedback(p Pattern, conf float64, missing []Feature) string {
	if conf > c.cfg.SuccessThreshold {
		return p.Success
	}

	var b strings.Builder
	b.WriteString(p.Partial)
	for _, f := range missing {
		b.WriteString("\n• ")
		b.WriteString(p.Tip(f))
	}
	return b.String()
}

// score returns the fraction of expectations met and the features that were
// not.
func score(fs Features, expect []Expectation) (float64, []Feature) {
	if len(expect) == 0 {
		return 0, nil
	}

	var matched int
	var missing []Feature
	for _, e := range expect {
		if fs.Has(e.Feature) == e.Want {
			matched++
		} else {
			missing = append(missing, e.Feature)
		}
	}
	return float64(matched) / float64(len(expect)), missing
}

func notVisible() Result {
	return Result{
		Feedback:        FeedbackNotVisible,
		MissingFeatures: []Feature{MissingVisibility},
	}
}

func unclear() Result {
	return Result{
		Feedback:        FeedbackUnclear,
		MissingFeatures: []Feature{MissingExpression},
	}
}
