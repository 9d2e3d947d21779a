// Package recognition is the boundary of the recognition core. It owns the
// hand-shape and emotion classifiers and hands out stability gates; callers
// never see a panic from it.
package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mdobak/go-xerrors"

	"github.com/ayusman/signcoach/internal/expression"
	"github.com/ayusman/signcoach/internal/handshape"
	"github.com/ayusman/signcoach/internal/landmark"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/stability"
)

// Options configures an Engine. Zero values take the package defaults.
type Options struct {
	Patterns   []handshape.Pattern
	Handshape  handshape.Config
	Stability  stability.Config
	Thresholds *expression.Thresholds
	Expression *expression.Config
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Engine classifies frames. It is safe for concurrent use; gates it creates
// are not and belong to a single stream.
type Engine struct {
	mu     sync.RWMutex
	all    *handshape.Classifier
	byKind map[handshape.Kind]*handshape.Classifier
	kinds  map[string]handshape.Kind

	handCfg  handshape.Config
	gateCfg  stability.Config
	emotions *expression.Classifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New builds an engine over opts.Patterns, or the default letter and digit
// library when none are given.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	th := expression.DefaultThresholds()
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}
	exprCfg := expression.DefaultConfig()
	if opts.Expression != nil {
		exprCfg = *opts.Expression
	}

	e := &Engine{
		handCfg:  opts.Handshape,
		gateCfg:  opts.Stability,
		emotions: expression.NewClassifier(expression.DefaultPatterns(), th, exprCfg, logger),
		metrics:  opts.Metrics,
		logger:   logger,
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = handshape.DefaultPatterns()
	}
	if err := e.SetPatterns(patterns); err != nil {
		return nil, err
	}
	return e, nil
}

// SetPatterns replaces the hand-shape library. Each kind present in the
// library also gets its own classifier for category-restricted practice.
func (e *Engine) SetPatterns(patterns []handshape.Pattern) error {
	all, err := handshape.NewClassifier(patterns, e.handCfg)
	if err != nil {
		return fmt.Errorf("build hand classifier: %w", err)
	}

	kinds := make(map[string]handshape.Kind, len(patterns))
	for _, p := range patterns {
		kinds[strings.ToUpper(p.Label)] = p.Kind
	}

	byKind := make(map[handshape.Kind]*handshape.Classifier)
	for _, kind := range []handshape.Kind{handshape.KindLetter, handshape.KindDigit, handshape.KindCustom} {
		subset := handshape.Filter(patterns, kind)
		if len(subset) == 0 {
			continue
		}
		c, err := handshape.NewClassifier(subset, e.handCfg)
		if err != nil {
			return fmt.Errorf("build %s classifier: %w", kind, err)
		}
		byKind[kind] = c
	}

	e.mu.Lock()
	e.all = all
	e.byKind = byKind
	e.kinds = kinds
	e.mu.Unlock()
	return nil
}

// Patterns returns the current hand-shape library.
func (e *Engine) Patterns() []handshape.Pattern {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.all.Patterns()
}

// Emotions returns the emotion names in evaluation order.
func (e *Engine) Emotions() []string {
	return expression.Emotions(e.emotions.Patterns())
}

// ClassifyHand matches a hand against the whole library.
func (e *Engine) ClassifyHand(hand *landmark.HandLandmarks) (handshape.Result, bool) {
	e.mu.RLock()
	c := e.all
	e.mu.RUnlock()
	return e.classifyHand(c, hand)
}

// ClassifyHandAs matches a hand against the patterns of one kind only. It
// reports none when the library has no pattern of that kind.
func (e *Engine) ClassifyHandAs(kind handshape.Kind, hand *landmark.HandLandmarks) (handshape.Result, bool) {
	e.mu.RLock()
	c, ok := e.byKind[kind]
	e.mu.RUnlock()
	if !ok {
		return handshape.Result{}, false
	}
	return e.classifyHand(c, hand)
}

// RankHand scores every pattern of the whole library, best first.
func (e *Engine) RankHand(hand *landmark.HandLandmarks) (matches []handshape.Match) {
	defer e.recoverFault("rank hand", func() { matches = nil })

	e.mu.RLock()
	c := e.all
	e.mu.RUnlock()
	return c.Rank(hand)
}

// NewGate creates a stability gate with the engine's tuning.
func (e *Engine) NewGate() *stability.Gate {
	return stability.NewGate(e.gateCfg)
}

// GateEmit feeds one classification into gate and returns the label when the
// gate emits.
func (e *Engine) GateEmit(gate *stability.Gate, res handshape.Result, ok bool, target string) (label string, emitted bool) {
	if gate == nil {
		return "", false
	}
	defer e.recoverFault("gate emit", func() { label, emitted = "", false })

	label, emitted = gate.Observe(res, ok, target)
	if emitted {
		e.metrics.IncrementEmission(string(e.kindOf(label)))
		e.logger.Debug("gate emitted", slog.String("label", label), slog.String("target", target))
	}
	return label, emitted
}

// kindOf returns the kind of the pattern labelled label. Labels missing from
// the library count as custom.
func (e *Engine) kindOf(label string) handshape.Kind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if kind, ok := e.kinds[strings.ToUpper(label)]; ok && kind != "" {
		return kind
	}
	return handshape.KindCustom
}

// ResetGate clears a gate's history.
func (e *Engine) ResetGate(gate *stability.Gate) {
	if gate != nil {
		gate.Reset()
	}
}

// ClassifyEmotion reads the emotion from the first pose and face.
func (e *Engine) ClassifyEmotion(poses []landmark.PoseLandmarks, faces []landmark.FaceLandmarks) (expression.Result, bool) {
	start := time.Now()
	res, ok := e.emotions.Classify(poses, faces)

	outcome := metrics.OutcomeMatch
	switch {
	case !ok:
		outcome = metrics.OutcomeFault
	case res.Emotion == "":
		outcome = metrics.OutcomeNone
	}
	e.metrics.ObserveClassification(metrics.KindEmotion, outcome, start)
	return res, ok
}

func (e *Engine) classifyHand(c *handshape.Classifier, hand *landmark.HandLandmarks) (res handshape.Result, ok bool) {
	start := time.Now()
	defer e.recoverFault("classify hand", func() {
		res, ok = handshape.Result{}, false
		e.metrics.ObserveClassification(metrics.KindHand, metrics.OutcomeFault, start)
	})

	res, ok = c.Classify(hand)

	outcome := metrics.OutcomeMatch
	if !ok {
		outcome = metrics.OutcomeNone
	}
	e.metrics.ObserveClassification(metrics.KindHand, outcome, start)
	return res, ok
}

// recoverFault must be deferred directly. It logs a recovered panic with its
// stack and runs fallback to set the none result.
func (e *Engine) recoverFault(op string, fallback func()) {
	r := recover()
	if r == nil {
		return
	}
	err := xerrors.New(fmt.Sprintf("%s: %v", op, r))
	e.logger.ErrorContext(context.Background(), "recognition fault", slog.Any("error", err))
	fallback()
}
