package handshape

import (
	"fmt"
	"math"
	"sort"

	"github.com/ayusman/signcoach/internal/landmark"
)

// DefaultMinHandSize is the smallest raw bounding-box diagonal, in pixels,
// that is classified. Smaller hands are too far away to read reliably.
const DefaultMinHandSize = 50.0

// Config holds the classifier tuning.
type Config struct {
	MinHandSize float64
	ReachSpan   float64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		MinHandSize: DefaultMinHandSize,
		ReachSpan:   DefaultReachSpan,
	}
}

// Result is the best matching pattern for one hand.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Match is one pattern's score against a hand.
type Match struct {
	Label      string  `json:"label"`
	Kind       Kind    `json:"kind"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// Classifier matches hands against a fixed pattern library. It holds no
// per-call state and is safe for concurrent use.
type Classifier struct {
	patterns []Pattern
	cfg      Config
}

// NewClassifier validates every pattern and returns a classifier over them.
// Declaration order decides ties.
func NewClassifier(patterns []Pattern, cfg Config) (*Classifier, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no patterns: %w", ErrPatternShape)
	}
	for _, p := range patterns {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	def := DefaultConfig()
	if cfg.MinHandSize <= 0 {
		cfg.MinHandSize = def.MinHandSize
	}
	if cfg.ReachSpan <= 0 {
		cfg.ReachSpan = def.ReachSpan
	}

	owned := make([]Pattern, len(patterns))
	copy(owned, patterns)

	return &Classifier{patterns: owned, cfg: cfg}, nil
}

// Patterns returns a copy of the library in declaration order.
func (c *Classifier) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Config returns the classifier tuning.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify returns the best matching pattern. The second return value is
// false when no hand is given or the hand is too small to classify. A match
// is always returned otherwise, however low its confidence.
func (c *Classifier) Classify(hand *landmark.HandLandmarks) (Result, bool) {
	enc, ok := c.encode(hand)
	if !ok {
		return Result{}, false
	}

	best := -1
	bestConf := 0.0
	for i, p := range c.patterns {
		conf := confidence(enc.distance(p.Joints))
		if best < 0 || conf > bestConf {
			best, bestConf = i, conf
		}
	}
	if math.IsNaN(bestConf) {
		return Result{}, false
	}

	return Result{Label: c.patterns[best].Label, Confidence: bestConf}, true
}

// Rank scores every pattern against the hand, best first. Equal scores keep
// declaration order.
func (c *Classifier) Rank(hand *landmark.HandLandmarks) []Match {
	enc, ok := c.encode(hand)
	if !ok {
		return nil
	}

	matches := make([]Match, 0, len(c.patterns))
	for _, p := range c.patterns {
		d := enc.distance(p.Joints)
		if math.IsNaN(d) {
			return nil
		}
		matches = append(matches, Match{
			Label:      p.Label,
			Kind:       p.Kind,
			Confidence: confidence(d),
			Distance:   d,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// Encode returns the pattern-space encoding of a raw hand, or false when it
// is missing or below the minimum size.
func (c *Classifier) Encode(hand *landmark.HandLandmarks) (Encoding, bool) {
	return c.encode(hand)
}

func (c *Classifier) encode(hand *landmark.HandLandmarks) (Encoding, bool) {
	if hand == nil {
		return Encoding{}, false
	}
	if size := hand.Size(); math.IsNaN(size) || size < c.cfg.MinHandSize {
		return Encoding{}, false
	}
	return Encode(hand.Normalize(), c.cfg.ReachSpan), true
}

func confidence(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}
