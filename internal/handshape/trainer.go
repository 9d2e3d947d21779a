package handshape

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/signcoach/internal/landmark"
)

// Trainer turns recorded hand samples into a reference pattern.
type Trainer struct {
	cfg Config
}

// NewTrainer creates a Trainer that encodes samples with the given tuning.
func NewTrainer(cfg Config) *Trainer {
	if cfg.ReachSpan <= 0 {
		cfg.ReachSpan = DefaultReachSpan
	}
	return &Trainer{cfg: cfg}
}

// Sample is one recorded hand pose as stored with a sign.
type Sample struct {
	Landmarks []landmark.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

// TrainPattern averages the encodings of the samples and rounds each axis to
// 0 or 1, producing a pattern for label.
func (t *Trainer) TrainPattern(label string, kind Kind, samples []json.RawMessage) (Pattern, error) {
	if len(samples) == 0 {
		return Pattern{}, fmt.Errorf("no samples provided")
	}

	var sum Encoding
	for i, raw := range samples {
		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return Pattern{}, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}

		hand, err := landmark.HandFromPoints(sample.Landmarks)
		if err != nil {
			return Pattern{}, fmt.Errorf("sample %d: %w", i, err)
		}

		enc := Encode(hand.Normalize(), t.cfg.ReachSpan)
		for g := range enc {
			for axis := 0; axis < 3; axis++ {
				sum[g][axis] += enc[g][axis]
			}
		}
	}

	n := float64(len(samples))
	p := Pattern{
		Label:  strings.TrimSpace(label),
		Kind:   kind,
		Joints: make([][3]float64, NumGroups),
	}
	for g := range sum {
		for axis := 0; axis < 3; axis++ {
			p.Joints[g][axis] = math.Round(sum[g][axis] / n)
		}
	}

	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}
