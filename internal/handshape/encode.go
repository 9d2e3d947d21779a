package handshape

import (
	"math"

	"github.com/ayusman/signcoach/internal/landmark"
)

// DefaultReachSpan is the normalized tip-to-base offset that counts as a
// fully extended finger along one axis.
const DefaultReachSpan = 0.25

// Encoding is the observed hand expressed in pattern space: one
// (lateral reach, rise, depth) triple per finger group.
type Encoding [NumGroups][3]float64

// fingerGroups lists the base and tip landmark of each finger group.
var fingerGroups = [NumGroups][2]int{
	GroupThumb:  {landmark.ThumbCMC, landmark.ThumbTip},
	GroupIndex:  {landmark.IndexMCP, landmark.IndexTip},
	GroupMiddle: {landmark.MiddleMCP, landmark.MiddleTip},
	GroupRing:   {landmark.RingMCP, landmark.RingTip},
	GroupPinky:  {landmark.PinkyMCP, landmark.PinkyTip},
}

// Encode maps a normalized hand into pattern space. Each finger group's
// tip-minus-base offset is read as |dx|, -dy and -dz (image y and depth grow
// away from a raised, forward finger), divided by span and clamped to [0,1].
func Encode(normalized *landmark.HandLandmarks, span float64) Encoding {
	var enc Encoding
	if normalized == nil {
		return enc
	}
	if span <= 0 {
		span = DefaultReachSpan
	}

	for g, fg := range fingerGroups {
		d := normalized.Points[fg[1]].Sub(normalized.Points[fg[0]])
		enc[g] = [3]float64{
			clamp01(math.Abs(d.X) / span),
			clamp01(-d.Y / span),
			clamp01(-d.Z / span),
		}
	}
	return enc
}

// distance is the mean absolute difference between an encoding and a
// pattern over every group and axis.
func (e Encoding) distance(joints [][3]float64) float64 {
	var sum float64
	for g := range e {
		for axis := 0; axis < 3; axis++ {
			sum += math.Abs(e[g][axis] - joints[g][axis])
		}
	}
	return sum / float64(NumGroups*3)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
