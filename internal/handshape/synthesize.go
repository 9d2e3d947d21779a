package handshape

import "github.com/ayusman/signcoach/internal/landmark"

// Base joint offsets from the wrist, as fractions of the hand size.
var groupBases = [NumGroups]landmark.Point3D{
	GroupThumb:  {X: -0.20, Y: -0.10},
	GroupIndex:  {X: -0.10, Y: -0.35},
	GroupMiddle: {X: 0.00, Y: -0.38},
	GroupRing:   {X: 0.10, Y: -0.35},
	GroupPinky:  {X: 0.20, Y: -0.30},
}

// Synthesize builds a raw hand in pixel space that encodes exactly to the
// pattern: each fingertip sits size pixels from its base along every axis the
// pattern raises. The wrist is placed at origin. Intermediate joints are
// spaced evenly between base and tip. A size of 200 gives a hand well above
// DefaultMinHandSize.
func Synthesize(p Pattern, origin landmark.Point3D, size float64) landmark.HandLandmarks {
	hand := landmark.HandLandmarks{Handedness: "Right", Score: 1}
	hand.Points[landmark.Wrist] = origin

	for g, fg := range fingerGroups {
		var j [3]float64
		if g < len(p.Joints) {
			j = p.Joints[g]
		}

		base := landmark.Point3D{
			X: origin.X + groupBases[g].X*size,
			Y: origin.Y + groupBases[g].Y*size,
			Z: origin.Z,
		}
		tip := landmark.Point3D{
			X: base.X + j[0]*size,
			Y: base.Y - j[1]*size,
			Z: base.Z - j[2]*size,
		}

		first, last := fg[0], fg[1]
		steps := float64(last - first)
		for idx := first; idx <= last; idx++ {
			t := float64(idx-first) / steps
			hand.Points[idx] = landmark.Point3D{
				X: base.X + t*(tip.X-base.X),
				Y: base.Y + t*(tip.Y-base.Y),
				Z: base.Z + t*(tip.Z-base.Z),
			}
		}
		hand.Points[last] = tip
	}
	return hand
}
