// Package expression derives posture and facial descriptors from body pose
// and face mesh landmarks and scores them against emotion patterns.
package expression

import (
	"math"

	"github.com/ayusman/signcoach/internal/landmark"
)

// Feature names a boolean descriptor. The names are part of the API: they
// are reported back in Result.MissingFeatures.
type Feature string

// Body posture features.
const (
	ShouldersUp    Feature = "shouldersUp"
	ShouldersDown  Feature = "shouldersDown"
	ShouldersTense Feature = "shouldersTense"
	HeadUp         Feature = "headUp"
	HeadDown       Feature = "headDown"
	HeadForward    Feature = "headForward"
	ArmsOpen       Feature = "armsOpen"
	ArmsClose      Feature = "armsClose"
	ArmsTense      Feature = "armsTense"
)

// Facial features.
const (
	MouthOpen        Feature = "mouthOpen"
	MouthUpturned    Feature = "mouthUpturned"
	MouthDownturned  Feature = "mouthDownturned"
	MouthTight       Feature = "mouthTight"
	EyebrowsNeutral  Feature = "eyebrowsNeutral"
	EyebrowsInnerUp  Feature = "eyebrowsInnerUp"
	EyebrowsFurrowed Feature = "eyebrowsFurrowed"
	EyesWide         Feature = "eyesWide"
	EyesNarrowed     Feature = "eyesNarrowed"
)

// Thresholds holds every pixel band and ratio the extractor compares
// against. Pixel values assume a roughly 640x480 frame.
type Thresholds struct {
	// Shoulder line relative to the nose, measured downwards. A zero
	// ShouldersTenseBelowNose leaves shouldersTense unset.
	ShouldersUpBelowNose    float64
	ShouldersDownBelowNose  float64
	ShouldersTenseBelowNose float64

	// Nose relative to the shoulder line, measured upwards.
	HeadUpAboveShoulders   float64
	HeadDownAboveShoulders float64
	// Nose offset right of the shoulder midpoint.
	HeadForwardOffset float64

	// Elbow span relative to shoulder span.
	ArmsOpenRatio float64
	// Vertical elbow-to-shoulder distance below which an arm is tense.
	ArmsTenseBand float64

	MouthOpenGap  float64
	MouthTightGap float64
	// Mouth corner line angle, radians.
	MouthTurnAngle float64

	EyebrowFurrowDelta  float64
	EyebrowNeutralAngle float64

	EyesWideWidth     float64
	EyesNarrowedWidth float64
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ShouldersUpBelowNose:   150,
		ShouldersDownBelowNose: 180,

		HeadUpAboveShoulders:   80,
		HeadDownAboveShoulders: 40,
		HeadForwardOffset:      20,

		ArmsOpenRatio: 1.3,
		ArmsTenseBand: 60,

		MouthOpenGap:   10,
		MouthTightGap:  5,
		MouthTurnAngle: 0.1,

		EyebrowFurrowDelta:  0.2,
		EyebrowNeutralAngle: 0.1,

		EyesWideWidth:     30,
		EyesNarrowedWidth: 20,
	}
}

// Features is the set of descriptors that hold for one frame.
type Features map[Feature]bool

// Has reports whether f holds.
func (fs Features) Has(f Feature) bool {
	return fs[f]
}

// Extract derives body and face features. Features whose landmarks are
// missing stay false.
func Extract(pose *landmark.PoseLandmarks, face *landmark.FaceLandmarks, th Thresholds) Features {
	fs := make(Features)
	if pose != nil {
		extractBody(fs, pose, th)
	}
	if face != nil {
		extractFace(fs, face, th)
	}
	return fs
}

func extractBody(fs Features, p *landmark.PoseLandmarks, th Thresholds) {
	ls, rs, nose := p.LeftShoulder, p.RightShoulder, p.Nose

	if ls.Detected && rs.Detected && nose.Detected {
		shoulderY := (ls.Y + rs.Y) / 2
		shoulderMidX := (ls.X + rs.X) / 2

		fs[ShouldersUp] = shoulderY < nose.Y+th.ShouldersUpBelowNose
		fs[ShouldersDown] = shoulderY > nose.Y+th.ShouldersDownBelowNose
		if th.ShouldersTenseBelowNose > 0 {
			fs[ShouldersTense] = shoulderY < nose.Y+th.ShouldersTenseBelowNose
		}

		fs[HeadUp] = nose.Y < shoulderY-th.HeadUpAboveShoulders
		fs[HeadDown] = nose.Y > shoulderY-th.HeadDownAboveShoulders
		fs[HeadForward] = nose.X > shoulderMidX+th.HeadForwardOffset
	}

	le, re := p.LeftElbow, p.RightElbow
	if le.Detected && re.Detected && ls.Detected && rs.Detected {
		shoulderWidth := math.Abs(rs.X - ls.X)
		elbowWidth := math.Abs(re.X - le.X)

		fs[ArmsOpen] = elbowWidth > shoulderWidth*th.ArmsOpenRatio
		fs[ArmsClose] = elbowWidth < shoulderWidth
		fs[ArmsTense] = math.Abs(le.Y-ls.Y) < th.ArmsTenseBand ||
			math.Abs(re.Y-rs.Y) < th.ArmsTenseBand
	}
}

func extractFace(fs Features, f *landmark.FaceLandmarks, th Thresholds) {
	if pts, ok := lookup(f, landmark.MouthTop, landmark.MouthBottom, landmark.MouthLeftCorner, landmark.MouthRightCorner); ok {
		top, bottom, left, right := pts[0], pts[1], pts[2], pts[3]

		gap := math.Abs(bottom.Y - top.Y)
		fs[MouthOpen] = gap > th.MouthOpenGap
		fs[MouthTight] = gap < th.MouthTightGap

		angle := math.Atan2(right.Y-left.Y, right.X-left.X)
		fs[MouthUpturned] = angle > th.MouthTurnAngle
		fs[MouthDownturned] = angle < -th.MouthTurnAngle
	}

	if pts, ok := lookup(f, landmark.LeftEyebrowInner, landmark.LeftEyebrowOuter, landmark.RightEyebrowInner, landmark.RightEyebrowOuter); ok {
		li, lo, ri, ro := pts[0], pts[1], pts[2], pts[3]

		leftAngle := math.Atan2(lo.Y-li.Y, lo.X-li.X)
		rightAngle := math.Atan2(ro.Y-ri.Y, ro.X-ri.X)

		fs[EyebrowsFurrowed] = math.Abs(leftAngle-rightAngle) > th.EyebrowFurrowDelta
		fs[EyebrowsInnerUp] = li.Y < lo.Y && ri.Y < ro.Y
		fs[EyebrowsNeutral] = math.Abs(leftAngle) < th.EyebrowNeutralAngle &&
			math.Abs(rightAngle) < th.EyebrowNeutralAngle
	}

	if pts, ok := lookup(f, landmark.LeftEyeInner, landmark.LeftEyeOuter, landmark.RightEyeInner, landmark.RightEyeOuter); ok {
		leftWidth := math.Abs(pts[1].X - pts[0].X)
		rightWidth := math.Abs(pts[3].X - pts[2].X)
		avg := (leftWidth + rightWidth) / 2

		fs[EyesWide] = avg > th.EyesWideWidth
		fs[EyesNarrowed] = avg < th.EyesNarrowedWidth
	}
}

func lookup(f *landmark.FaceLandmarks, idx ...int) ([]landmark.Point3D, bool) {
	pts := make([]landmark.Point3D, len(idx))
	for i, n := range idx {
		p, ok := f.At(n)
		if !ok {
			return nil, false
		}
		pts[i] = p
	}
	return pts, true
}
