// Package landmark defines the typed landmark records produced by the
// perception models and the geometry normalizer shared by the classifiers.
package landmark

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrLandmarkCount is returned by the adapters when a perception model
// produces a landmark array of the wrong shape.
var ErrLandmarkCount = errors.New("unexpected landmark count")

// ErrNonFinite is returned by the adapters when a coordinate is NaN or Inf.
var ErrNonFinite = errors.New("non-finite landmark coordinate")

// Point3D represents a 3D point in space with x, y, z coordinates.
// Z is zero for 2-D sources.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UnmarshalJSON accepts both the {"x", "y", "z"} object and the [x, y] or
// [x, y, z] row emitted by browser hand-pose models.
func (p *Point3D) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var row []float64
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return err
		}
		point, err := pointFromRow(row)
		if err != nil {
			return err
		}
		*p = point
		return nil
	}

	type object Point3D
	return json.Unmarshal(data, (*object)(p))
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// HandLandmarks represents the 21 hand landmarks of one detected hand, in
// frame pixel space.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// HandFromPoints validates a raw hand landmark array and returns the typed
// record. The array must hold exactly NumLandmarks finite points.
func HandFromPoints(points []Point3D) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("hand: got %d points, want %d: %w", len(points), NumLandmarks, ErrLandmarkCount)
	}
	for i, p := range points {
		if !p.finite() {
			return h, fmt.Errorf("hand point %d: %w", i, ErrNonFinite)
		}
		h.Points[i] = p
	}
	return h, nil
}

func pointFromRow(row []float64) (Point3D, error) {
	switch len(row) {
	case 2:
		return Point3D{X: row[0], Y: row[1]}, nil
	case 3:
		return Point3D{X: row[0], Y: row[1], Z: row[2]}, nil
	}
	return Point3D{}, fmt.Errorf("got %d values, want 2 or 3: %w", len(row), ErrLandmarkCount)
}

// BoundingDiagonal returns the Euclidean diagonal of the XY bounding box of
// the points. It is 0 for fewer than two distinct points.
func BoundingDiagonal(points []Point3D) float64 {
	if len(points) == 0 {
		return 0
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return math.Hypot(maxX-minX, maxY-minY)
}

// Normalize maps points into a frame anchored at points[anchor] and scaled by
// the XY bounding-box diagonal, floored at 1. The result is invariant to
// translation and uniform scaling of the input. An out-of-range anchor falls
// back to index 0.
func Normalize(points []Point3D, anchor int) []Point3D {
	if len(points) == 0 {
		return nil
	}
	if anchor < 0 || anchor >= len(points) {
		anchor = 0
	}

	origin := points[anchor]
	scale := math.Max(1, BoundingDiagonal(points))

	normalized := make([]Point3D, len(points))
	for i, p := range points {
		d := p.Sub(origin)
		normalized[i] = Point3D{X: d.X / scale, Y: d.Y / scale, Z: d.Z / scale}
	}
	return normalized
}

// Size returns the raw bounding-box diagonal of the hand in pixels.
func (h *HandLandmarks) Size() float64 {
	if h == nil {
		return 0
	}
	return BoundingDiagonal(h.Points[:])
}

// Normalize returns a copy of the hand anchored at the wrist and scaled by
// its bounding-box diagonal. Handedness and score are preserved.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(normalized.Points[:], Normalize(h.Points[:], Wrist))

	return normalized
}
