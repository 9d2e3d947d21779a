package landmark

import "fmt"

// FaceMeshPoints is the number of points in the MediaPipe face mesh topology.
// Models with iris refinement append 10 more, which are accepted and ignored.
const FaceMeshPoints = 468

// Face mesh indices for the regions the expression extractor measures.
const (
	LeftEyebrowInner  = 336
	LeftEyebrowOuter  = 296
	RightEyebrowInner = 107
	RightEyebrowOuter = 67

	MouthTop         = 13
	MouthBottom      = 14
	MouthLeftCorner  = 61
	MouthRightCorner = 291

	LeftEyeOuter  = 33
	LeftEyeInner  = 133
	RightEyeInner = 362
	RightEyeOuter = 263
)

// FaceLandmarks is one detected face mesh in frame pixel space.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// FaceFromPoints validates a raw face mesh. It must carry at least
// FaceMeshPoints finite points.
func FaceFromPoints(points []Point3D) (FaceLandmarks, error) {
	if len(points) < FaceMeshPoints {
		return FaceLandmarks{}, fmt.Errorf("face: got %d points, want at least %d: %w", len(points), FaceMeshPoints, ErrLandmarkCount)
	}
	for i, p := range points {
		if !p.finite() {
			return FaceLandmarks{}, fmt.Errorf("face point %d: %w", i, ErrNonFinite)
		}
	}
	return FaceLandmarks{Points: points}, nil
}

// At returns the mesh point at index i, or false when the mesh is too short.
func (f *FaceLandmarks) At(i int) (Point3D, bool) {
	if f == nil || i < 0 || i >= len(f.Points) {
		return Point3D{}, false
	}
	return f.Points[i], true
}
