package landmark

import "fmt"

// Frame is everything the perception models found in one camera frame.
type Frame struct {
	Hands []HandLandmarks `json:"hands"`
	Poses []PoseLandmarks `json:"poses"`
	Faces []FaceLandmarks `json:"faces"`
}

// FirstHand returns the first detected hand, or nil.
func (f *Frame) FirstHand() *HandLandmarks {
	if f == nil || len(f.Hands) == 0 {
		return nil
	}
	return &f.Hands[0]
}

// RawHand is a hand as the perception models serialize it.
type RawHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness,omitempty"`
	Score      float64   `json:"score,omitempty"`
}

// RawPose is a body pose as a named keypoint list.
type RawPose struct {
	Keypoints []NamedKeypoint `json:"keypoints"`
}

// RawFace is a face mesh as a flat point list.
type RawFace struct {
	Points []Point3D `json:"points"`
}

// RawFrame is the wire form shared by the MediaPipe service and the HTTP API.
type RawFrame struct {
	Hands []RawHand `json:"hands"`
	Poses []RawPose `json:"poses"`
	Faces []RawFace `json:"faces"`
}

// Decode validates every landmark set and returns the typed frame. The first
// malformed entry fails the whole frame.
func (r RawFrame) Decode() (Frame, error) {
	var f Frame
	for i, rh := range r.Hands {
		h, err := HandFromPoints(rh.Points)
		if err != nil {
			return Frame{}, fmt.Errorf("hand %d: %w", i, err)
		}
		h.Handedness, h.Score = rh.Handedness, rh.Score
		f.Hands = append(f.Hands, h)
	}
	for i, rp := range r.Poses {
		p, err := PoseFromKeypoints(rp.Keypoints)
		if err != nil {
			return Frame{}, fmt.Errorf("pose %d: %w", i, err)
		}
		f.Poses = append(f.Poses, p)
	}
	for i, rf := range r.Faces {
		face, err := FaceFromPoints(rf.Points)
		if err != nil {
			return Frame{}, fmt.Errorf("face %d: %w", i, err)
		}
		f.Faces = append(f.Faces, face)
	}
	return f, nil
}
