package landmark

import "fmt"

// Keypoint names used by browser and MediaPipe body-pose models.
const (
	KeypointNose          = "nose"
	KeypointLeftShoulder  = "left_shoulder"
	KeypointRightShoulder = "right_shoulder"
	KeypointLeftElbow     = "left_elbow"
	KeypointRightElbow    = "right_elbow"
)

// NamedKeypoint is one entry of a pose model's raw keypoint list.
type NamedKeypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Keypoint is a 2-D body keypoint. Detected is false when the model did not
// report it.
type Keypoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Score    float64 `json:"score"`
	Detected bool    `json:"detected"`
}

// PoseLandmarks holds the upper-body keypoints the expression extractor reads.
type PoseLandmarks struct {
	Nose          Keypoint `json:"nose"`
	LeftShoulder  Keypoint `json:"left_shoulder"`
	RightShoulder Keypoint `json:"right_shoulder"`
	LeftElbow     Keypoint `json:"left_elbow"`
	RightElbow    Keypoint `json:"right_elbow"`
}

// PoseFromKeypoints builds a PoseLandmarks from a pose model's named keypoint
// list. Unknown names are ignored; the first occurrence of a name wins.
func PoseFromKeypoints(keypoints []NamedKeypoint) (PoseLandmarks, error) {
	var pose PoseLandmarks
	for i, kp := range keypoints {
		if !(Point3D{X: kp.X, Y: kp.Y}).finite() {
			return PoseLandmarks{}, fmt.Errorf("pose keypoint %d (%s): %w", i, kp.Name, ErrNonFinite)
		}

		slot := pose.slot(kp.Name)
		if slot == nil || slot.Detected {
			continue
		}
		*slot = Keypoint{X: kp.X, Y: kp.Y, Score: kp.Score, Detected: true}
	}
	return pose, nil
}

func (p *PoseLandmarks) slot(name string) *Keypoint {
	switch name {
	case KeypointNose:
		return &p.Nose
	case KeypointLeftShoulder:
		return &p.LeftShoulder
	case KeypointRightShoulder:
		return &p.RightShoulder
	case KeypointLeftElbow:
		return &p.LeftElbow
	case KeypointRightElbow:
		return &p.RightElbow
	}
	return nil
}
