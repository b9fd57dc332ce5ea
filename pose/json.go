package pose

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
)

// PoseNet output layout
type jsonPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type jsonKeypoint struct {
	Part     string       `json:"part"`
	Score    float64      `json:"score"`
	Position jsonPosition `json:"position"`
}

type jsonPose struct {
	Score     float64        `json:"score"`
	Keypoints []jsonKeypoint `json:"keypoints"`
}

func (p jsonPose) toPose() Pose {
	out := Pose{Score: p.Score, Keypoints: make([]Keypoint, 0, len(p.Keypoints))}
	for _, kp := range p.Keypoints {
		label, ok := ParseJointLabel(kp.Part)
		if !ok { // face mesh or extra points
			continue
		}
		out.Keypoints = append(out.Keypoints, Keypoint{
			Label:      label,
			Position:   r2.Vec{X: kp.Position.X, Y: kp.Position.Y},
			Confidence: kp.Score,
		})
	}
	return out
}

func toPoses(in []jsonPose) []Pose {
	out := make([]Pose, len(in))
	for i, p := range in {
		out[i] = p.toPose()
	}
	return out
}

// DecodePoses reads one frame: a JSON array of poses,
// as estimated by PoseNet. Unknown part names are skipped.
func DecodePoses(r io.Reader) ([]Pose, error) {
	var poses []jsonPose
	if err := json.NewDecoder(r).Decode(&poses); err != nil {
		return nil, fmt.Errorf("decoding poses: %w", err)
	}
	return toPoses(poses), nil
}

// DecodeFrames reads a sequence of frames: a JSON array
// whose items are arrays of poses.
func DecodeFrames(r io.Reader) ([][]Pose, error) {
	var frames [][]jsonPose
	if err := json.NewDecoder(r).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decoding frames: %w", err)
	}
	out := make([][]Pose, len(frames))
	for i, f := range frames {
		out[i] = toPoses(f)
	}
	return out, nil
}
