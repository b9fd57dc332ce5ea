// Package pose defines the keypoint observations driving a puppet,
// and the mapping from raw pose hypotheses to a frame of joints.
package pose

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// JointLabel identifies a body joint.
type JointLabel uint8

const (
	Nose JointLabel = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	NumJoints int = iota
)

// PoseNet part names
var jointNames = [NumJoints]string{
	"nose",
	"leftEye",
	"rightEye",
	"leftEar",
	"rightEar",
	"leftShoulder",
	"rightShoulder",
	"leftElbow",
	"rightElbow",
	"leftWrist",
	"rightWrist",
	"leftHip",
	"rightHip",
	"leftKnee",
	"rightKnee",
	"leftAnkle",
	"rightAnkle",
}

var jointByName map[string]JointLabel

func init() {
	jointByName = make(map[string]JointLabel, NumJoints)
	for i, name := range jointNames {
		jointByName[name] = JointLabel(i)
	}
}

func (j JointLabel) String() string {
	if int(j) < NumJoints {
		return jointNames[j]
	}
	return fmt.Sprintf("<unknown JointLabel %d>", j)
}

// ParseJointLabel returns the joint with the given PoseNet name.
func ParseJointLabel(name string) (JointLabel, bool) {
	j, ok := jointByName[name]
	return j, ok
}

// Joints returns every label, in enumeration order.
func Joints() []JointLabel {
	out := make([]JointLabel, NumJoints)
	for i := range out {
		out[i] = JointLabel(i)
	}
	return out
}

// Keypoint is one observed joint, in document coordinates.
type Keypoint struct {
	Label      JointLabel
	Position   r2.Vec
	Confidence float64 // in [0, 1]
}

// Pose is one hypothesis of a body configuration.
type Pose struct {
	Score     float64
	Keypoints []Keypoint
}

// Frame holds at most one keypoint per joint.
type Frame struct {
	points  [NumJoints]Keypoint
	present [NumJoints]bool
}

// Set stores kp, replacing any keypoint with the same label.
func (f *Frame) Set(kp Keypoint) {
	if int(kp.Label) >= NumJoints {
		return
	}
	f.points[kp.Label] = kp
	f.present[kp.Label] = true
}

// Get returns the keypoint for the joint, if observed.
func (f *Frame) Get(j JointLabel) (Keypoint, bool) {
	if int(j) >= NumJoints || !f.present[j] {
		return Keypoint{}, false
	}
	return f.points[j], true
}

// Len returns the number of observed joints.
func (f *Frame) Len() int {
	n := 0
	for _, ok := range f.present {
		if ok {
			n++
		}
	}
	return n
}

// Keypoints returns the observed keypoints, in label order.
func (f *Frame) Keypoints() []Keypoint {
	var out []Keypoint
	for i, ok := range f.present {
		if ok {
			out = append(out, f.points[i])
		}
	}
	return out
}

// NewFrame builds a frame from keypoints, keeping the most
// confident one when a label is repeated.
func NewFrame(keypoints []Keypoint) Frame {
	var f Frame
	for _, kp := range keypoints {
		if prev, ok := f.Get(kp.Label); ok && prev.Confidence >= kp.Confidence {
			continue
		}
		f.Set(kp)
	}
	return f
}
